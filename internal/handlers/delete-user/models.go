// internal/handlers/delete-user/models.go
package deleteuser

type Output struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}

const MsgUserDeleted = "User deleted."
