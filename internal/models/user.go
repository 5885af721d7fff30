package models

// User is the domain-side user record. Email lives in the identity
// provider; AuthID links the two.
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	AuthID      string `json:"authId"`
	Phone       string `json:"phone,omitempty"`
	Role        string `json:"role"` // "member", "manager", "admin"
}

// RoleManager marks accounts the notification fan-out targets.
const RoleManager = "manager"
