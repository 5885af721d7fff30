// internal/handlers/delete-user/service.go
package deleteuser

import (
	"context"
	"database/sql"
	"fmt"

	"aquacare/internal/common/errors"
	"aquacare/internal/common/logger"
)

// IdentityAdmin deletes the linked identity-provider account.
type IdentityAdmin interface {
	DeleteUser(ctx context.Context, userID string) error
}

// Service removes a user's domain rows and their identity-provider account.
type Service struct {
	db       *sql.DB
	identity IdentityAdmin
	logger   logger.Logger
}

func NewService(db *sql.DB, identity IdentityAdmin, log logger.Logger) *Service {
	return &Service{
		db:       db,
		identity: identity,
		logger:   log.WithFields(map[string]interface{}{"handler": "delete-user"}),
	}
}

// Execute deletes the user's scheduled tasks, disease occurrences,
// aquariums and user row in one transaction, then the identity-provider
// account. The account deletion happens after commit; sends cannot be
// rolled back and neither can it, so a provider failure is reported to the
// caller with the domain rows already gone.
func (s *Service) Execute(ctx context.Context, userID string) (*Output, error) {
	var authID string
	err := s.db.QueryRowContext(ctx,
		`SELECT auth_id FROM users WHERE id = $1`, userID).Scan(&authID)
	if err == sql.ErrNoRows {
		return nil, errors.NewResourceNotFoundError(errors.ErrCodeUserNotFound,
			fmt.Sprintf("no user with id: %s", userID))
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("user_auth_id", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewDatabaseConnectionFailedError(err)
	}
	defer tx.Rollback()

	statements := []string{
		`DELETE FROM scheduled_tasks WHERE user_id = $1`,
		`DELETE FROM aquarium_diseases WHERE aquarium_id IN (SELECT id FROM aquariums WHERE owner_id = $1)`,
		`DELETE FROM aquariums WHERE owner_id = $1`,
		`DELETE FROM users WHERE id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, userID); err != nil {
			return nil, errors.NewQueryExecutionFailedError("delete_user_rows", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("delete_user_commit", err)
	}

	if err := s.identity.DeleteUser(ctx, authID); err != nil {
		s.logger.Error("identity account deletion failed after domain rows removed", map[string]interface{}{
			"userId": userID,
			"authId": authID,
			"error":  err,
		})
		return nil, err
	}

	s.logger.Info("user deleted", map[string]interface{}{"userId": userID})

	return &Output{Message: MsgUserDeleted, UserID: userID}, nil
}
