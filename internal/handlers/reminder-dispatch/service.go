// internal/handlers/reminder-dispatch/service.go
package reminderdispatch

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"aquacare/internal/common/auth"
	"aquacare/internal/common/errors"
	"aquacare/internal/common/logger"
	"aquacare/internal/common/metrics"
	"aquacare/internal/models"
)

// IdentityResolver is the slice of the identity provider the dispatch loop
// needs: account lookup by id, used only for the email field.
type IdentityResolver interface {
	GetUser(ctx context.Context, userID string) (*auth.Account, error)
}

// EmailSender sends one rendered notification.
type EmailSender interface {
	SendHTML(ctx context.Context, to, from, subject, html string) error
}

// Service runs the reminder dispatch job: one range query over upcoming
// scheduled tasks, then a strictly sequential loop notifying each assignee.
// It never mutates domain state.
type Service struct {
	config   *Config
	db       *sql.DB
	identity IdentityResolver
	sender   EmailSender
	template string
	logger   logger.Logger
	now      func() time.Time
}

func NewService(config *Config, db *sql.DB, identity IdentityResolver, sender EmailSender, template string, log logger.Logger) *Service {
	return &Service{
		config:   config,
		db:       db,
		identity: identity,
		sender:   sender,
		template: template,
		logger:   log.WithFields(map[string]interface{}{"handler": "reminder-dispatch"}),
		now:      time.Now,
	}
}

const dueTasksQuery = `
	SELECT id, scheduled_at, user_id, task_kind_id
	FROM scheduled_tasks
	WHERE scheduled_at >= $1 AND scheduled_at < $2`

// Run executes one dispatch pass. The only fatal error is a failure of the
// initial range query; every per-task problem is isolated and the loop
// continues with the next row.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	// Half-open window [now, now+W), truncated to minute granularity.
	from := s.now().Truncate(time.Minute)
	until := from.Add(s.config.Window)

	tasks, err := s.queryDueTasks(ctx, from, until)
	if err != nil {
		return nil, err
	}

	if len(tasks) == 0 {
		s.logger.Info("no schedules due", map[string]interface{}{
			"windowStart": from,
			"windowEnd":   until,
		})
		return &Result{Message: MsgNoSchedules}, nil
	}

	result := &Result{Message: MsgRemindersSent}
	for _, task := range tasks {
		result.Processed++
		s.dispatchOne(ctx, task, result)
	}

	s.logger.Info("reminders processed", map[string]interface{}{
		"processed": result.Processed,
		"sent":      result.Sent,
		"skipped":   result.Skipped,
		"failed":    result.Failed,
	})

	return result, nil
}

func (s *Service) queryDueTasks(ctx context.Context, from, until time.Time) ([]models.ScheduledTask, error) {
	rows, err := s.db.QueryContext(ctx, dueTasksQuery, from, until)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("due_tasks", err)
	}
	defer rows.Close()

	var tasks []models.ScheduledTask
	for rows.Next() {
		var t models.ScheduledTask
		if err := rows.Scan(&t.ID, &t.ScheduledAt, &t.UserID, &t.TaskKindID); err != nil {
			return nil, errors.NewQueryExecutionFailedError("due_tasks", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("due_tasks", err)
	}

	return tasks, nil
}

// dispatchOne resolves, renders and sends one reminder. Nothing it does can
// fail the batch.
func (s *Service) dispatchOne(ctx context.Context, task models.ScheduledTask, result *Result) {
	email, who, ok := s.resolveEmail(ctx, task.UserID)
	if !ok {
		// No resolvable address: skip silently, no error surfaced.
		result.Skipped++
		metrics.RemindersSkipped.WithLabelValues("no_email").Inc()
		s.logger.Debug("assignee email unresolvable, skipping task", map[string]interface{}{
			"taskId": task.ID,
			"userId": task.UserID,
		})
		return
	}

	kind, found := s.lookupKind(ctx, task.TaskKindID)
	description := kind.Description
	if !found {
		description = fmt.Sprintf("task #%d", task.TaskKindID)
	}

	body := Render(s.template, map[string]string{
		"name": who,
		"task": description,
		"date": task.ScheduledAt.Format("Jan 2, 2006 at 15:04"),
	})

	if err := s.sender.SendHTML(ctx, email, s.config.FromEmail, s.config.Subject, body); err != nil {
		result.Failed++
		metrics.ReminderSendFailures.Inc()
		s.logger.Error("reminder send failed", map[string]interface{}{
			"taskId": task.ID,
			"to":     email,
			"error":  err,
		})
		return
	}

	result.Sent++
	metrics.RemindersSent.Inc()
}

// resolveEmail maps an assignee id to an email address via the users row
// and the identity provider. The bool makes the fallback policy explicit at
// the call site: false means skip this task.
func (s *Service) resolveEmail(ctx context.Context, userID string) (email, displayName string, ok bool) {
	assignee, found := s.lookupAssignee(ctx, userID)
	if !found {
		return "", "", false
	}

	account, err := s.identity.GetUser(ctx, assignee.AuthID)
	if err != nil || account.Email == "" {
		return "", "", false
	}

	return account.Email, assignee.DisplayName, true
}

func (s *Service) lookupAssignee(ctx context.Context, userID string) (models.User, bool) {
	u := models.User{ID: userID}
	var displayName sql.NullString

	err := s.db.QueryRowContext(ctx,
		`SELECT auth_id, display_name FROM users WHERE id = $1`, userID).
		Scan(&u.AuthID, &displayName)
	if err != nil {
		return models.User{}, false
	}

	// Missing display name is benign: the reminder goes out unaddressed.
	u.DisplayName = displayName.String
	return u, true
}

func (s *Service) lookupKind(ctx context.Context, taskKindID int64) (models.TaskKind, bool) {
	kind := models.TaskKind{ID: taskKindID}
	err := s.db.QueryRowContext(ctx,
		`SELECT description FROM task_kinds WHERE id = $1`, taskKindID).
		Scan(&kind.Description)
	if err != nil {
		return models.TaskKind{}, false
	}
	return kind, true
}
