package reminderdispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aquacare/internal/common/auth"
	"aquacare/internal/common/logger"
)

// ==========================
// Test Helper Functions
// ==========================

const testTemplate = `<p>Hello {{name}}, reminder: {{task}} at {{date}}.</p>`

func createTestConfig() *Config {
	return &Config{
		Window:    time.Minute,
		Subject:   "Aquarium task reminder",
		FromEmail: "noreply@aquacare.test",
		Timeout:   5 * time.Second,
	}
}

type fakeIdentity struct {
	accounts map[string]*auth.Account
	err      error
}

func (f *fakeIdentity) GetUser(_ context.Context, userID string) (*auth.Account, error) {
	if f.err != nil {
		return nil, f.err
	}
	account, ok := f.accounts[userID]
	if !ok {
		return nil, errors.New("account not found")
	}
	return account, nil
}

type sentMail struct {
	to      string
	from    string
	subject string
	body    string
}

type fakeSender struct {
	sent    []sentMail
	failFor map[string]error
}

func (f *fakeSender) SendHTML(_ context.Context, to, from, subject, html string) error {
	if err, ok := f.failFor[to]; ok {
		return err
	}
	f.sent = append(f.sent, sentMail{to: to, from: from, subject: subject, body: html})
	return nil
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// ==========================
// Core Functionality Tests
// ==========================

func TestService_Run_SendsDueReminders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2026, 3, 14, 9, 30, 42, 0, time.UTC)
	windowStart := now.Truncate(time.Minute)
	windowEnd := windowStart.Add(time.Minute)
	scheduledAt := windowStart.Add(30 * time.Second)

	mock.ExpectQuery(`SELECT id, scheduled_at, user_id, task_kind_id\s+FROM scheduled_tasks\s+WHERE scheduled_at >= \$1 AND scheduled_at < \$2`).
		WithArgs(windowStart, windowEnd).
		WillReturnRows(sqlmock.NewRows([]string{"id", "scheduled_at", "user_id", "task_kind_id"}).
			AddRow(int64(1), scheduledAt, "user-1", int64(10)))

	mock.ExpectQuery(`SELECT auth_id, display_name FROM users WHERE id = \$1`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"auth_id", "display_name"}).
			AddRow("kc-1", "Alice"))

	mock.ExpectQuery(`SELECT description FROM task_kinds WHERE id = \$1`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"description"}).
			AddRow("Clean the filter"))

	identity := &fakeIdentity{accounts: map[string]*auth.Account{
		"kc-1": {ID: "kc-1", Email: "alice@example.com"},
	}}
	sender := &fakeSender{}

	svc := NewService(createTestConfig(), db, identity, sender, testTemplate, logger.NewNoOpLogger())
	svc.now = fixedClock(now)

	result, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, MsgRemindersSent, result.Message)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, 0, result.Failed)

	require.Len(t, sender.sent, 1)
	mail := sender.sent[0]
	assert.Equal(t, "alice@example.com", mail.to)
	assert.Equal(t, "noreply@aquacare.test", mail.from)
	assert.Equal(t, "Aquarium task reminder", mail.subject)
	assert.Contains(t, mail.body, "Alice")
	assert.Contains(t, mail.body, "Clean the filter")
	assert.Contains(t, mail.body, scheduledAt.Format("Jan 2, 2006 at 15:04"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Run_NoSchedulesDue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, scheduled_at, user_id, task_kind_id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "scheduled_at", "user_id", "task_kind_id"}))

	sender := &fakeSender{}
	svc := NewService(createTestConfig(), db, &fakeIdentity{}, sender, testTemplate, logger.NewNoOpLogger())

	result, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, MsgNoSchedules, result.Message)
	assert.Equal(t, 0, result.Processed)
	assert.Empty(t, sender.sent)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Run_QueryFailureIsFatal(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, scheduled_at, user_id, task_kind_id`).
		WillReturnError(errors.New("connection reset"))

	sender := &fakeSender{}
	svc := NewService(createTestConfig(), db, &fakeIdentity{}, sender, testTemplate, logger.NewNoOpLogger())

	result, err := svc.Run(context.Background())

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Empty(t, sender.sent)
	assert.Contains(t, err.Error(), "QUERY_EXECUTION_FAILED")
}

// ==========================
// Failure Isolation Tests
// ==========================

func TestService_Run_SkipsTaskWithoutResolvableEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	scheduledAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, scheduled_at, user_id, task_kind_id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "scheduled_at", "user_id", "task_kind_id"}).
			AddRow(int64(1), scheduledAt, "user-gone", int64(10)).
			AddRow(int64(2), scheduledAt, "user-2", int64(11)))

	// First assignee has no users row at all.
	mock.ExpectQuery(`SELECT auth_id, display_name FROM users WHERE id = \$1`).
		WithArgs("user-gone").
		WillReturnError(errors.New("sql: no rows in result set"))

	mock.ExpectQuery(`SELECT auth_id, display_name FROM users WHERE id = \$1`).
		WithArgs("user-2").
		WillReturnRows(sqlmock.NewRows([]string{"auth_id", "display_name"}).
			AddRow("kc-2", "Bob"))

	mock.ExpectQuery(`SELECT description FROM task_kinds WHERE id = \$1`).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"description"}).
			AddRow("Feed the fish"))

	identity := &fakeIdentity{accounts: map[string]*auth.Account{
		"kc-2": {ID: "kc-2", Email: "bob@example.com"},
	}}
	sender := &fakeSender{}

	svc := NewService(createTestConfig(), db, identity, sender, testTemplate, logger.NewNoOpLogger())

	result, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, MsgRemindersSent, result.Message)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Skipped)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "bob@example.com", sender.sent[0].to)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Run_SkipsWhenIdentityHasNoEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	scheduledAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, scheduled_at, user_id, task_kind_id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "scheduled_at", "user_id", "task_kind_id"}).
			AddRow(int64(1), scheduledAt, "user-1", int64(10)))

	mock.ExpectQuery(`SELECT auth_id, display_name FROM users WHERE id = \$1`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"auth_id", "display_name"}).
			AddRow("kc-1", "Alice"))

	identity := &fakeIdentity{accounts: map[string]*auth.Account{
		"kc-1": {ID: "kc-1", Email: ""},
	}}
	sender := &fakeSender{}

	svc := NewService(createTestConfig(), db, identity, sender, testTemplate, logger.NewNoOpLogger())

	result, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Sent)
	assert.Empty(t, sender.sent)
}

func TestService_Run_SendFailureDoesNotBlockOthers(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	scheduledAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, scheduled_at, user_id, task_kind_id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "scheduled_at", "user_id", "task_kind_id"}).
			AddRow(int64(1), scheduledAt, "user-1", int64(10)).
			AddRow(int64(2), scheduledAt, "user-2", int64(10)))

	for _, u := range []struct{ id, authID, name string }{
		{"user-1", "kc-1", "Alice"},
		{"user-2", "kc-2", "Bob"},
	} {
		mock.ExpectQuery(`SELECT auth_id, display_name FROM users WHERE id = \$1`).
			WithArgs(u.id).
			WillReturnRows(sqlmock.NewRows([]string{"auth_id", "display_name"}).
				AddRow(u.authID, u.name))
		mock.ExpectQuery(`SELECT description FROM task_kinds WHERE id = \$1`).
			WithArgs(int64(10)).
			WillReturnRows(sqlmock.NewRows([]string{"description"}).
				AddRow("Water change"))
	}

	identity := &fakeIdentity{accounts: map[string]*auth.Account{
		"kc-1": {ID: "kc-1", Email: "alice@example.com"},
		"kc-2": {ID: "kc-2", Email: "bob@example.com"},
	}}
	sender := &fakeSender{failFor: map[string]error{
		"alice@example.com": errors.New("ses throttled"),
	}}

	svc := NewService(createTestConfig(), db, identity, sender, testTemplate, logger.NewNoOpLogger())

	result, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Sent)
	assert.Equal(t, 1, result.Failed)

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "bob@example.com", sender.sent[0].to)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Edge Cases
// ==========================

func TestService_Run_MissingDescriptionUsesPlaceholder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	scheduledAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, scheduled_at, user_id, task_kind_id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "scheduled_at", "user_id", "task_kind_id"}).
			AddRow(int64(1), scheduledAt, "user-1", int64(77)))

	mock.ExpectQuery(`SELECT auth_id, display_name FROM users WHERE id = \$1`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"auth_id", "display_name"}).
			AddRow("kc-1", "Alice"))

	mock.ExpectQuery(`SELECT description FROM task_kinds WHERE id = \$1`).
		WithArgs(int64(77)).
		WillReturnError(errors.New("sql: no rows in result set"))

	identity := &fakeIdentity{accounts: map[string]*auth.Account{
		"kc-1": {ID: "kc-1", Email: "alice@example.com"},
	}}
	sender := &fakeSender{}

	svc := NewService(createTestConfig(), db, identity, sender, testTemplate, logger.NewNoOpLogger())

	result, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].body, "task #77")
}

func TestService_Run_MissingDisplayNameSendsUnaddressed(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	scheduledAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT id, scheduled_at, user_id, task_kind_id`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "scheduled_at", "user_id", "task_kind_id"}).
			AddRow(int64(1), scheduledAt, "user-1", int64(10)))

	mock.ExpectQuery(`SELECT auth_id, display_name FROM users WHERE id = \$1`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"auth_id", "display_name"}).
			AddRow("kc-1", nil))

	mock.ExpectQuery(`SELECT description FROM task_kinds WHERE id = \$1`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"description"}).
			AddRow("Check pH"))

	identity := &fakeIdentity{accounts: map[string]*auth.Account{
		"kc-1": {ID: "kc-1", Email: "alice@example.com"},
	}}
	sender := &fakeSender{}

	svc := NewService(createTestConfig(), db, identity, sender, testTemplate, logger.NewNoOpLogger())

	result, err := svc.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].body, "Hello , reminder")
}
