package sickfish

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aquacare/internal/common/logger"
	notifymanagers "aquacare/internal/handlers/notify-managers"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeAlerts struct {
	calls []notifymanagers.Input
	err   error
}

func (f *fakeAlerts) Execute(_ context.Context, input *notifymanagers.Input) (*notifymanagers.Output, error) {
	f.calls = append(f.calls, *input)
	if f.err != nil {
		return nil, f.err
	}
	return &notifymanagers.Output{Message: notifymanagers.MsgManagersNotified, Notified: 1}, nil
}

func expectLookups(mock sqlmock.Sqlmock, severity string) {
	mock.ExpectQuery(`SELECT severity FROM diseases WHERE id = \$1`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"severity"}).AddRow(severity))
	mock.ExpectQuery(`SELECT id FROM aquariums WHERE id = \$1`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))
}

func expectRecordTx(mock sqlmock.Sqlmock, fishCount, newTotal int) {
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO aquarium_diseases`).
		WithArgs(int64(5), int64(9), fishCount).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(100)))
	mock.ExpectQuery(`UPDATE aquariums SET sick_fish_count = sick_fish_count \+ \$1 WHERE id = \$2 RETURNING sick_fish_count`).
		WithArgs(fishCount, int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"sick_fish_count"}).AddRow(newTotal))
	mock.ExpectCommit()
}

// ==========================
// Core Functionality Tests
// ==========================

func TestService_Record_StoresOccurrenceAndBumpsCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectLookups(mock, "moderate")
	expectRecordTx(mock, 3, 7)

	alerts := &fakeAlerts{}
	svc := NewService(db, alerts, logger.NewNoOpLogger())

	output, err := svc.Record(context.Background(), 5, &Input{DiseaseID: 9, FishCount: 3})

	require.NoError(t, err)
	assert.Equal(t, MsgOccurrenceRecorded, output.Message)
	assert.Equal(t, int64(5), output.AquariumID)
	assert.Equal(t, 7, output.SickFishCount)
	assert.Empty(t, alerts.calls, "non-critical severity must not escalate")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Record_DefaultsFishCountToOne(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectLookups(mock, "low")
	expectRecordTx(mock, 1, 1)

	svc := NewService(db, &fakeAlerts{}, logger.NewNoOpLogger())

	output, err := svc.Record(context.Background(), 5, &Input{DiseaseID: 9})

	require.NoError(t, err)
	assert.Equal(t, 1, output.SickFishCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_Record_CriticalSeverityEscalates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectLookups(mock, "critical")
	expectRecordTx(mock, 2, 2)

	alerts := &fakeAlerts{}
	svc := NewService(db, alerts, logger.NewNoOpLogger())

	output, err := svc.Record(context.Background(), 5, &Input{DiseaseID: 9, FishCount: 2})

	require.NoError(t, err)
	require.Len(t, alerts.calls, 1)
	assert.Equal(t, notifymanagers.Input{AquariumID: 5, DiseaseID: 9}, alerts.calls[0])
	assert.Equal(t, 2, output.SickFishCount)
}

func TestService_Record_EscalationFailureDoesNotFailRequest(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectLookups(mock, "critical")
	expectRecordTx(mock, 1, 1)

	alerts := &fakeAlerts{err: errors.New("ses unavailable")}
	svc := NewService(db, alerts, logger.NewNoOpLogger())

	output, err := svc.Record(context.Background(), 5, &Input{DiseaseID: 9, FishCount: 1})

	// The occurrence is committed; the alert failure is only logged.
	require.NoError(t, err)
	assert.Equal(t, MsgOccurrenceRecorded, output.Message)
	require.Len(t, alerts.calls, 1)
}

// ==========================
// Error Path Tests
// ==========================

func TestService_Record_UnknownDisease(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT severity FROM diseases WHERE id = \$1`).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	svc := NewService(db, &fakeAlerts{}, logger.NewNoOpLogger())

	output, err := svc.Record(context.Background(), 5, &Input{DiseaseID: 404, FishCount: 1})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "DISEASE_NOT_FOUND")
	assert.Nil(t, output)
}

func TestService_Record_RollsBackOnUpdateFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	expectLookups(mock, "moderate")
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO aquarium_diseases`).
		WithArgs(int64(5), int64(9), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(100)))
	mock.ExpectQuery(`UPDATE aquariums SET sick_fish_count`).
		WithArgs(1, int64(5)).
		WillReturnError(errors.New("serialization failure"))
	mock.ExpectRollback()

	alerts := &fakeAlerts{}
	svc := NewService(db, alerts, logger.NewNoOpLogger())

	output, err := svc.Record(context.Background(), 5, &Input{DiseaseID: 9, FishCount: 1})

	assert.Error(t, err)
	assert.Nil(t, output)
	assert.Empty(t, alerts.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}
