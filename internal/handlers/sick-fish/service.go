// internal/handlers/sick-fish/service.go
package sickfish

import (
	"context"
	"database/sql"
	"fmt"

	"aquacare/internal/common/errors"
	"aquacare/internal/common/logger"
	"aquacare/internal/models"

	notifymanagers "aquacare/internal/handlers/notify-managers"
)

// AlertService escalates an occurrence to the manager on duty.
type AlertService interface {
	Execute(ctx context.Context, input *notifymanagers.Input) (*notifymanagers.Output, error)
}

type Service struct {
	db     *sql.DB
	alerts AlertService
	logger logger.Logger
}

func NewService(db *sql.DB, alerts AlertService, log logger.Logger) *Service {
	return &Service{
		db:     db,
		alerts: alerts,
		logger: log,
	}
}

const (
	severityQuery    = `SELECT severity FROM diseases WHERE id = $1`
	aquariumExists   = `SELECT id FROM aquariums WHERE id = $1`
	insertOccurrence = `INSERT INTO aquarium_diseases (aquarium_id, disease_id, fish_count, detected_at) VALUES ($1, $2, $3, NOW()) RETURNING id`
	bumpSickCount    = `UPDATE aquariums SET sick_fish_count = sick_fish_count + $1 WHERE id = $2 RETURNING sick_fish_count`
)

// Record stores a disease occurrence for an aquarium and bumps its sick
// fish count in one transaction. Critical diseases additionally trigger a
// manager alert; an alert failure never rolls back the recorded occurrence.
func (s *Service) Record(ctx context.Context, aquariumID int64, input *Input) (*Output, error) {
	if input.FishCount <= 0 {
		input.FishCount = 1
	}

	severity, err := s.diseaseSeverity(ctx, input.DiseaseID)
	if err != nil {
		return nil, err
	}

	var aqID int64
	err = s.db.QueryRowContext(ctx, aquariumExists, aquariumID).Scan(&aqID)
	if err == sql.ErrNoRows {
		return nil, errors.NewResourceNotFoundError(errors.ErrCodeAquariumNotFound, fmt.Sprintf("aquarium %d not found", aquariumID))
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("failed to load aquarium", err)
	}

	occurrence, sickCount, err := s.record(ctx, aquariumID, input)
	if err != nil {
		return nil, err
	}

	s.logger.Info("disease occurrence recorded", map[string]interface{}{
		"occurrence_id":   occurrence.ID,
		"aquarium_id":     occurrence.AquariumID,
		"disease_id":      occurrence.DiseaseID,
		"fish_count":      occurrence.FishCount,
		"severity":        severity,
		"sick_fish_count": sickCount,
	})

	if severity == models.SeverityCritical {
		s.escalate(ctx, aquariumID, input.DiseaseID)
	}

	return &Output{
		Message:       MsgOccurrenceRecorded,
		AquariumID:    aquariumID,
		SickFishCount: sickCount,
	}, nil
}

func (s *Service) record(ctx context.Context, aquariumID int64, input *Input) (models.DiseaseOccurrence, int, error) {
	occurrence := models.DiseaseOccurrence{
		AquariumID: aquariumID,
		DiseaseID:  input.DiseaseID,
		FishCount:  input.FishCount,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return occurrence, 0, errors.NewQueryExecutionFailedError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := tx.QueryRowContext(ctx, insertOccurrence, occurrence.AquariumID, occurrence.DiseaseID, occurrence.FishCount).Scan(&occurrence.ID); err != nil {
		return occurrence, 0, errors.NewQueryExecutionFailedError("failed to insert disease occurrence", err)
	}

	var sickCount int
	if err := tx.QueryRowContext(ctx, bumpSickCount, occurrence.FishCount, occurrence.AquariumID).Scan(&sickCount); err != nil {
		return occurrence, 0, errors.NewQueryExecutionFailedError("failed to update sick fish count", err)
	}

	if err := tx.Commit(); err != nil {
		return occurrence, 0, errors.NewQueryExecutionFailedError("failed to commit occurrence", err)
	}
	return occurrence, sickCount, nil
}

func (s *Service) diseaseSeverity(ctx context.Context, diseaseID int64) (string, error) {
	var severity string
	err := s.db.QueryRowContext(ctx, severityQuery, diseaseID).Scan(&severity)
	if err == sql.ErrNoRows {
		return "", errors.NewResourceNotFoundError(errors.ErrCodeDiseaseNotFound, fmt.Sprintf("disease %d not found", diseaseID))
	}
	if err != nil {
		return "", errors.NewQueryExecutionFailedError("failed to load disease severity", err)
	}
	return severity, nil
}

func (s *Service) escalate(ctx context.Context, aquariumID, diseaseID int64) {
	if s.alerts == nil {
		return
	}
	_, err := s.alerts.Execute(ctx, &notifymanagers.Input{
		AquariumID: aquariumID,
		DiseaseID:  diseaseID,
	})
	if err != nil {
		s.logger.Error("manager escalation failed", map[string]interface{}{
			"aquarium_id": aquariumID,
			"disease_id":  diseaseID,
			"error":       err.Error(),
		})
	}
}
