// internal/handlers/notify-managers/service.go
package notifymanagers

import (
	"context"
	"database/sql"
	"fmt"

	"aquacare/internal/common/auth"
	"aquacare/internal/common/errors"
	"aquacare/internal/common/logger"
	"aquacare/internal/common/metrics"
	"aquacare/internal/models"
)

// IdentityDirectory lists accounts holding a given realm role.
type IdentityDirectory interface {
	ListUsersByRole(ctx context.Context, role string) ([]auth.Account, error)
}

// EmailSender delivers a single HTML email.
type EmailSender interface {
	SendHTML(ctx context.Context, to, from, subject, htmlBody string) error
}

// SMSSender publishes a text message to a phone number.
type SMSSender interface {
	PublishSMS(ctx context.Context, phoneNumber, message string) error
}

type Service struct {
	config   *Config
	db       *sql.DB
	identity IdentityDirectory
	email    EmailSender
	sms      SMSSender
	logger   logger.Logger
}

func NewService(cfg *Config, db *sql.DB, identity IdentityDirectory, email EmailSender, sms SMSSender, log logger.Logger) *Service {
	return &Service{
		config:   cfg,
		db:       db,
		identity: identity,
		email:    email,
		sms:      sms,
		logger:   log,
	}
}

const (
	aquariumQuery = `SELECT id, name, sick_fish_count FROM aquariums WHERE id = $1`
	diseaseQuery  = `SELECT id, name, severity, treatment FROM diseases WHERE id = $1`
	phoneQuery    = `SELECT phone FROM users WHERE auth_id = $1`
)

// Execute notifies every manager account about a disease detected in an
// aquarium. Individual delivery failures are logged and do not stop the
// fan-out; only lookup failures abort the run.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	aquarium, err := s.loadAquarium(ctx, input.AquariumID)
	if err != nil {
		return nil, err
	}
	disease, err := s.loadDisease(ctx, input.DiseaseID)
	if err != nil {
		return nil, err
	}

	managers, err := s.identity.ListUsersByRole(ctx, s.config.ManagerRole)
	if err != nil {
		return nil, errors.NewExternalServiceError("keycloak", err)
	}

	subject := fmt.Sprintf("Disease alert: %s in %s", disease.Name, aquarium.Name)
	body := buildAlertBody(aquarium, disease)
	smsText := fmt.Sprintf("AquaCare alert: %s (%s) detected in aquarium %q.", disease.Name, disease.Severity, aquarium.Name)

	notified := 0
	for _, manager := range managers {
		if s.notifyManager(ctx, manager, subject, body, smsText, disease.Severity) {
			notified++
		}
	}

	s.logger.Info("manager notification fan-out complete", map[string]interface{}{
		"aquarium_id": aquarium.ID,
		"disease_id":  disease.ID,
		"severity":    disease.Severity,
		"managers":    len(managers),
		"notified":    notified,
	})

	return &Output{Message: MsgManagersNotified, Notified: notified}, nil
}

func (s *Service) notifyManager(ctx context.Context, manager auth.Account, subject, body, smsText, severity string) bool {
	if manager.Email == "" {
		s.logger.Warn("manager account has no email, skipping", map[string]interface{}{
			"account_id": manager.ID,
		})
		metrics.ManagerNotifications.WithLabelValues("email", "skipped").Inc()
		return false
	}

	delivered := false
	if s.config.EmailEnabled {
		if err := s.email.SendHTML(ctx, manager.Email, s.config.FromEmail, subject, body); err != nil {
			s.logger.Error("failed to email manager", map[string]interface{}{
				"account_id": manager.ID,
				"error":      err.Error(),
			})
			metrics.ManagerNotifications.WithLabelValues("email", "error").Inc()
		} else {
			metrics.ManagerNotifications.WithLabelValues("email", "ok").Inc()
			delivered = true
		}
	}

	if severity == models.SeverityCritical && s.config.SMSEnabled {
		s.sendSMS(ctx, manager, smsText)
	}
	return delivered
}

func (s *Service) sendSMS(ctx context.Context, manager auth.Account, text string) {
	phone, ok, err := s.lookupPhone(ctx, manager.ID)
	if err != nil {
		s.logger.Error("failed to look up manager phone", map[string]interface{}{
			"account_id": manager.ID,
			"error":      err.Error(),
		})
		metrics.ManagerNotifications.WithLabelValues("sms", "error").Inc()
		return
	}
	if !ok {
		metrics.ManagerNotifications.WithLabelValues("sms", "skipped").Inc()
		return
	}

	if err := s.sms.PublishSMS(ctx, phone, text); err != nil {
		s.logger.Error("failed to send manager SMS", map[string]interface{}{
			"account_id": manager.ID,
			"error":      err.Error(),
		})
		metrics.ManagerNotifications.WithLabelValues("sms", "error").Inc()
		return
	}
	metrics.ManagerNotifications.WithLabelValues("sms", "ok").Inc()
}

func (s *Service) loadAquarium(ctx context.Context, id int64) (*models.Aquarium, error) {
	var aquarium models.Aquarium
	err := s.db.QueryRowContext(ctx, aquariumQuery, id).Scan(&aquarium.ID, &aquarium.Name, &aquarium.SickFishCount)
	if err == sql.ErrNoRows {
		return nil, errors.NewResourceNotFoundError(errors.ErrCodeAquariumNotFound, fmt.Sprintf("aquarium %d not found", id))
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("failed to load aquarium", err)
	}
	return &aquarium, nil
}

func (s *Service) loadDisease(ctx context.Context, id int64) (*models.Disease, error) {
	var disease models.Disease
	err := s.db.QueryRowContext(ctx, diseaseQuery, id).Scan(&disease.ID, &disease.Name, &disease.Severity, &disease.Treatment)
	if err == sql.ErrNoRows {
		return nil, errors.NewResourceNotFoundError(errors.ErrCodeDiseaseNotFound, fmt.Sprintf("disease %d not found", id))
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("failed to load disease", err)
	}
	return &disease, nil
}

// lookupPhone returns the phone number stored for the account, with ok
// reporting whether a usable number exists.
func (s *Service) lookupPhone(ctx context.Context, authID string) (string, bool, error) {
	var phone sql.NullString
	err := s.db.QueryRowContext(ctx, phoneQuery, authID).Scan(&phone)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if !phone.Valid || phone.String == "" {
		return "", false, nil
	}
	return phone.String, true, nil
}

func buildAlertBody(aquarium *models.Aquarium, disease *models.Disease) string {
	return fmt.Sprintf(
		`<html><body>
<h2>Disease alert</h2>
<p><strong>%s</strong> (severity: %s) has been detected in aquarium <strong>%s</strong>.</p>
<p>Recommended treatment: %s</p>
<p>Sick fish currently recorded: %d</p>
</body></html>`,
		disease.Name, disease.Severity, aquarium.Name, disease.Treatment, aquarium.SickFishCount,
	)
}
