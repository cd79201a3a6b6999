package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ikyum/shopbridge/internal/domain"
	"github.com/ikyum/shopbridge/internal/shopify"
	apperrors "github.com/ikyum/shopbridge/pkg/errors"
)

// RegistrationService handles professional registration form submissions:
// two emails go out, and when the applicant already exists as a customer
// their company/VAT data is reconciled through the sync engine.
type RegistrationService struct {
	client *shopify.Client
	emails *EmailService
	sync   *CustomerSyncService
	logger *zap.Logger
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(client *shopify.Client, emails *EmailService, sync *CustomerSyncService, logger *zap.Logger) *RegistrationService {
	return &RegistrationService{
		client: client,
		emails: emails,
		sync:   sync,
		logger: logger,
	}
}

// RegistrationResult reports each sub-step of a submission. Email sending
// is best-effort per leg: one failed mail does not cancel the other.
type RegistrationResult struct {
	SubmissionID          string         `json:"submission_id"`
	StaffEmailSent        bool           `json:"staff_email_sent"`
	ConfirmationEmailSent bool           `json:"confirmation_email_sent"`
	CustomerSynced        bool           `json:"customer_synced"`
	SyncResult            *WebhookResult `json:"sync_result,omitempty"`
}

// Submit processes one registration form submission
func (s *RegistrationService) Submit(ctx context.Context, data *domain.RegistrationData) (*RegistrationResult, error) {
	if data.Company == "" {
		return nil, &apperrors.ErrValidation{Message: "company is required"}
	}
	if data.Email == "" {
		return nil, &apperrors.ErrValidation{Message: "email is required"}
	}
	if !data.AcceptsTerms {
		return nil, &apperrors.ErrValidation{Message: "terms must be accepted"}
	}

	result := &RegistrationResult{SubmissionID: uuid.New().String()}

	if err := s.emails.SendRegistrationNotification(data); err != nil {
		s.logger.Error("Registration: staff email failed",
			zap.String("submission_id", result.SubmissionID),
			zap.Error(err),
		)
	} else {
		result.StaffEmailSent = true
	}

	if err := s.emails.SendRegistrationConfirmation(data); err != nil {
		s.logger.Error("Registration: confirmation email failed",
			zap.String("submission_id", result.SubmissionID),
			zap.Error(err),
		)
	} else {
		result.ConfirmationEmailSent = true
	}

	s.syncExistingCustomer(ctx, data, result)

	s.logger.Info("Registration processed",
		zap.String("submission_id", result.SubmissionID),
		zap.String("company", data.Company),
		zap.Bool("staff_email", result.StaffEmailSent),
		zap.Bool("confirmation_email", result.ConfirmationEmailSent),
		zap.Bool("customer_synced", result.CustomerSynced),
	)
	return result, nil
}

// syncExistingCustomer looks the applicant up by email and, when found,
// runs the same note-driven sync the webhooks use
func (s *RegistrationService) syncExistingCustomer(ctx context.Context, data *domain.RegistrationData, result *RegistrationResult) {
	customers, err := s.client.SearchCustomers(ctx, fmt.Sprintf("email:%s", data.Email))
	if err != nil {
		s.logger.Warn("Registration: customer lookup failed",
			zap.String("email", data.Email),
			zap.Error(err),
		)
		return
	}
	if len(customers) == 0 {
		return
	}

	customer := &customers[0]
	note := domain.NoteData{
		"company":    data.Company,
		"address1":   data.Address1,
		"vat_number": data.VATNumber,
	}

	sync := &WebhookResult{Success: true, CustomerID: customer.ID}
	sync.Company = s.sync.SyncCompany(ctx, customer, note)
	sync.VAT = s.sync.ProcessVAT(ctx, customer, note)
	result.CustomerSynced = true
	result.SyncResult = sync

	// Persist the soft fields on the note too so a later webhook replays
	// the same merge.
	if raw, err := json.Marshal(note); err == nil {
		if _, err := s.client.UpdateCustomer(ctx, customer.ID, shopify.CustomerInput{Note: string(raw)}); err != nil {
			s.logger.Warn("Registration: note update failed",
				zap.Int64("customer_id", customer.ID),
				zap.Error(err),
			)
		}
	}
}
