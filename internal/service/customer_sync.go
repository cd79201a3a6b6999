package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ikyum/shopbridge/internal/domain"
	"github.com/ikyum/shopbridge/internal/shopify"
)

// CustomerSyncService reconciles "soft" customer data (note field, webhook
// payloads) into Shopify's structured address and metafield storage. Every
// write sub-step is wrapped individually: the engine makes as much progress
// as possible and reports partial failures instead of aborting.
type CustomerSyncService struct {
	client *shopify.Client
	logger *zap.Logger
}

// NewCustomerSyncService creates a new customer sync service
func NewCustomerSyncService(client *shopify.Client, logger *zap.Logger) *CustomerSyncService {
	return &CustomerSyncService{
		client: client,
		logger: logger,
	}
}

// CompanySyncResult reports what SyncCompany did
type CompanySyncResult struct {
	Applied           bool   `json:"applied"`
	Company           string `json:"company,omitempty"`
	AddressCreated    bool   `json:"address_created,omitempty"`
	AddressUpdated    bool   `json:"address_updated,omitempty"`
	MetafieldsWritten int    `json:"metafields_written"`
	Reason            string `json:"reason,omitempty"`
	Errors            []string `json:"errors,omitempty"`
}

// VATSyncResult reports what ProcessVAT did
type VATSyncResult struct {
	Applied          bool   `json:"applied"`
	VATNumber        string `json:"vat_number,omitempty"`
	MetafieldWritten bool   `json:"metafield_written,omitempty"`
	TagAdded         bool   `json:"tag_added,omitempty"`
	Reason           string `json:"reason,omitempty"`
	Errors           []string `json:"errors,omitempty"`
}

// WebhookResult is what HandleWebhook returns. It never carries a Go error
// outward: business failures become Success=false with a reason, so a
// transient local problem can not turn into an upstream retry storm.
type WebhookResult struct {
	Success    bool               `json:"success"`
	Message    string             `json:"message,omitempty"`
	Reason     string             `json:"reason,omitempty"`
	CustomerID int64              `json:"customer_id,omitempty"`
	Company    *CompanySyncResult `json:"company,omitempty"`
	VAT        *VATSyncResult     `json:"vat,omitempty"`
}

// SyncCompany computes the canonical company name and pushes it into the
// customer's address and company metafields. Priority: note, existing
// address company, company metafields (legacy key read last). Returns a
// no-op result when no source yields a value.
func (s *CustomerSyncService) SyncCompany(ctx context.Context, customer *domain.Customer, note domain.NoteData) *CompanySyncResult {
	result := &CompanySyncResult{}

	// The namespace metafields drive both the priority merge and the
	// upsert; fetch once. A fetch failure only disables the metafield leg.
	metafields, mfErr := s.client.ListCustomerMetafields(ctx, customer.ID, domain.MetafieldNamespace)
	if mfErr != nil {
		s.logger.Warn("Could not fetch customer metafields",
			zap.Int64("customer_id", customer.ID),
			zap.Error(mfErr),
		)
		result.Errors = append(result.Errors, "metafield fetch failed")
	} else {
		customer.Metafields = metafields
	}

	canonical := note.Company()
	if canonical == "" {
		canonical = customer.CanonicalCompany()
	}
	if canonical == "" {
		result.Reason = "no-company-data"
		return result
	}
	result.Applied = true
	result.Company = canonical

	s.syncAddressCompany(ctx, customer, note, canonical, result)

	if mfErr == nil {
		for _, key := range []string{domain.MetafieldKeyCompanyName, domain.MetafieldKeyCustomerName} {
			written, err := s.upsertMetafield(ctx, customer.ID, customer.Metafields, key, canonical)
			if err != nil {
				s.logger.Warn("Company metafield upsert failed",
					zap.Int64("customer_id", customer.ID),
					zap.String("key", key),
					zap.Error(err),
				)
				result.Errors = append(result.Errors, fmt.Sprintf("metafield %s upsert failed", key))
				continue
			}
			if written {
				result.MetafieldsWritten++
			}
		}
	}

	return result
}

// syncAddressCompany updates or creates the customer's canonical address so
// its company field matches the canonical value
func (s *CustomerSyncService) syncAddressCompany(ctx context.Context, customer *domain.Customer, note domain.NoteData, canonical string, result *CompanySyncResult) {
	target := customer.DefaultAddress
	if target == nil && len(customer.Addresses) > 0 {
		target = &customer.Addresses[0]
	}

	if target == nil {
		addr := domain.CustomerAddress{
			Company:   canonical,
			Address1:  note.Address1(),
			FirstName: customer.FirstName,
			LastName:  customer.LastName,
		}
		if _, err := s.client.CreateCustomerAddress(ctx, customer.ID, addr); err != nil {
			s.logger.Warn("Address create failed",
				zap.Int64("customer_id", customer.ID),
				zap.Error(err),
			)
			result.Errors = append(result.Errors, "address create failed")
			return
		}
		result.AddressCreated = true
		return
	}

	if strings.TrimSpace(target.Company) == canonical {
		return
	}

	updated := *target
	updated.Company = canonical
	if a1 := note.Address1(); a1 != "" && updated.Address1 == "" {
		updated.Address1 = a1
	}
	if _, err := s.client.UpdateCustomerAddress(ctx, customer.ID, target.ID, updated); err != nil {
		s.logger.Warn("Address update failed",
			zap.Int64("customer_id", customer.ID),
			zap.Int64("address_id", target.ID),
			zap.Error(err),
		)
		result.Errors = append(result.Errors, "address update failed")
		return
	}
	result.AddressUpdated = true
}

// ProcessVAT upserts the vat_number metafield and ensures a single TVA:
// tag. An existing TVA: tag is never replaced, even when a different VAT
// number arrives.
func (s *CustomerSyncService) ProcessVAT(ctx context.Context, customer *domain.Customer, note domain.NoteData) *VATSyncResult {
	result := &VATSyncResult{}

	vat := note.VATNumber()
	if vat == "" {
		result.Reason = "no-vat-data"
		return result
	}
	result.Applied = true
	result.VATNumber = vat

	metafields, err := s.client.ListCustomerMetafields(ctx, customer.ID, domain.MetafieldNamespace)
	if err != nil {
		s.logger.Warn("Could not fetch customer metafields for VAT",
			zap.Int64("customer_id", customer.ID),
			zap.Error(err),
		)
		result.Errors = append(result.Errors, "metafield fetch failed")
	} else {
		written, upErr := s.upsertMetafield(ctx, customer.ID, metafields, domain.MetafieldKeyVATNumber, vat)
		if upErr != nil {
			s.logger.Warn("VAT metafield upsert failed",
				zap.Int64("customer_id", customer.ID),
				zap.Error(upErr),
			)
			result.Errors = append(result.Errors, "vat metafield upsert failed")
		} else {
			result.MetafieldWritten = written
		}
	}

	if customer.HasTagWithPrefix(domain.VATTagPrefix) {
		s.logger.Info("Customer already carries a VAT tag, leaving it untouched",
			zap.Int64("customer_id", customer.ID),
		)
		return result
	}

	tags := strings.TrimSpace(customer.Tags)
	newTag := domain.VATTagPrefix + vat
	if tags == "" {
		tags = newTag
	} else {
		tags = tags + ", " + newTag
	}
	if _, err := s.client.UpdateCustomer(ctx, customer.ID, shopify.CustomerInput{Tags: tags}); err != nil {
		s.logger.Warn("VAT tag update failed",
			zap.Int64("customer_id", customer.ID),
			zap.Error(err),
		)
		result.Errors = append(result.Errors, "vat tag update failed")
		return result
	}
	result.TagAdded = true
	customer.Tags = tags
	return result
}

// upsertMetafield applies the duplicate-safe upsert: find by key in the
// already-fetched namespace list; update when the value differs, no-op when
// it matches, create when absent. Returns whether a write call was made.
func (s *CustomerSyncService) upsertMetafield(ctx context.Context, customerID int64, existing []domain.Metafield, key, value string) (bool, error) {
	for _, mf := range existing {
		if mf.Namespace != domain.MetafieldNamespace || mf.Key != key {
			continue
		}
		if strings.TrimSpace(mf.Value) == value {
			return false, nil
		}
		if _, err := s.client.UpdateCustomerMetafield(ctx, customerID, mf.ID, value); err != nil {
			return false, err
		}
		return true, nil
	}

	_, err := s.client.CreateCustomerMetafield(ctx, customerID, domain.Metafield{
		Namespace: domain.MetafieldNamespace,
		Key:       key,
		Value:     value,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// HandleWebhook is the entry point for Shopify customer webhooks and the
// registration flow. The webhook payload may be partial or stale, so the
// customer is always re-fetched before syncing.
func (s *CustomerSyncService) HandleWebhook(ctx context.Context, payload []byte) *WebhookResult {
	var body struct {
		ID int64 `json:"id"`
	}
	// Malformed payloads are treated like pings rather than failed
	// deliveries.
	_ = json.Unmarshal(payload, &body)

	if body.ID == 0 {
		return &WebhookResult{Success: true, Message: "Webhook ping received"}
	}

	customer, err := s.client.GetCustomer(ctx, body.ID)
	if err != nil {
		s.logger.Warn("Webhook: customer fetch failed",
			zap.Int64("customer_id", body.ID),
			zap.Error(err),
		)
		return &WebhookResult{Success: false, Reason: "customer-fetch-failed", CustomerID: body.ID}
	}

	note := domain.ParseNote(customer.Note)
	if !note.HasSyncFields() {
		return &WebhookResult{
			Success:    true,
			Message:    "No sync fields in customer note",
			CustomerID: customer.ID,
		}
	}

	result := &WebhookResult{Success: true, CustomerID: customer.ID}
	result.Company = s.SyncCompany(ctx, customer, note)
	result.VAT = s.ProcessVAT(ctx, customer, note)
	return result
}
