package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ikyum/shopbridge/internal/domain"
	"github.com/ikyum/shopbridge/internal/shopify"
	apperrors "github.com/ikyum/shopbridge/pkg/errors"
)

// DraftOrderService drives a draft order from creation to a confirmed
// order, guarding status preconditions. Create is not idempotent by itself;
// retry safety for it lives in the idempotency middleware. Complete is
// semantically idempotent: re-completing a finished draft returns the
// already-linked order.
type DraftOrderService struct {
	client *shopify.Client
	logger *zap.Logger
}

// NewDraftOrderService creates a new draft order service
func NewDraftOrderService(client *shopify.Client, logger *zap.Logger) *DraftOrderService {
	return &DraftOrderService{
		client: client,
		logger: logger,
	}
}

// CreateDraftOrderRequest carries the inputs for Create
type CreateDraftOrderRequest struct {
	CustomerID      int64                    `json:"customer_id"`
	LineItems       []domain.LineItem        `json:"line_items"`
	Currency        string                   `json:"currency,omitempty"`
	Note            string                   `json:"note,omitempty"`
	Tags            string                   `json:"tags,omitempty"`
	ShippingAddress *domain.CustomerAddress  `json:"shipping_address,omitempty"`
	BillingAddress  *domain.CustomerAddress  `json:"billing_address,omitempty"`
	Discount        *shopify.AppliedDiscount `json:"discount,omitempty"`
	UseCustomerDefaultAddress bool           `json:"use_customer_default_address,omitempty"`
}

func (r *CreateDraftOrderRequest) validate() error {
	if r.CustomerID <= 0 {
		return &apperrors.ErrValidation{Message: "customer_id is required and must be positive"}
	}
	if len(r.LineItems) == 0 {
		return &apperrors.ErrValidation{Message: "line_items must not be empty"}
	}
	for i, item := range r.LineItems {
		if item.Title == "" {
			return &apperrors.ErrValidation{Message: fmt.Sprintf("line_items[%d].title is required", i)}
		}
		if item.Quantity <= 0 {
			return &apperrors.ErrValidation{Message: fmt.Sprintf("line_items[%d].quantity must be positive", i)}
		}
		// A variant id lets Shopify fill canonical pricing; otherwise a
		// price is required on custom items.
		if item.Price == "" && item.VariantID == nil {
			return &apperrors.ErrValidation{Message: fmt.Sprintf("line_items[%d].price is required without variant_id", i)}
		}
	}
	return nil
}

// Create creates a draft order upstream and returns its snapshot including
// the invoice URL
func (s *DraftOrderService) Create(ctx context.Context, req CreateDraftOrderRequest) (*domain.DraftOrder, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	input := shopify.DraftOrderInput{
		LineItems:       req.LineItems,
		Customer:        &shopify.DraftOrderCustomerRef{ID: req.CustomerID},
		Currency:        req.Currency,
		Note:            req.Note,
		Tags:            req.Tags,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
		AppliedDiscount: req.Discount,
		UseCustomerDefaultAddress: req.UseCustomerDefaultAddress,
	}

	draft, err := s.client.CreateDraftOrder(ctx, input)
	if err != nil {
		s.logger.Error("Failed to create draft order",
			zap.Int64("customer_id", req.CustomerID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("Draft order created",
		zap.Int64("draft_id", draft.ID),
		zap.Int64("customer_id", req.CustomerID),
		zap.Int("line_items", len(draft.LineItems)),
	)
	return draft, nil
}

// CompleteOptions are the optional inputs for Complete
type CompleteOptions struct {
	// InvoiceURL is only used for a soft consistency check; a mismatch is
	// logged, never blocking.
	InvoiceURL     string `json:"invoice_url,omitempty"`
	PaymentPending bool   `json:"payment_pending,omitempty"`
}

// CompletionResult is the outcome of Complete
type CompletionResult struct {
	OrderID          int64         `json:"order_id"`
	DraftID          int64         `json:"draft_id"`
	CompletedAt      *time.Time    `json:"completed_at,omitempty"`
	InvoiceURL       string        `json:"invoice_url,omitempty"`
	AlreadyCompleted bool          `json:"already_completed,omitempty"`
	Order            *domain.Order `json:"order,omitempty"`
}

// Complete converts a draft order into a real order. Completing an
// already-completed draft is treated as success and returns the linked
// order without issuing the completion call again.
func (s *DraftOrderService) Complete(ctx context.Context, draftID int64, opts CompleteOptions) (*CompletionResult, error) {
	if draftID <= 0 {
		return nil, &apperrors.ErrValidation{Message: "draft_id is required and must be positive"}
	}

	draft, err := s.client.GetDraftOrder(ctx, draftID)
	if err != nil {
		return nil, err
	}

	if opts.InvoiceURL != "" && draft.InvoiceURL != "" && opts.InvoiceURL != draft.InvoiceURL {
		s.logger.Warn("Invoice URL mismatch on completion",
			zap.Int64("draft_id", draftID),
			zap.String("provided", opts.InvoiceURL),
			zap.String("current", draft.InvoiceURL),
		)
	}

	if draft.Status == domain.DraftOrderStatusCompleted {
		if draft.OrderID == nil {
			// Upstream invariant broken: completed drafts must carry an
			// order link. Surface it rather than report a phantom success.
			return nil, &apperrors.ErrUpstream{
				StatusCode: 200,
				Body:       fmt.Sprintf("draft order %d is completed but has no linked order", draftID),
			}
		}
		result := &CompletionResult{
			OrderID:          *draft.OrderID,
			DraftID:          draftID,
			CompletedAt:      draft.CompletedAt,
			InvoiceURL:       draft.InvoiceURL,
			AlreadyCompleted: true,
		}
		result.Order = s.fetchOrderBestEffort(ctx, *draft.OrderID)
		s.logger.Info("Draft order already completed, returning linked order",
			zap.Int64("draft_id", draftID),
			zap.Int64("order_id", *draft.OrderID),
		)
		return result, nil
	}

	if !draft.Status.Completable() {
		return nil, &apperrors.ErrInvalidState{
			Resource: "draft order",
			Current:  string(draft.Status),
			Wanted:   string(domain.DraftOrderStatusCompleted),
		}
	}

	completed, err := s.client.CompleteDraftOrder(ctx, draftID, opts.PaymentPending)
	if err != nil {
		s.logger.Error("Failed to complete draft order",
			zap.Int64("draft_id", draftID),
			zap.Error(err),
		)
		return nil, err
	}

	if completed.OrderID == nil {
		// Completion reported success without linking an order; this must
		// be surfaced, not silently swallowed.
		return nil, &apperrors.ErrUpstream{
			StatusCode: 200,
			Body:       fmt.Sprintf("completion of draft order %d returned no order id", draftID),
		}
	}

	result := &CompletionResult{
		OrderID:     *completed.OrderID,
		DraftID:     draftID,
		CompletedAt: completed.CompletedAt,
		InvoiceURL:  completed.InvoiceURL,
	}
	result.Order = s.fetchOrderBestEffort(ctx, *completed.OrderID)

	s.logger.Info("Draft order completed",
		zap.Int64("draft_id", draftID),
		zap.Int64("order_id", *completed.OrderID),
	)
	return result, nil
}

// fetchOrderBestEffort fetches full order details; a failure degrades
// gracefully since the caller already has the order id
func (s *DraftOrderService) fetchOrderBestEffort(ctx context.Context, orderID int64) *domain.Order {
	order, err := s.client.GetOrder(ctx, orderID)
	if err != nil {
		s.logger.Warn("Could not fetch order details after completion",
			zap.Int64("order_id", orderID),
			zap.Error(err),
		)
		return nil
	}
	return order
}

// CanComplete checks the completion preconditions without mutating
// anything. Business-rule failures come back as (false, reason, nil);
// only transport failures return an error.
func (s *DraftOrderService) CanComplete(ctx context.Context, draftID int64) (bool, string, error) {
	draft, err := s.client.GetDraftOrder(ctx, draftID)
	if err != nil {
		if _, ok := err.(*apperrors.ErrNotFound); ok {
			return false, "draft order not found", nil
		}
		return false, "", err
	}

	if draft.Status == domain.DraftOrderStatusCompleted {
		return false, "draft order is already completed", nil
	}
	if !draft.Status.Completable() {
		return false, fmt.Sprintf("draft order status %q is not completable", draft.Status), nil
	}
	if len(draft.LineItems) == 0 {
		return false, "draft order has no line items", nil
	}
	return true, "", nil
}

// List proxies the upstream draft order listing
func (s *DraftOrderService) List(ctx context.Context, status string, limit int) ([]domain.DraftOrder, error) {
	return s.client.ListDraftOrders(ctx, status, limit)
}

// Get proxies the upstream draft order fetch
func (s *DraftOrderService) Get(ctx context.Context, draftID int64) (*domain.DraftOrder, error) {
	return s.client.GetDraftOrder(ctx, draftID)
}

// Update proxies the upstream draft order update
func (s *DraftOrderService) Update(ctx context.Context, draftID int64, input shopify.DraftOrderInput) (*domain.DraftOrder, error) {
	return s.client.UpdateDraftOrder(ctx, draftID, input)
}

// Delete proxies the upstream draft order delete. Whether a completed
// draft is deletable is left to upstream; no local guard is taken.
func (s *DraftOrderService) Delete(ctx context.Context, draftID int64) error {
	return s.client.DeleteDraftOrder(ctx, draftID)
}
