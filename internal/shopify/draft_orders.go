package shopify

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/ikyum/shopbridge/internal/domain"
	apperrors "github.com/ikyum/shopbridge/pkg/errors"
)

// DraftOrderInput is the writable subset of a draft order
type DraftOrderInput struct {
	LineItems       []domain.LineItem       `json:"line_items,omitempty"`
	Customer        *DraftOrderCustomerRef  `json:"customer,omitempty"`
	ShippingAddress *domain.CustomerAddress `json:"shipping_address,omitempty"`
	BillingAddress  *domain.CustomerAddress `json:"billing_address,omitempty"`
	AppliedDiscount *AppliedDiscount        `json:"applied_discount,omitempty"`
	Currency        string                  `json:"currency,omitempty"`
	Note            string                  `json:"note,omitempty"`
	Tags            string                  `json:"tags,omitempty"`
	UseCustomerDefaultAddress bool          `json:"use_customer_default_address,omitempty"`
}

// DraftOrderCustomerRef links a draft order to an existing customer
type DraftOrderCustomerRef struct {
	ID int64 `json:"id"`
}

// AppliedDiscount is an order-level discount on a draft order
type AppliedDiscount struct {
	Description string `json:"description,omitempty"`
	Value       string `json:"value,omitempty"`
	ValueType   string `json:"value_type,omitempty"`
	Amount      string `json:"amount,omitempty"`
	Title       string `json:"title,omitempty"`
}

type draftOrderEnvelope struct {
	DraftOrder *draftOrderPayload `json:"draft_order"`
}

type draftOrdersEnvelope struct {
	DraftOrders []draftOrderPayload `json:"draft_orders"`
}

// draftOrderPayload is the upstream draft order plus the two shapes the API
// has used for the completed-order link across versions: a top-level
// order_id and a nested order object. normalize resolves them into one.
type draftOrderPayload struct {
	domain.DraftOrder
	Order *struct {
		ID int64 `json:"id"`
	} `json:"order,omitempty"`
}

func (p *draftOrderPayload) normalize() domain.DraftOrder {
	d := p.DraftOrder
	if d.OrderID == nil && p.Order != nil && p.Order.ID != 0 {
		id := p.Order.ID
		d.OrderID = &id
	}
	return d
}

// CreateDraftOrder creates a draft order upstream. Not idempotent; retry
// safety lives at the HTTP boundary.
func (c *Client) CreateDraftOrder(ctx context.Context, input DraftOrderInput) (*domain.DraftOrder, error) {
	var resp draftOrderEnvelope
	err := c.Post(ctx, "/draft_orders.json", map[string]interface{}{"draft_order": input}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.DraftOrder == nil {
		return nil, &apperrors.ErrUpstream{StatusCode: 200, Body: "draft order create returned empty body"}
	}
	d := resp.DraftOrder.normalize()
	return &d, nil
}

// GetDraftOrder fetches a draft order by id
func (c *Client) GetDraftOrder(ctx context.Context, id int64) (*domain.DraftOrder, error) {
	var resp draftOrderEnvelope
	err := c.Get(ctx, fmt.Sprintf("/draft_orders/%d.json", id), nil, &resp)
	if err != nil {
		if IsNotFound(err) {
			return nil, &apperrors.ErrNotFound{Resource: "draft order", ID: strconv.FormatInt(id, 10)}
		}
		return nil, err
	}
	if resp.DraftOrder == nil {
		return nil, &apperrors.ErrNotFound{Resource: "draft order", ID: strconv.FormatInt(id, 10)}
	}
	d := resp.DraftOrder.normalize()
	return &d, nil
}

// ListDraftOrders lists draft orders, optionally filtered by status
func (c *Client) ListDraftOrders(ctx context.Context, status string, limit int) ([]domain.DraftOrder, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", status)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	var resp draftOrdersEnvelope
	if err := c.Get(ctx, "/draft_orders.json", query, &resp); err != nil {
		return nil, err
	}
	out := make([]domain.DraftOrder, 0, len(resp.DraftOrders))
	for i := range resp.DraftOrders {
		out = append(out, resp.DraftOrders[i].normalize())
	}
	return out, nil
}

// UpdateDraftOrder updates a draft order in place
func (c *Client) UpdateDraftOrder(ctx context.Context, id int64, input DraftOrderInput) (*domain.DraftOrder, error) {
	var resp draftOrderEnvelope
	err := c.Put(ctx, fmt.Sprintf("/draft_orders/%d.json", id), nil, map[string]interface{}{"draft_order": input}, &resp)
	if err != nil {
		if IsNotFound(err) {
			return nil, &apperrors.ErrNotFound{Resource: "draft order", ID: strconv.FormatInt(id, 10)}
		}
		return nil, err
	}
	if resp.DraftOrder == nil {
		return nil, &apperrors.ErrNotFound{Resource: "draft order", ID: strconv.FormatInt(id, 10)}
	}
	d := resp.DraftOrder.normalize()
	return &d, nil
}

// DeleteDraftOrder deletes a draft order. Completed drafts are rejected by
// upstream; that guard is deliberately not duplicated here.
func (c *Client) DeleteDraftOrder(ctx context.Context, id int64) error {
	err := c.Delete(ctx, fmt.Sprintf("/draft_orders/%d.json", id))
	if err != nil && IsNotFound(err) {
		return &apperrors.ErrNotFound{Resource: "draft order", ID: strconv.FormatInt(id, 10)}
	}
	return err
}

// CompleteDraftOrder issues the completion call, converting the draft into
// a real order
func (c *Client) CompleteDraftOrder(ctx context.Context, id int64, paymentPending bool) (*domain.DraftOrder, error) {
	query := url.Values{}
	if paymentPending {
		query.Set("payment_pending", "true")
	}
	var resp draftOrderEnvelope
	err := c.Put(ctx, fmt.Sprintf("/draft_orders/%d/complete.json", id), query, nil, &resp)
	if err != nil {
		if IsNotFound(err) {
			return nil, &apperrors.ErrNotFound{Resource: "draft order", ID: strconv.FormatInt(id, 10)}
		}
		return nil, err
	}
	if resp.DraftOrder == nil {
		return nil, &apperrors.ErrUpstream{StatusCode: 200, Body: "draft order complete returned empty body"}
	}
	d := resp.DraftOrder.normalize()
	return &d, nil
}
