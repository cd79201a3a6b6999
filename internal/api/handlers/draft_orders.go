package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ikyum/shopbridge/internal/service"
	"github.com/ikyum/shopbridge/internal/shopify"
	apperrors "github.com/ikyum/shopbridge/pkg/errors"
)

func parseDraftID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// HandleCreateDraftOrder handles POST /create-draft-order
func HandleCreateDraftOrder(drafts *service.DraftOrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req service.CreateDraftOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, start, &apperrors.ErrValidation{Message: "invalid JSON body: " + err.Error()})
			return
		}

		draft, err := drafts.Create(c.Request.Context(), req)
		if err != nil {
			respondError(c, start, err)
			return
		}

		// Upstream may omit the computed prices on a freshly created draft;
		// the subtotal here is derived from the line items either way.
		respond(c, start, http.StatusOK, gin.H{
			"success":          true,
			"draft_id":         draft.ID,
			"invoice_url":      draft.InvoiceURL,
			"status":           draft.Status,
			"line_items_count": len(draft.LineItems),
			"subtotal":         draft.Subtotal().StringFixed(2),
			"draft_order":      draft,
		})
	}
}

type completeDraftOrderRequest struct {
	DraftID        int64  `json:"draft_id"`
	InvoiceURL     string `json:"invoice_url,omitempty"`
	PaymentPending bool   `json:"payment_pending,omitempty"`
}

// HandleCompleteDraftOrder handles POST /complete-draft-order
func HandleCompleteDraftOrder(drafts *service.DraftOrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req completeDraftOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, start, &apperrors.ErrValidation{Message: "invalid JSON body: " + err.Error()})
			return
		}

		result, err := drafts.Complete(c.Request.Context(), req.DraftID, service.CompleteOptions{
			InvoiceURL:     req.InvoiceURL,
			PaymentPending: req.PaymentPending,
		})
		if err != nil {
			respondError(c, start, err)
			return
		}

		payload := gin.H{
			"success":  true,
			"order_id": result.OrderID,
			"draft_id": result.DraftID,
		}
		if result.AlreadyCompleted {
			payload["already_completed"] = true
		}
		if result.CompletedAt != nil {
			payload["completed_at"] = result.CompletedAt
		}
		if result.InvoiceURL != "" {
			payload["invoice_url"] = result.InvoiceURL
		}
		if result.Order != nil {
			payload["order"] = result.Order
		}
		respond(c, start, http.StatusOK, payload)
	}
}

type canCompleteRequest struct {
	DraftID int64 `json:"draft_id"`
}

// HandleCanCompleteDraftOrder handles POST /can-complete-draft-order
func HandleCanCompleteDraftOrder(drafts *service.DraftOrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req canCompleteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, start, &apperrors.ErrValidation{Message: "invalid JSON body: " + err.Error()})
			return
		}

		ok, reason, err := drafts.CanComplete(c.Request.Context(), req.DraftID)
		if err != nil {
			respondError(c, start, err)
			return
		}

		payload := gin.H{"can_complete": ok}
		if reason != "" {
			payload["reason"] = reason
		}
		respond(c, start, http.StatusOK, payload)
	}
}

// HandleListDraftOrders handles GET /draft-orders
func HandleListDraftOrders(drafts *service.DraftOrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		limit := 0
		if raw := c.Query("limit"); raw != "" {
			limit, _ = strconv.Atoi(raw)
		}

		list, err := drafts.List(c.Request.Context(), c.Query("status"), limit)
		if err != nil {
			respondError(c, start, err)
			return
		}
		respond(c, start, http.StatusOK, gin.H{"draft_orders": list, "count": len(list)})
	}
}

// HandleGetDraftOrder handles GET /draft-orders/:id
func HandleGetDraftOrder(drafts *service.DraftOrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id, ok := parseDraftID(c)
		if !ok {
			respondError(c, start, &apperrors.ErrValidation{Message: "draft order id must be a positive integer"})
			return
		}

		draft, err := drafts.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, start, err)
			return
		}
		respond(c, start, http.StatusOK, gin.H{"draft_order": draft})
	}
}

// HandleUpdateDraftOrder handles PUT /draft-orders/:id
func HandleUpdateDraftOrder(drafts *service.DraftOrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id, ok := parseDraftID(c)
		if !ok {
			respondError(c, start, &apperrors.ErrValidation{Message: "draft order id must be a positive integer"})
			return
		}

		var input shopify.DraftOrderInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, start, &apperrors.ErrValidation{Message: "invalid JSON body: " + err.Error()})
			return
		}

		draft, err := drafts.Update(c.Request.Context(), id, input)
		if err != nil {
			respondError(c, start, err)
			return
		}
		respond(c, start, http.StatusOK, gin.H{"success": true, "draft_order": draft})
	}
}

// HandleDeleteDraftOrder handles DELETE /draft-orders/:id
func HandleDeleteDraftOrder(drafts *service.DraftOrderService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id, ok := parseDraftID(c)
		if !ok {
			respondError(c, start, &apperrors.ErrValidation{Message: "draft order id must be a positive integer"})
			return
		}

		if err := drafts.Delete(c.Request.Context(), id); err != nil {
			respondError(c, start, err)
			return
		}
		respond(c, start, http.StatusOK, gin.H{"success": true, "deleted": id})
	}
}
