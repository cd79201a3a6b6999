package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ikyum/shopbridge/internal/service"
	"github.com/ikyum/shopbridge/internal/shopify"
	apperrors "github.com/ikyum/shopbridge/pkg/errors"
)

type sendOrderConfirmationRequest struct {
	OrderID int64  `json:"order_id"`
	Email   string `json:"email,omitempty"`
}

// HandleSendOrderConfirmation handles POST /send-order-confirmation
func HandleSendOrderConfirmation(client *shopify.Client, emails *service.EmailService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req sendOrderConfirmationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, start, &apperrors.ErrValidation{Message: "invalid JSON body: " + err.Error()})
			return
		}
		if req.OrderID <= 0 {
			respondError(c, start, &apperrors.ErrValidation{Message: "order_id is required and must be positive"})
			return
		}

		order, err := client.GetOrder(c.Request.Context(), req.OrderID)
		if err != nil {
			respondError(c, start, err)
			return
		}

		if err := emails.SendOrderConfirmation(req.Email, order); err != nil {
			respond(c, start, http.StatusBadGateway, gin.H{
				"message":  "email sending failed",
				"error":    err.Error(),
				"order_id": order.ID,
			})
			return
		}

		respond(c, start, http.StatusOK, gin.H{
			"success":  true,
			"order_id": order.ID,
		})
	}
}

type sendOrderEmailRequest struct {
	DraftID        int64  `json:"draft_id"`
	Email          string `json:"email,omitempty"`
	InvoiceURL     string `json:"invoice_url,omitempty"`
	PaymentPending bool   `json:"payment_pending,omitempty"`
}

// HandleSendOrderEmail handles POST /send-order-email: completion and
// confirmation mail combined. The two steps are reported individually so a
// failed mail after a successful completion is visible to the caller.
func HandleSendOrderEmail(drafts *service.DraftOrderService, client *shopify.Client, emails *service.EmailService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req sendOrderEmailRequest
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
			"success":   true,
			"order_id":  result.OrderID,
			"draft_id":  result.DraftID,
			"completed": true,
		}
		if result.AlreadyCompleted {
			payload["already_completed"] = true
		}

		order := result.Order
		if order == nil {
			// Completion succeeded earlier but the detail fetch failed;
			// retry it once for the email.
			order, err = client.GetOrder(c.Request.Context(), result.OrderID)
			if err != nil {
				logger.Warn("Could not fetch order for confirmation email",
					zap.Int64("order_id", result.OrderID),
					zap.Error(err),
				)
			}
		}

		if order == nil {
			payload["email_sent"] = false
			payload["email_error"] = "order details unavailable"
			respond(c, start, http.StatusOK, payload)
			return
		}

		if mailErr := emails.SendOrderConfirmation(req.Email, order); mailErr != nil {
			payload["email_sent"] = false
			payload["email_error"] = mailErr.Error()
		} else {
			payload["email_sent"] = true
		}

		respond(c, start, http.StatusOK, payload)
	}
}
