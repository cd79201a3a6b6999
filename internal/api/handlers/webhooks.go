package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ikyum/shopbridge/internal/config"
	"github.com/ikyum/shopbridge/internal/service"
)

// ShopifyHmacHeader carries the webhook signature
const ShopifyHmacHeader = "X-Shopify-Hmac-Sha256"

func verifyShopifyHMAC(secret string, body []byte, header string) bool {
	if secret == "" || header == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write(body)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	// constant-time compare
	return hmac.Equal([]byte(expected), []byte(strings.TrimSpace(header)))
}

// HandleCustomerSyncWebhook handles POST /sync-customer-data, the target of
// the customers/create and customers/update subscriptions. Business-logic
// failures still answer 200 so Shopify does not amplify transient local
// problems into retry storms; only transport and signature failures get an
// error status.
func HandleCustomerSyncWebhook(cfg *config.Config, sync *service.CustomerSyncService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Shopify computes the HMAC over the raw bytes
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			respond(c, start, http.StatusBadRequest, gin.H{"message": "failed to read body"})
			return
		}

		secret := strings.TrimSpace(cfg.Shopify.WebhookSecret)
		if secret == "" {
			// Fail-open is deliberate for development setups; a production
			// deployment must configure SHOPIFY_WEBHOOK_SECRET.
			logger.Warn("Webhook signature verification skipped: no secret configured")
		} else if !verifyShopifyHMAC(secret, body, c.GetHeader(ShopifyHmacHeader)) {
			respond(c, start, http.StatusUnauthorized, gin.H{"message": "invalid webhook signature"})
			return
		}

		result := sync.HandleWebhook(c.Request.Context(), body)
		if !result.Success {
			logger.Warn("Customer sync webhook did not fully apply",
				zap.Int64("customer_id", result.CustomerID),
				zap.String("reason", result.Reason),
				zap.String("topic", c.GetHeader("X-Shopify-Topic")),
			)
		}

		payload := gin.H{"success": result.Success}
		if result.Message != "" {
			payload["message"] = result.Message
		}
		if result.Reason != "" {
			payload["reason"] = result.Reason
		}
		if result.CustomerID != 0 {
			payload["customer_id"] = result.CustomerID
		}
		if result.Company != nil {
			payload["company"] = result.Company
		}
		if result.VAT != nil {
			payload["vat"] = result.VAT
		}
		respond(c, start, http.StatusOK, payload)
	}
}
