package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ikyum/shopbridge/internal/config"
	"github.com/ikyum/shopbridge/internal/domain"
	"github.com/ikyum/shopbridge/internal/service"
	apperrors "github.com/ikyum/shopbridge/pkg/errors"
)

// originAllowed checks the Origin (or Referer) host against the allow-list.
// An empty allow-list accepts everything; the endpoint is unauthenticated
// by design and the honeypot is the primary spam filter.
func originAllowed(c *gin.Context, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}
	origin := c.GetHeader("Origin")
	if origin == "" {
		origin = c.GetHeader("Referer")
	}
	if origin == "" {
		return false
	}
	parsed, err := url.Parse(origin)
	if err != nil {
		return false
	}
	host := parsed.Hostname()
	for _, a := range allowed {
		if strings.EqualFold(host, a) || strings.HasSuffix(strings.ToLower(host), "."+strings.ToLower(a)) {
			return true
		}
	}
	return false
}

// HandleRegistrationSubmit handles POST /ikyum/regpro/submit. No API key:
// the route is reachable from the storefront. A filled honeypot field gets
// a fake success so bots learn nothing.
func HandleRegistrationSubmit(cfg *config.Config, registrations *service.RegistrationService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		if !originAllowed(c, cfg.API.AllowedOrigins) {
			respond(c, start, http.StatusForbidden, gin.H{"message": "origin not allowed"})
			return
		}

		var raw map[string]interface{}
		if err := c.ShouldBindJSON(&raw); err != nil {
			respondError(c, start, &apperrors.ErrValidation{Message: "invalid JSON body: " + err.Error()})
			return
		}

		if hp, ok := raw[cfg.Registration.HoneypotField].(string); ok && strings.TrimSpace(hp) != "" {
			logger.Info("Registration honeypot tripped", zap.String("ip", c.ClientIP()))
			respond(c, start, http.StatusOK, gin.H{"success": true})
			return
		}

		data := &domain.RegistrationData{
			Company:       stringField(raw, "company"),
			FirstName:     stringField(raw, "first_name"),
			LastName:      stringField(raw, "last_name"),
			Email:         stringField(raw, "email"),
			Phone:         stringField(raw, "phone"),
			Address1:      stringField(raw, "address1"),
			Address2:      stringField(raw, "address2"),
			City:          stringField(raw, "city"),
			Zip:           stringField(raw, "zip"),
			Country:       stringField(raw, "country"),
			VATNumber:     stringField(raw, "vat_number"),
			Message:       stringField(raw, "message"),
			AcceptsTerms:  boolField(raw, "accepts_terms"),
			AcceptsEmails: boolField(raw, "accepts_emails"),
		}

		result, err := registrations.Submit(c.Request.Context(), data)
		if err != nil {
			respondError(c, start, err)
			return
		}

		respond(c, start, http.StatusOK, gin.H{
			"success":                 true,
			"submission_id":           result.SubmissionID,
			"staff_email_sent":        result.StaffEmailSent,
			"confirmation_email_sent": result.ConfirmationEmailSent,
			"customer_synced":         result.CustomerSynced,
		})
	}
}

func stringField(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func boolField(m map[string]interface{}, key string) bool {
	switch v := m[key].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "1" || v == "on" || v == "yes"
	default:
		return false
	}
}
