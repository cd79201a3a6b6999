package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ikyum/shopbridge/internal/domain"
	"github.com/ikyum/shopbridge/internal/shopify"
	apperrors "github.com/ikyum/shopbridge/pkg/errors"
)

// customerSummary is the picker-friendly shape /list-customers returns
type customerSummary struct {
	ID      int64  `json:"id"`
	Label   string `json:"label"`
	Email   string `json:"email,omitempty"`
	Company string `json:"company,omitempty"`
	Phone   string `json:"phone,omitempty"`
}

// HandleListCustomers handles GET /list-customers
func HandleListCustomers(client *shopify.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		limit := 250
		if raw := c.Query("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 250 {
				limit = n
			}
		}

		customers, err := client.ListCustomers(c.Request.Context(), limit, c.Query("page_info"))
		if err != nil {
			respondError(c, start, err)
			return
		}

		summaries := make([]customerSummary, 0, len(customers))
		for i := range customers {
			cust := &customers[i]
			summaries = append(summaries, customerSummary{
				ID:      cust.ID,
				Label:   cust.DisplayLabel(),
				Email:   cust.Email,
				Company: cust.CanonicalCompany(),
				Phone:   cust.Phone,
			})
		}

		respond(c, start, http.StatusOK, gin.H{
			"customers": summaries,
			"count":     len(summaries),
		})
	}
}

type createCustomerRequest struct {
	Email     string                  `json:"email"`
	FirstName string                  `json:"first_name"`
	LastName  string                  `json:"last_name"`
	Phone     string                  `json:"phone,omitempty"`
	Company   string                  `json:"company,omitempty"`
	VATNumber string                  `json:"vat_number,omitempty"`
	Note      string                  `json:"note,omitempty"`
	Tags      string                  `json:"tags,omitempty"`
	Address   *domain.CustomerAddress `json:"address,omitempty"`
}

// HandleCreateCustomer handles POST /create-customer. The company and VAT
// number land directly in the structured storage (address + metafields) so
// the sync engine has nothing left to reconcile.
func HandleCreateCustomer(client *shopify.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var req createCustomerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, start, &apperrors.ErrValidation{Message: "invalid JSON body: " + err.Error()})
			return
		}
		if req.Email == "" {
			respondError(c, start, &apperrors.ErrValidation{Message: "email is required"})
			return
		}

		input := shopify.CustomerInput{
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Phone:     req.Phone,
			Note:      req.Note,
			Tags:      req.Tags,
		}

		if req.Address != nil {
			addr := *req.Address
			if addr.Company == "" {
				addr.Company = req.Company
			}
			addr.Default = true
			input.Addresses = []domain.CustomerAddress{addr}
		} else if req.Company != "" {
			input.Addresses = []domain.CustomerAddress{{Company: req.Company, Default: true}}
		}

		if req.Company != "" {
			input.Metafields = append(input.Metafields,
				domain.Metafield{Namespace: domain.MetafieldNamespace, Key: domain.MetafieldKeyCompanyName, Value: req.Company, Type: "single_line_text_field"},
				domain.Metafield{Namespace: domain.MetafieldNamespace, Key: domain.MetafieldKeyCustomerName, Value: req.Company, Type: "single_line_text_field"},
			)
		}
		if req.VATNumber != "" {
			input.Metafields = append(input.Metafields,
				domain.Metafield{Namespace: domain.MetafieldNamespace, Key: domain.MetafieldKeyVATNumber, Value: req.VATNumber, Type: "single_line_text_field"},
			)
			if req.Tags == "" {
				input.Tags = domain.VATTagPrefix + req.VATNumber
			} else {
				input.Tags = req.Tags + ", " + domain.VATTagPrefix + req.VATNumber
			}
		}

		customer, err := client.CreateCustomer(c.Request.Context(), input)
		if err != nil {
			respondError(c, start, err)
			return
		}

		logger.Info("Customer created",
			zap.Int64("customer_id", customer.ID),
			zap.String("email", customer.Email),
		)
		respond(c, start, http.StatusOK, gin.H{
			"success":     true,
			"customer_id": customer.ID,
			"label":       customer.DisplayLabel(),
			"customer":    customer,
		})
	}
}
