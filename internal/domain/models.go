package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// MetafieldNamespace is the namespace holding the company/VAT metafields
const MetafieldNamespace = "custom"

const (
	MetafieldKeyCompanyName  = "company_name"
	MetafieldKeyCustomerName = "customer_name"
	MetafieldKeyVATNumber    = "vat_number"
	// MetafieldKeyCompanyLegacy is a misspelled key written by an old
	// theme script; read as a fallback, never written.
	MetafieldKeyCompanyLegacy = "custome_name"
)

// VATTagPrefix marks the customer tag carrying the VAT number
const VATTagPrefix = "TVA:"

// DraftOrder represents a not-yet-committed order on the shop
type DraftOrder struct {
	ID            int64            `json:"id"`
	Status        DraftOrderStatus `json:"status"`
	LineItems     []LineItem       `json:"line_items"`
	CustomerID    int64            `json:"customer_id,omitempty"`
	InvoiceURL    string           `json:"invoice_url,omitempty"`
	Currency      string           `json:"currency,omitempty"`
	SubtotalPrice string           `json:"subtotal_price,omitempty"`
	TotalPrice    string           `json:"total_price,omitempty"`
	TotalTax      string           `json:"total_tax,omitempty"`
	Tags          string           `json:"tags,omitempty"`
	Note          string           `json:"note,omitempty"`
	OrderID       *int64           `json:"order_id,omitempty"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at,omitempty"`
	UpdatedAt     time.Time        `json:"updated_at,omitempty"`
}

// Completed reports whether the draft has been converted into an order.
// Invariant: status completed and a linked order id come together.
func (d *DraftOrder) Completed() bool {
	return d.Status == DraftOrderStatusCompleted && d.OrderID != nil
}

// Subtotal sums line item prices times quantities. Shopify sends prices as
// decimal strings; unparseable prices count as zero.
func (d *DraftOrder) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range d.LineItems {
		total = total.Add(item.Total())
	}
	return total
}

// LineItem is one line of a draft order or order
type LineItem struct {
	ID        int64  `json:"id,omitempty"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	Price     string `json:"price,omitempty"`
	VariantID *int64 `json:"variant_id,omitempty"`
	SKU       string `json:"sku,omitempty"`
	Taxable   *bool  `json:"taxable,omitempty"`
}

// Total returns price * quantity
func (li LineItem) Total() decimal.Decimal {
	price, err := decimal.NewFromString(li.Price)
	if err != nil {
		return decimal.Zero
	}
	return price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Order is the immutable record created by completing a draft order.
// Read-only from this service's perspective.
type Order struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name,omitempty"`
	Email             string     `json:"email,omitempty"`
	CustomerID        int64      `json:"customer_id,omitempty"`
	LineItems         []LineItem `json:"line_items,omitempty"`
	Currency          string     `json:"currency,omitempty"`
	TotalPrice        string     `json:"total_price,omitempty"`
	FinancialStatus   string     `json:"financial_status,omitempty"`
	FulfillmentStatus string     `json:"fulfillment_status,omitempty"`
	CreatedAt         time.Time  `json:"created_at,omitempty"`
}

// Subtotal sums line item prices times quantities, for orders where
// upstream omitted total_price
func (o *Order) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.LineItems {
		total = total.Add(item.Total())
	}
	return total
}

// Customer mirrors the Shopify customer with the fields this service reads
type Customer struct {
	ID             int64             `json:"id"`
	Email          string            `json:"email,omitempty"`
	FirstName      string            `json:"first_name,omitempty"`
	LastName       string            `json:"last_name,omitempty"`
	Phone          string            `json:"phone,omitempty"`
	Note           string            `json:"note,omitempty"`
	Tags           string            `json:"tags,omitempty"`
	DefaultAddress *CustomerAddress  `json:"default_address,omitempty"`
	Addresses      []CustomerAddress `json:"addresses,omitempty"`
	// Metafields are not delivered inline by the REST customer payload;
	// they are fetched separately and attached by the sync engine.
	Metafields []Metafield `json:"-"`
}

// FullName joins first and last name
func (c *Customer) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
}

// DisplayLabel returns the best human label for pickers and lists.
// Priority: default-address company, full name, email, "Client {id}".
func (c *Customer) DisplayLabel() string {
	if c.DefaultAddress != nil && strings.TrimSpace(c.DefaultAddress.Company) != "" {
		return strings.TrimSpace(c.DefaultAddress.Company)
	}
	if name := c.FullName(); name != "" {
		return name
	}
	if c.Email != "" {
		return c.Email
	}
	return fmt.Sprintf("Client %d", c.ID)
}

// CanonicalCompany returns the company name this service treats as
// authoritative among the structured sources. Priority: default-address
// company, any address company, company metafields (legacy key last).
func (c *Customer) CanonicalCompany() string {
	if c.DefaultAddress != nil {
		if v := strings.TrimSpace(c.DefaultAddress.Company); v != "" {
			return v
		}
	}
	for _, addr := range c.Addresses {
		if v := strings.TrimSpace(addr.Company); v != "" {
			return v
		}
	}
	for _, key := range []string{MetafieldKeyCompanyName, MetafieldKeyCustomerName, MetafieldKeyCompanyLegacy} {
		if mf := c.FindMetafield(MetafieldNamespace, key); mf != nil {
			if v := strings.TrimSpace(mf.Value); v != "" {
				return v
			}
		}
	}
	return ""
}

// VATNumber returns the VAT number, note first, then the metafield
func (c *Customer) VATNumber() string {
	if v := ParseNote(c.Note).VATNumber(); v != "" {
		return v
	}
	if mf := c.FindMetafield(MetafieldNamespace, MetafieldKeyVATNumber); mf != nil {
		return strings.TrimSpace(mf.Value)
	}
	return ""
}

// FindMetafield returns the attached metafield for namespace/key, or nil
func (c *Customer) FindMetafield(namespace, key string) *Metafield {
	for i := range c.Metafields {
		if c.Metafields[i].Namespace == namespace && c.Metafields[i].Key == key {
			return &c.Metafields[i]
		}
	}
	return nil
}

// HasTagWithPrefix reports whether any comma-separated tag starts with prefix
func (c *Customer) HasTagWithPrefix(prefix string) bool {
	for _, tag := range strings.Split(c.Tags, ",") {
		if strings.HasPrefix(strings.TrimSpace(tag), prefix) {
			return true
		}
	}
	return false
}

// CustomerAddress is one postal address. At most one address per customer
// carries Default=true; the upstream API enforces that, not this service.
type CustomerAddress struct {
	ID        int64  `json:"id,omitempty"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address1,omitempty"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city,omitempty"`
	Province  string `json:"province,omitempty"`
	Zip       string `json:"zip,omitempty"`
	Country   string `json:"country,omitempty"`
	Phone     string `json:"phone,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Default   bool   `json:"default,omitempty"`
}

// Metafield is a namespaced key/value attached to a customer
type Metafield struct {
	ID        int64  `json:"id,omitempty"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
	Type      string `json:"type,omitempty"`
}

// Webhook is an upstream webhook subscription
type Webhook struct {
	ID      int64  `json:"id,omitempty"`
	Topic   string `json:"topic"`
	Address string `json:"address"`
	Format  string `json:"format,omitempty"`
}

// RegistrationData is a professional-registration form submission. It is
// never persisted here beyond the outgoing emails.
type RegistrationData struct {
	Company       string `json:"company"`
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address1      string `json:"address1"`
	Address2      string `json:"address2"`
	City          string `json:"city"`
	Zip           string `json:"zip"`
	Country       string `json:"country"`
	VATNumber     string `json:"vat_number"`
	Message       string `json:"message"`
	AcceptsTerms  bool   `json:"accepts_terms"`
	AcceptsEmails bool   `json:"accepts_emails"`
}

// CSVRecord returns the submission as one CSV row (see CSVHeader for order)
func (r *RegistrationData) CSVRecord() []string {
	return []string{
		r.Company, r.FirstName, r.LastName, r.Email, r.Phone,
		r.Address1, r.Address2, r.City, r.Zip, r.Country,
		r.VATNumber, r.Message,
		boolToCSV(r.AcceptsTerms), boolToCSV(r.AcceptsEmails),
	}
}

// CSVHeader returns the column names matching CSVRecord
func CSVHeader() []string {
	return []string{
		"company", "first_name", "last_name", "email", "phone",
		"address1", "address2", "city", "zip", "country",
		"vat_number", "message", "accepts_terms", "accepts_emails",
	}
}

func boolToCSV(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
