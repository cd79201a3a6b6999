package domain

import "testing"

func TestDisplayLabelPriority(t *testing.T) {
	tests := []struct {
		name     string
		customer Customer
		want     string
	}{
		{
			name: "address company wins",
			customer: Customer{
				ID:             1,
				Email:          "a@b.c",
				FirstName:      "Jean",
				LastName:       "Dupont",
				DefaultAddress: &CustomerAddress{Company: "Optique SARL"},
			},
			want: "Optique SARL",
		},
		{
			name:     "full name next",
			customer: Customer{ID: 1, Email: "a@b.c", FirstName: "Jean", LastName: "Dupont"},
			want:     "Jean Dupont",
		},
		{
			name:     "email next",
			customer: Customer{ID: 1, Email: "a@b.c"},
			want:     "a@b.c",
		},
		{
			name:     "fallback to client id",
			customer: Customer{ID: 42},
			want:     "Client 42",
		},
		{
			name: "blank company ignored",
			customer: Customer{
				ID:             1,
				FirstName:      "Jean",
				DefaultAddress: &CustomerAddress{Company: "   "},
			},
			want: "Jean",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.customer.DisplayLabel(); got != tt.want {
				t.Errorf("DisplayLabel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCanonicalCompanyPriority(t *testing.T) {
	customer := Customer{
		ID:             1,
		DefaultAddress: &CustomerAddress{Company: "Default Co"},
		Addresses:      []CustomerAddress{{Company: "Other Co"}},
		Metafields: []Metafield{
			{Namespace: MetafieldNamespace, Key: MetafieldKeyCompanyName, Value: "Meta Co"},
		},
	}

	if got := customer.CanonicalCompany(); got != "Default Co" {
		t.Errorf("expected default address company, got %q", got)
	}

	customer.DefaultAddress = nil
	if got := customer.CanonicalCompany(); got != "Other Co" {
		t.Errorf("expected any-address company, got %q", got)
	}

	customer.Addresses = nil
	if got := customer.CanonicalCompany(); got != "Meta Co" {
		t.Errorf("expected metafield company, got %q", got)
	}
}

func TestCanonicalCompanyLegacyMetafieldKey(t *testing.T) {
	customer := Customer{
		ID: 1,
		Metafields: []Metafield{
			{Namespace: MetafieldNamespace, Key: MetafieldKeyCompanyLegacy, Value: "Legacy Co"},
		},
	}
	if got := customer.CanonicalCompany(); got != "Legacy Co" {
		t.Errorf("expected legacy metafield fallback, got %q", got)
	}
}

func TestVATNumberNoteWinsOverMetafield(t *testing.T) {
	customer := Customer{
		ID:   1,
		Note: `{"vat_number":"FR123"}`,
		Metafields: []Metafield{
			{Namespace: MetafieldNamespace, Key: MetafieldKeyVATNumber, Value: "FR999"},
		},
	}
	if got := customer.VATNumber(); got != "FR123" {
		t.Errorf("expected note VAT number to win, got %q", got)
	}

	customer.Note = ""
	if got := customer.VATNumber(); got != "FR999" {
		t.Errorf("expected metafield VAT number, got %q", got)
	}
}

func TestHasTagWithPrefix(t *testing.T) {
	customer := Customer{Tags: "pro, TVA:FR123, vip"}
	if !customer.HasTagWithPrefix(VATTagPrefix) {
		t.Error("expected TVA: tag to be detected")
	}

	customer.Tags = "pro, vip"
	if customer.HasTagWithPrefix(VATTagPrefix) {
		t.Error("did not expect a TVA: tag")
	}
}

func TestDraftOrderCompleted(t *testing.T) {
	orderID := int64(99)
	d := DraftOrder{Status: DraftOrderStatusCompleted, OrderID: &orderID}
	if !d.Completed() {
		t.Error("expected completed draft with order id to report Completed")
	}

	d.OrderID = nil
	if d.Completed() {
		t.Error("completed status without order id must not report Completed")
	}
}

func TestDraftOrderSubtotal(t *testing.T) {
	d := DraftOrder{LineItems: []LineItem{
		{Title: "Lens", Quantity: 2, Price: "19.99"},
		{Title: "Frame", Quantity: 1, Price: "50.00"},
		{Title: "Broken", Quantity: 3, Price: "not-a-price"},
	}}
	if got := d.Subtotal().StringFixed(2); got != "89.98" {
		t.Errorf("expected subtotal 89.98, got %s", got)
	}
}

func TestDraftOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from DraftOrderStatus
		to   DraftOrderStatus
		want bool
	}{
		{DraftOrderStatusOpen, DraftOrderStatusInvoiceSent, true},
		{DraftOrderStatusOpen, DraftOrderStatusCompleted, true},
		{DraftOrderStatusInvoiceSent, DraftOrderStatusCompleted, true},
		{DraftOrderStatusCompleted, DraftOrderStatusOpen, false},
		{DraftOrderStatusCompleted, DraftOrderStatusInvoiceSent, false},
		{DraftOrderStatusInvoiceSent, DraftOrderStatusOpen, false},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to); got != tt.want {
			t.Errorf("CanTransitionTo(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}

	if !DraftOrderStatusOpen.Completable() || !DraftOrderStatusInvoiceSent.Completable() {
		t.Error("open and invoice_sent must be completable")
	}
	if DraftOrderStatusCompleted.Completable() {
		t.Error("completed must not be completable")
	}
}

func TestRegistrationCSVRecordMatchesHeader(t *testing.T) {
	data := RegistrationData{Company: "Optique SARL", Email: "a@b.c", AcceptsTerms: true}
	record := data.CSVRecord()
	header := CSVHeader()
	if len(record) != len(header) {
		t.Fatalf("CSV record has %d fields, header has %d", len(record), len(header))
	}
	if record[0] != "Optique SARL" {
		t.Errorf("expected company first, got %q", record[0])
	}
	if record[len(record)-2] != "yes" {
		t.Errorf("expected accepts_terms yes, got %q", record[len(record)-2])
	}
}
