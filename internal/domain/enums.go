package domain

// DraftOrderStatus represents the lifecycle status of a Shopify draft order
type DraftOrderStatus string

const (
	// OPEN - draft created, invoice not yet sent
	DraftOrderStatusOpen DraftOrderStatus = "open"
	// INVOICE_SENT - invoice emailed to the customer, still completable
	DraftOrderStatusInvoiceSent DraftOrderStatus = "invoice_sent"
	// COMPLETED - converted into a real order; terminal
	DraftOrderStatusCompleted DraftOrderStatus = "completed"
)

// IsValid checks if the draft order status is one Shopify can report
func (s DraftOrderStatus) IsValid() bool {
	switch s {
	case DraftOrderStatusOpen, DraftOrderStatusInvoiceSent, DraftOrderStatusCompleted:
		return true
	default:
		return false
	}
}

// Completable reports whether a completion call is legal from this status
func (s DraftOrderStatus) Completable() bool {
	return s == DraftOrderStatusOpen || s == DraftOrderStatusInvoiceSent
}

// CanTransitionTo checks if a status transition is valid. Draft orders only
// move forward: open -> invoice_sent -> completed, and completed is terminal.
func (s DraftOrderStatus) CanTransitionTo(newStatus DraftOrderStatus) bool {
	switch s {
	case DraftOrderStatusOpen:
		return newStatus == DraftOrderStatusInvoiceSent || newStatus == DraftOrderStatusCompleted
	case DraftOrderStatusInvoiceSent:
		return newStatus == DraftOrderStatusCompleted
	case DraftOrderStatusCompleted:
		return false // Terminal state
	default:
		return false
	}
}
