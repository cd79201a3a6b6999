package service_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/ikyum/shopbridge/internal/config"
	"github.com/ikyum/shopbridge/internal/domain"
	"github.com/ikyum/shopbridge/internal/shopify"
)

// fakeShopify is a stateful stand-in for the Shopify Admin REST API. It
// records every call so tests can assert which upstream writes happened.
type fakeShopify struct {
	t   *testing.T
	srv *httptest.Server

	mu         sync.Mutex
	customers  map[int64]*domain.Customer
	metafields map[int64][]domain.Metafield
	drafts     map[int64]*domain.DraftOrder
	orders     map[int64]*domain.Order
	webhooks   []domain.Webhook
	calls      map[string]int

	nextID int64

	// completeOmitsOrderID makes the completion endpoint answer without an
	// order link, simulating the upstream inconsistency the coordinator
	// must surface.
	completeOmitsOrderID bool
}

var (
	reDraft         = regexp.MustCompile(`^/draft_orders/(\d+)\.json$`)
	reDraftComplete = regexp.MustCompile(`^/draft_orders/(\d+)/complete\.json$`)
	reOrder         = regexp.MustCompile(`^/orders/(\d+)\.json$`)
	reCustomer      = regexp.MustCompile(`^/customers/(\d+)\.json$`)
	reMetafields    = regexp.MustCompile(`^/customers/(\d+)/metafields\.json$`)
	reMetafield     = regexp.MustCompile(`^/customers/(\d+)/metafields/(\d+)\.json$`)
	reAddresses     = regexp.MustCompile(`^/customers/(\d+)/addresses\.json$`)
	reAddress       = regexp.MustCompile(`^/customers/(\d+)/addresses/(\d+)\.json$`)
)

func newFakeShopify(t *testing.T) *fakeShopify {
	t.Helper()
	f := &fakeShopify{
		t:          t,
		customers:  make(map[int64]*domain.Customer),
		metafields: make(map[int64][]domain.Metafield),
		drafts:     make(map[int64]*domain.DraftOrder),
		orders:     make(map[int64]*domain.Order),
		calls:      make(map[string]int),
		nextID:     1000,
	}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeShopify) client() *shopify.Client {
	return shopify.NewClient(config.ShopifyConfig{
		BaseURL:     f.srv.URL,
		AccessToken: "test-token",
	}, zap.NewNop())
}

// callCount returns how often method+pattern was hit, e.g. "PUT complete"
func (f *fakeShopify) callCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[key]
}

func (f *fakeShopify) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeShopify) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	writeJSON := func(status int, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
	notFound := func() { writeJSON(http.StatusNotFound, map[string]string{"errors": "Not Found"}) }

	switch {
	case path == "/draft_orders.json" && r.Method == http.MethodPost:
		f.calls["POST drafts"]++
		var req struct {
			DraftOrder struct {
				LineItems []domain.LineItem              `json:"line_items"`
				Customer  *shopify.DraftOrderCustomerRef `json:"customer"`
				Currency  string                         `json:"currency"`
				Tags      string                         `json:"tags"`
				Note      string                         `json:"note"`
			} `json:"draft_order"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		draft := &domain.DraftOrder{
			ID:        f.id(),
			Status:    domain.DraftOrderStatusOpen,
			LineItems: req.DraftOrder.LineItems,
			Currency:  req.DraftOrder.Currency,
			Tags:      req.DraftOrder.Tags,
			Note:      req.DraftOrder.Note,
		}
		if req.DraftOrder.Customer != nil {
			draft.CustomerID = req.DraftOrder.Customer.ID
		}
		draft.InvoiceURL = fmt.Sprintf("https://ikyum.myshopify.com/invoices/%d", draft.ID)
		f.drafts[draft.ID] = draft
		writeJSON(http.StatusCreated, map[string]interface{}{"draft_order": draft})

	case reDraft.MatchString(path):
		id := pathID(reDraft, path, 1)
		draft, ok := f.drafts[id]
		switch r.Method {
		case http.MethodGet:
			f.calls["GET draft"]++
			if !ok {
				notFound()
				return
			}
			writeJSON(http.StatusOK, map[string]interface{}{"draft_order": draft})
		case http.MethodDelete:
			f.calls["DELETE draft"]++
			if !ok {
				notFound()
				return
			}
			delete(f.drafts, id)
			writeJSON(http.StatusOK, map[string]interface{}{})
		case http.MethodPut:
			f.calls["PUT draft"]++
			if !ok {
				notFound()
				return
			}
			var req struct {
				DraftOrder struct {
					Note string `json:"note"`
					Tags string `json:"tags"`
				} `json:"draft_order"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.DraftOrder.Note != "" {
				draft.Note = req.DraftOrder.Note
			}
			if req.DraftOrder.Tags != "" {
				draft.Tags = req.DraftOrder.Tags
			}
			writeJSON(http.StatusOK, map[string]interface{}{"draft_order": draft})
		}

	case reDraftComplete.MatchString(path) && r.Method == http.MethodPut:
		f.calls["PUT complete"]++
		id := pathID(reDraftComplete, path, 1)
		draft, ok := f.drafts[id]
		if !ok {
			notFound()
			return
		}
		draft.Status = domain.DraftOrderStatusCompleted
		if !f.completeOmitsOrderID {
			orderID := f.id()
			draft.OrderID = &orderID
			f.orders[orderID] = &domain.Order{
				ID:         orderID,
				Name:       fmt.Sprintf("#%d", orderID),
				CustomerID: draft.CustomerID,
				LineItems:  draft.LineItems,
				Currency:   draft.Currency,
			}
		}
		writeJSON(http.StatusOK, map[string]interface{}{"draft_order": draft})

	case reOrder.MatchString(path) && r.Method == http.MethodGet:
		f.calls["GET order"]++
		order, ok := f.orders[pathID(reOrder, path, 1)]
		if !ok {
			notFound()
			return
		}
		writeJSON(http.StatusOK, map[string]interface{}{"order": order})

	case path == "/customers/search.json" && r.Method == http.MethodGet:
		f.calls["GET customer search"]++
		query := r.URL.Query().Get("query")
		var found []domain.Customer
		for _, c := range f.customers {
			if query == "email:"+c.Email {
				found = append(found, *c)
			}
		}
		writeJSON(http.StatusOK, map[string]interface{}{"customers": found})

	case reCustomer.MatchString(path):
		id := pathID(reCustomer, path, 1)
		customer, ok := f.customers[id]
		switch r.Method {
		case http.MethodGet:
			f.calls["GET customer"]++
			if !ok {
				notFound()
				return
			}
			writeJSON(http.StatusOK, map[string]interface{}{"customer": customer})
		case http.MethodPut:
			f.calls["PUT customer"]++
			if !ok {
				notFound()
				return
			}
			var req struct {
				Customer struct {
					Tags string `json:"tags"`
					Note string `json:"note"`
				} `json:"customer"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Customer.Tags != "" {
				customer.Tags = req.Customer.Tags
			}
			if req.Customer.Note != "" {
				customer.Note = req.Customer.Note
			}
			writeJSON(http.StatusOK, map[string]interface{}{"customer": customer})
		}

	case reMetafields.MatchString(path):
		id := pathID(reMetafields, path, 1)
		switch r.Method {
		case http.MethodGet:
			f.calls["GET metafields"]++
			list := f.metafields[id]
			if list == nil {
				list = []domain.Metafield{}
			}
			writeJSON(http.StatusOK, map[string]interface{}{"metafields": list})
		case http.MethodPost:
			f.calls["POST metafield"]++
			var req struct {
				Metafield domain.Metafield `json:"metafield"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			req.Metafield.ID = f.id()
			f.metafields[id] = append(f.metafields[id], req.Metafield)
			writeJSON(http.StatusCreated, map[string]interface{}{"metafield": req.Metafield})
		}

	case reMetafield.MatchString(path) && r.Method == http.MethodPut:
		f.calls["PUT metafield"]++
		customerID := pathID(reMetafield, path, 1)
		metafieldID := pathID(reMetafield, path, 2)
		var req struct {
			Metafield struct {
				Value string `json:"value"`
			} `json:"metafield"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		for i := range f.metafields[customerID] {
			if f.metafields[customerID][i].ID == metafieldID {
				f.metafields[customerID][i].Value = req.Metafield.Value
				writeJSON(http.StatusOK, map[string]interface{}{"metafield": f.metafields[customerID][i]})
				return
			}
		}
		notFound()

	case reAddresses.MatchString(path) && r.Method == http.MethodPost:
		f.calls["POST address"]++
		id := pathID(reAddresses, path, 1)
		customer, ok := f.customers[id]
		if !ok {
			notFound()
			return
		}
		var req struct {
			Address domain.CustomerAddress `json:"address"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		req.Address.ID = f.id()
		customer.Addresses = append(customer.Addresses, req.Address)
		if customer.DefaultAddress == nil {
			req.Address.Default = true
			customer.DefaultAddress = &req.Address
		}
		writeJSON(http.StatusCreated, map[string]interface{}{"customer_address": req.Address})

	case reAddress.MatchString(path) && r.Method == http.MethodPut:
		f.calls["PUT address"]++
		customerID := pathID(reAddress, path, 1)
		addressID := pathID(reAddress, path, 2)
		customer, ok := f.customers[customerID]
		if !ok {
			notFound()
			return
		}
		var req struct {
			Address domain.CustomerAddress `json:"address"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		for i := range customer.Addresses {
			if customer.Addresses[i].ID == addressID {
				customer.Addresses[i] = req.Address
			}
		}
		if customer.DefaultAddress != nil && customer.DefaultAddress.ID == addressID {
			customer.DefaultAddress = &req.Address
		}
		writeJSON(http.StatusOK, map[string]interface{}{"customer_address": req.Address})

	case path == "/webhooks.json":
		switch r.Method {
		case http.MethodGet:
			f.calls["GET webhooks"]++
			writeJSON(http.StatusOK, map[string]interface{}{"webhooks": f.webhookList()})
		case http.MethodPost:
			f.calls["POST webhook"]++
			var req struct {
				Webhook domain.Webhook `json:"webhook"`
			}
			_ = json.NewDecoder(r.Body).Decode(&req)
			req.Webhook.ID = f.id()
			f.webhooks = append(f.webhooks, req.Webhook)
			writeJSON(http.StatusCreated, map[string]interface{}{"webhook": req.Webhook})
		}

	default:
		f.t.Logf("fakeShopify: unhandled %s %s", r.Method, path)
		notFound()
	}
}

func (f *fakeShopify) webhookList() []domain.Webhook {
	if f.webhooks == nil {
		return []domain.Webhook{}
	}
	return f.webhooks
}

func pathID(re *regexp.Regexp, path string, group int) int64 {
	m := re.FindStringSubmatch(path)
	id, _ := strconv.ParseInt(m[group], 10, 64)
	return id
}

// addCustomer seeds a customer and returns it
func (f *fakeShopify) addCustomer(c domain.Customer) *domain.Customer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.customers[c.ID] = &c
	return &c
}

// addDraft seeds a draft order
func (f *fakeShopify) addDraft(d domain.DraftOrder) *domain.DraftOrder {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drafts[d.ID] = &d
	return &d
}

// addOrder seeds an order
func (f *fakeShopify) addOrder(o domain.Order) *domain.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[o.ID] = &o
	return &o
}

// customerMetafields returns a copy of the stored metafields
func (f *fakeShopify) customerMetafields(customerID int64) []domain.Metafield {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Metafield(nil), f.metafields[customerID]...)
}

// customer returns the stored customer
func (f *fakeShopify) customer(id int64) domain.Customer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.customers[id]
}
