package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ikyum/shopbridge/internal/config"
	"github.com/ikyum/shopbridge/internal/service"
	"github.com/ikyum/shopbridge/internal/shopify"
)

// draftOrderRouter wires the complete endpoint against a canned upstream
func draftOrderRouter(t *testing.T, upstream http.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	logger := zap.NewNop()
	client := shopify.NewClient(config.ShopifyConfig{BaseURL: srv.URL, AccessToken: "t"}, logger)
	drafts := service.NewDraftOrderService(client, logger)

	r := gin.New()
	r.POST("/create-draft-order", HandleCreateDraftOrder(drafts, logger))
	r.POST("/complete-draft-order", HandleCompleteDraftOrder(drafts, logger))
	return r
}

func TestCreateEndpointComputesSubtotal(t *testing.T) {
	r := draftOrderRouter(t, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// Freshly created drafts can come back without computed prices.
		w.Write([]byte(`{"draft_order": {"id": 70, "status": "open", "invoice_url": "https://x/inv/70",
			"line_items": [{"title": "Carton", "quantity": 3, "price": "19.99"}]}}`))
	})

	body := `{"customer_id": 1, "line_items": [{"title": "Carton", "quantity": 3, "price": "19.99"}]}`
	req := httptest.NewRequest(http.MethodPost, "/create-draft-order", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if resp["subtotal"] != "59.97" {
		t.Errorf("subtotal = %v, want 59.97", resp["subtotal"])
	}
	if resp["line_items_count"] != float64(1) {
		t.Errorf("line_items_count = %v", resp["line_items_count"])
	}
}

func TestCompleteEndpointAlreadyCompletedShape(t *testing.T) {
	r := draftOrderRouter(t, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch req.URL.Path {
		case "/draft_orders/55.json":
			w.Write([]byte(`{"draft_order": {"id": 55, "status": "completed", "order_id": 99}}`))
		case "/orders/99.json":
			w.Write([]byte(`{"order": {"id": 99, "name": "#99"}}`))
		default:
			t.Errorf("unexpected upstream call: %s %s", req.Method, req.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	req := httptest.NewRequest(http.MethodPost, "/complete-draft-order", strings.NewReader(`{"draft_id": 55}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}
	if body["already_completed"] != true {
		t.Errorf("already_completed = %v", body["already_completed"])
	}
	if body["order_id"] != float64(99) {
		t.Errorf("order_id = %v, want 99", body["order_id"])
	}
	if _, ok := body["processing_time_ms"]; !ok {
		t.Error("missing processing_time_ms")
	}
}

func TestCompleteEndpointInvalidStateIs422(t *testing.T) {
	r := draftOrderRouter(t, func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"draft_order": {"id": 56, "status": "voided"}}`))
	})

	req := httptest.NewRequest(http.MethodPost, "/complete-draft-order", strings.NewReader(`{"draft_id": 56}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
}

func TestCompleteEndpointMissingDraftIs404(t *testing.T) {
	r := draftOrderRouter(t, func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodPost, "/complete-draft-order", strings.NewReader(`{"draft_id": 57}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}
