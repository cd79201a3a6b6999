package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/ikyum/shopbridge/pkg/errors"
)

func runErrorHandler(t *testing.T, err error) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	respondError(c, time.Now(), err)

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	return w, body
}

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &apperrors.ErrValidation{Message: "bad input"}, http.StatusBadRequest},
		{"not found", &apperrors.ErrNotFound{Resource: "draft order", ID: "1"}, http.StatusNotFound},
		{"invalid state", &apperrors.ErrInvalidState{Resource: "draft order", Current: "completed", Wanted: "open"}, http.StatusUnprocessableEntity},
		{"conflict", &apperrors.ErrConflict{Message: "key reuse"}, http.StatusConflict},
		{"unauthorized", &apperrors.ErrUnauthorized{Message: "bad key"}, http.StatusUnauthorized},
		{"upstream 429 resurfaced", &apperrors.ErrUpstream{StatusCode: 429, Body: "throttled"}, http.StatusTooManyRequests},
		{"upstream 422 resurfaced", &apperrors.ErrUpstream{StatusCode: 422, Body: "invalid"}, http.StatusUnprocessableEntity},
		{"upstream 200 becomes bad gateway", &apperrors.ErrUpstream{StatusCode: 200, Body: "inconsistent"}, http.StatusBadGateway},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w, body := runErrorHandler(t, tc.err)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
			if _, ok := body["processing_time_ms"]; !ok {
				t.Error("missing processing_time_ms")
			}
			if body["message"] == "" {
				t.Error("missing message")
			}
		})
	}
}

func TestRespondErrorUpstreamPayload(t *testing.T) {
	_, body := runErrorHandler(t, &apperrors.ErrUpstream{StatusCode: 404, Body: `{"errors":"Not Found"}`})
	if body["message"] != "upstream API error" {
		t.Errorf("message = %v", body["message"])
	}
	if body["upstream_status"] != float64(404) {
		t.Errorf("upstream_status = %v", body["upstream_status"])
	}
}
