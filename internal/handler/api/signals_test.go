package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	xhttp "signalforge/pkg/http"
	applogger "signalforge/pkg/logger"
)

// With persistence disabled (no store, so no evaluator) the evaluate
// route must answer cleanly instead of dereferencing a nil evaluator.
func TestEvaluate_WithoutPersistenceIsUnavailable(t *testing.T) {
	h := NewSignalsHandler(applogger.Nop(), nil, nil, time.UTC)

	e := echo.New()
	h.RegisterRoutes(e)

	req := httptest.NewRequest(http.MethodPost, "/api/evaluate", strings.NewReader(`{"id":1}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var body xhttp.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Status != http.StatusServiceUnavailable {
		t.Errorf("envelope status = %d, want %d", body.Status, http.StatusServiceUnavailable)
	}
}
