package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
)

// The mux labels requests by route pattern, so chat ids never become label
// values.
func TestMetrics_UsesRoutePattern(t *testing.T) {
	svc := newMock()
	h := NewMux(svc)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/delete_chat/98765432123", nil))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}

	body := scrape(t)
	if !bytes.Contains(body, []byte(`path="/delete_chat/{id}"`)) {
		t.Fatalf("expected route pattern label in metrics")
	}
	if bytes.Contains(body, []byte("98765432123")) {
		t.Fatalf("raw chat id leaked into metric labels")
	}
}
