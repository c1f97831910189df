//go:build !swagger

package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSwaggerNotMountedWithoutTag(t *testing.T) {
	rec := httptest.NewRecorder()
	NewMux(&mockService{}, testInfo).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without the swagger tag, got %d", rec.Code)
	}
}
