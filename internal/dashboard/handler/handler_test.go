package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"tender_portal_backend/platform/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// A request that slipped past the auth middleware must stop at the identity
// check instead of dereferencing a nil identity.
func TestBindRequestRejectsMissingIdentity(t *testing.T) {
	h := New(nil, validator.New())

	endpoints := map[string]gin.HandlerFunc{
		"list reverse auction":   h.ListReverseAuction,
		"reverse auction counts": h.ReverseAuctionCounts,
		"list tq management":     h.ListTQManagement,
		"tq management counts":   h.TQManagementCounts,
	}

	for name, endpoint := range endpoints {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/dashboards/reverse-auction", nil)

			endpoint(c)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
		})
	}
}
