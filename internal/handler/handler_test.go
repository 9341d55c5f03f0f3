package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roomdesk/service-reservation/pkg/auth"
)

func TestParsePagination(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		query string
		page  int
		limit int
	}{
		{"", 1, 20},
		{"?page=3&limit=50", 3, 50},
		{"?page=0&limit=0", 1, 20},
		{"?page=-2&limit=500", 1, 100},
		{"?page=abc&limit=xyz", 1, 20},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)

			page, limit := parsePagination(c)
			assert.Equal(t, tt.page, page)
			assert.Equal(t, tt.limit, limit)
		})
	}
}

// The requests below are all rejected before a service is reached, so the
// handlers are built without one.
func newGatedRouter(jwtManager *auth.JWTManager) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("")
	NewRoomHandler(nil).RegisterRoutes(api, jwtManager)
	NewReservationHandler(nil).RegisterRoutes(api, jwtManager)
	NewAdminHandler(nil, nil).RegisterRoutes(api, jwtManager)
	return r
}

func TestRouteGating(t *testing.T) {
	jwtManager := auth.NewJWTManager("secret", time.Hour)
	router := newGatedRouter(jwtManager)

	customerID := uuid.New()
	customerToken, _, err := jwtManager.GenerateAccessToken(customerID, "cust", auth.RoleCustomer)
	require.NoError(t, err)
	adminToken, _, err := jwtManager.GenerateAccessToken(uuid.New(), "root", auth.RoleAdmin)
	require.NoError(t, err)

	otherUser := uuid.New()
	reservationBody := `{"room_id":"` + uuid.New().String() + `","user_id":"` + otherUser.String() +
		`","start_time":"2030-01-01T10:00:00","end_time":"2030-01-01T11:00:00"}`

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		body   string
		status int
	}{
		{"rooms need a token", http.MethodGet, "/api/v1/rooms", "", "", http.StatusUnauthorized},
		{"customer cannot create rooms", http.MethodPost, "/api/v1/rooms", customerToken, `{}`, http.StatusForbidden},
		{"customer cannot delete rooms", http.MethodDelete, "/api/v1/rooms/" + uuid.New().String(), customerToken, "", http.StatusForbidden},
		{"admin room id must be a uuid", http.MethodGet, "/api/v1/rooms/not-a-uuid", adminToken, "", http.StatusBadRequest},
		{"customer cannot book for others", http.MethodPost, "/api/v1/reservations", customerToken, reservationBody, http.StatusForbidden},
		{"reservation body is validated", http.MethodPost, "/api/v1/reservations", customerToken, `{"room_id":"x"}`, http.StatusBadRequest},
		{"reservation id must be a uuid", http.MethodGet, "/api/v1/reservations/42", customerToken, "", http.StatusBadRequest},
		{"customer cannot read stats", http.MethodGet, "/api/v1/admin/stats/reservations", customerToken, "", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}
