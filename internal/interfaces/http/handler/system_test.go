package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	h := NewSystemHandler("focusvent-backend", "1.2.3", stubPinger{})
	router := gin.New()
	router.GET("/system/info", h.GetSystemInfo)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/system/info", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success bool               `json:"success"`
		Data    SystemInfoResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "focusvent-backend", resp.Data.Name)
	assert.Equal(t, "1.2.3", resp.Data.Version)
	assert.Equal(t, runtime.Version(), resp.Data.GoVersion)
	assert.NotEmpty(t, resp.Data.Uptime)
}

func TestSystemHandler_Health(t *testing.T) {
	tests := []struct {
		name           string
		pingErr        error
		expectedStatus int
		expected       HealthResponse
	}{
		{
			name:           "healthy",
			expectedStatus: http.StatusOK,
			expected:       HealthResponse{Status: "healthy", Database: "ok"},
		},
		{
			name:           "database down",
			pingErr:        errors.New("dial tcp: connection refused"),
			expectedStatus: http.StatusServiceUnavailable,
			expected:       HealthResponse{Status: "unhealthy", Database: "error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSystemHandler("focusvent-backend", "dev", stubPinger{err: tt.pingErr})
			router := gin.New()
			router.GET("/health", h.Health)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			var resp HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.expected.Status, resp.Status)
			assert.Equal(t, tt.expected.Database, resp.Database)
			assert.NotEmpty(t, resp.Time)
		})
	}
}
