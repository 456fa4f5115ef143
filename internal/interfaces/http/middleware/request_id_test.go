package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/crm/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRequestIDEngine(capture, fromContext *string) *gin.Engine {
	engine := gin.New()
	engine.Use(RequestID(zap.NewNop()))
	engine.GET("/", func(c *gin.Context) {
		*capture = GetRequestID(c)
		*fromContext = logger.GetRequestID(c.Request.Context())
		c.Status(http.StatusOK)
	})
	return engine
}

func TestRequestID(t *testing.T) {
	t.Run("generates an id when none is supplied", func(t *testing.T) {
		var captured, fromContext string
		engine := newRequestIDEngine(&captured, &fromContext)

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

		require.NotEmpty(t, captured)
		_, err := uuid.Parse(captured)
		assert.NoError(t, err)
		assert.Equal(t, captured, fromContext)
		assert.Equal(t, captured, w.Header().Get(RequestIDHeader))
	})

	t.Run("honors a caller-supplied id", func(t *testing.T) {
		var captured, fromContext string
		engine := newRequestIDEngine(&captured, &fromContext)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "caller-id-7")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, "caller-id-7", captured)
		assert.Equal(t, "caller-id-7", fromContext)
		assert.Equal(t, "caller-id-7", w.Header().Get(RequestIDHeader))
	})
}
