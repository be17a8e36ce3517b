package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	coreHealth "github.com/sipeat/sipeat-events/pkg/core/health"
	"github.com/sipeat/sipeat-events/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(readiness coreHealth.Readiness) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	registerHealthRoutes(r, newHealthHandler(readiness, events.NewTopics("", "", "", "")))
	return r
}

func TestLiveEndpoint(t *testing.T) {
	router := newTestRouter(coreHealth.NewReadiness(zap.NewNop()))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alive", rec.Body.String())
}

func TestReadyEndpointNotReady(t *testing.T) {
	readiness := coreHealth.NewReadiness(zap.NewNop())
	readiness.AddComponent("kafka-producer")
	router := newTestRouter(readiness)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp readyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Ready)
	require.Len(t, resp.Components, 1)
	assert.Equal(t, "kafka-producer", resp.Components[0].Name)
	assert.Contains(t, resp.Topics, events.DefaultContactTopic)
	assert.Contains(t, resp.Topics, events.DefaultDiscordTopic)
}

func TestReadyEndpointReady(t *testing.T) {
	readiness := coreHealth.NewReadiness(zap.NewNop())
	readiness.AddComponent("kafka-producer")
	readiness.MarkReady("kafka-producer")
	router := newTestRouter(readiness)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp readyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Ready)
	assert.Len(t, resp.Topics, 4)
}
