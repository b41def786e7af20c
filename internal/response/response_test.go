package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/ok", func(c *gin.Context) { Success(c, http.StatusOK, gin.H{"answered": 1}) })
	r.GET("/fail", func(c *gin.Context) {
		FailWithDetail(c, http.StatusBadGateway, ErrUpstreamRejected, "invalid session")
	})
	return r
}

func TestSuccessEnvelopeCarriesRequestID(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Nil(t, body.Error)
	assert.Equal(t, w.Header().Get("X-Request-ID"), body.Metadata.RequestID)
	_, err := uuid.Parse(body.Metadata.RequestID)
	assert.NoError(t, err)
}

func TestFailEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	incoming := uuid.New().String()
	req.Header.Set("X-Request-ID", incoming)
	newEngine().ServeHTTP(w, req)

	require.Equal(t, http.StatusBadGateway, w.Code)
	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.Error)
	assert.Equal(t, ErrUpstreamRejected, body.Error.Code)
	assert.Equal(t, "invalid session", body.Error.Detail)
	assert.Equal(t, incoming, body.Metadata.RequestID)
}

func TestRequestIDMiddlewareReplacesGarbage(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set("X-Request-ID", "not\na uuid")
	newEngine().ServeHTTP(w, req)

	_, err := uuid.Parse(w.Header().Get("X-Request-ID"))
	assert.NoError(t, err)
}
