package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func brotliEngine(body string, chunks int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Brotli())
	r.GET("/body", func(c *gin.Context) {
		c.Header("Content-Type", "text/plain")
		c.Status(http.StatusOK)
		size := len(body) / chunks
		for i := 0; i < chunks; i++ {
			end := (i + 1) * size
			if i == chunks-1 {
				end = len(body)
			}
			_, _ = c.Writer.WriteString(body[i*size : end])
		}
	})
	return r
}

func get(r *gin.Engine, acceptEncoding string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/body", nil)
	if acceptEncoding != "" {
		req.Header.Set("Accept-Encoding", acceptEncoding)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBrotliCompressesLargeBodies(t *testing.T) {
	body := strings.Repeat("1. Question text? [A] [B] [C] [D]\n", 200)

	testCases := []struct {
		name   string
		chunks int
	}{
		{"single write", 1},
		{"writes after the threshold", 40},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := get(brotliEngine(body, tc.chunks), "gzip, br")

			assert.Equal(t, "br", w.Header().Get("Content-Encoding"))
			assert.Equal(t, "Accept-Encoding", w.Header().Get("Vary"))
			assert.Less(t, w.Body.Len(), len(body))

			plain, err := io.ReadAll(brotli.NewReader(w.Body))
			require.NoError(t, err)
			assert.Equal(t, body, string(plain))
		})
	}
}

func TestBrotliLeavesSmallBodiesPlain(t *testing.T) {
	w := get(brotliEngine("short", 1), "br")

	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, "short", w.Body.String())
}

func TestBrotliRespectsAcceptEncoding(t *testing.T) {
	body := strings.Repeat("x", 4096)

	for _, accept := range []string{"", "gzip", "br;q=0"} {
		w := get(brotliEngine(body, 1), accept)
		assert.Empty(t, w.Header().Get("Content-Encoding"), accept)
		assert.Equal(t, body, w.Body.String(), accept)
	}
}

func TestAcceptsBrotli(t *testing.T) {
	assert.True(t, acceptsBrotli("br"))
	assert.True(t, acceptsBrotli("gzip, deflate, BR;q=1.0"))
	assert.False(t, acceptsBrotli("gzip"))
	assert.False(t, acceptsBrotli("br; q=0"))
}
