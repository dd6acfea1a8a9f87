package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perpwatch/pkg/response"
)

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	g := gin.New()
	NewMiddleware().Load(g)
	return g
}

func TestLoadSetsRequestId(t *testing.T) {
	g := newTestEngine()
	g.GET("/ok", func(c *gin.Context) {
		response.JSON(c, nil, gin.H{"hello": "world"})
	})

	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest("GET", "/ok", nil))

	require.Equal(t, http.StatusOK, w.Code)
	// 请求 ID 同时出现在响应头和响应体里
	reqId := w.Header().Get("X-Request-Id")
	assert.NotEmpty(t, reqId)
	assert.Contains(t, w.Body.String(), reqId)
}

func TestLoadRecoversPanic(t *testing.T) {
	g := newTestEngine()
	g.GET("/boom", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest("GET", "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestLoadAnswersOptionsPreflight(t *testing.T) {
	g := newTestEngine()

	w := httptest.NewRecorder()
	g.ServeHTTP(w, httptest.NewRequest("OPTIONS", "/anything", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
