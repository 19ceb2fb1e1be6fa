package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/H2RkawaNinja/dashboard/handlers"
	"github.com/H2RkawaNinja/dashboard/middlewares"
	"github.com/H2RkawaNinja/dashboard/models"
	"github.com/H2RkawaNinja/dashboard/testsupport"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type apiClient struct {
	t      *testing.T
	router *gin.Engine
}

func newAPI(t *testing.T, limiter *middlewares.LoginLimiter) *apiClient {
	t.Helper()
	testsupport.Setup(t)
	r := gin.New()
	r.Use(middlewares.CorrelationId())
	handlers.RegisterRoutes(r, limiter)
	return &apiClient{t: t, router: r}
}

func (a *apiClient) do(method string, path string, body any, token string) *httptest.ResponseRecorder {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("token", token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// session creates a member and returns a live session token for it.
func (a *apiClient) session(username string, opts ...testsupport.MemberOption) (*models.Member, string) {
	a.t.Helper()
	member := testsupport.CreateMember(a.t, username, "secret", opts...)
	token, err := models.CreateSession(member)
	require.NoError(a.t, err)
	return member, token
}

// boss is a Boss with every stored grant set.
func (a *apiClient) boss() (*models.Member, string) {
	a.t.Helper()
	return a.session("boss", testsupport.WithRank(models.RankBoss), testsupport.WithGrants(true, true, true, true))
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoErrorf(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return out
}

func requireError(t *testing.T, w *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	require.Equalf(t, status, w.Code, "body: %s", w.Body.String())
	require.Equal(t, message, decode(t, w)["error"])
}

func requireOK(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	require.Equalf(t, http.StatusOK, w.Code, "body: %s", w.Body.String())
	return decode(t, w)
}
