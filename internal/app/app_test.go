package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/five82/portfolio-finder/internal/config"
	"github.com/five82/portfolio-finder/internal/finder"
	"github.com/five82/portfolio-finder/internal/logging"
	"github.com/five82/portfolio-finder/internal/pam"
	"github.com/five82/portfolio-finder/internal/session"
	"github.com/five82/portfolio-finder/internal/state"
	"github.com/five82/portfolio-finder/internal/task"
)

func newPlatform(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var searches atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token": "tok", "token_type": "Bearer", "expires_in": 3600}`))
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		searches.Add(1)
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"portfolioHeaders": [{"id": "p1", "name": "One"}, {"id": "p2", "name": "Two"}]}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &searches
}

func testConfig(baseURL string) config.Config {
	cfg := config.Default()
	cfg.Session.AppKey = "key"
	cfg.Session.Username = "user"
	cfg.Session.Password = "pass"
	cfg.Session.TokenURL = baseURL + "/token"
	cfg.Session.Timeout = 5 * time.Second
	cfg.Search.Endpoint = baseURL + "/search"
	cfg.Search.RateLimit = 0
	return cfg
}

func await(t *testing.T, ch <-chan task.Result[finder.Outcome]) task.Result[finder.Outcome] {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("search did not finish")
		return task.Result[finder.Outcome]{}
	}
}

func TestSessionDefinitionMapsConfig(t *testing.T) {
	cfg := testConfig("http://platform")
	def := sessionDefinition(cfg.Session)
	require.Equal(t, "key", def.AppKey)
	require.Equal(t, "user", def.Username)
	require.Equal(t, "http://platform/token", def.TokenURL)
	require.Equal(t, cfg.Session.Scopes, def.Scopes)
	require.Equal(t, 5*time.Second, def.Timeout)
	require.NoError(t, def.Validate())
}

func TestControllerConnectsThenSearches(t *testing.T) {
	server, searches := newPlatform(t)
	c := newController(testConfig(server.URL), server.Client(), logging.Silent())

	ch, err := c.Submit(context.Background(), pam.Criteria{Query: "one"})
	require.NoError(t, err)
	res := await(t, ch)
	require.NoError(t, res.Err)
	require.True(t, res.Value.Connected)
	require.Len(t, res.Value.Headers, 2)
	require.Equal(t, state.Connected, c.Phase())
	require.NotNil(t, session.Default(), "connected session becomes the default")

	ch, err = c.Submit(context.Background(), pam.Criteria{})
	require.NoError(t, err)
	res = await(t, ch)
	require.NoError(t, res.Err)
	require.False(t, res.Value.Connected, "second search reuses the session")
	require.EqualValues(t, 2, searches.Load())
}

func TestControllerReportsMissingCredentials(t *testing.T) {
	server, searches := newPlatform(t)
	cfg := testConfig(server.URL)
	cfg.Session.AppKey = ""

	c := newController(cfg, server.Client(), logging.Silent())
	ch, err := c.Submit(context.Background(), pam.Criteria{})
	require.NoError(t, err)
	res := await(t, ch)

	var connectErr *finder.ConnectError
	require.ErrorAs(t, res.Err, &connectErr)
	require.Contains(t, res.Err.Error(), "Failed to connect. ")
	require.Equal(t, state.Error, c.Phase())
	require.Zero(t, searches.Load())
}
