package tariffs

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, s *Service) *httptest.Server {
	mux := http.NewServeMux()
	RegisterRoutes(mux, s)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestHandleScrapeRejectsWhileRunning(t *testing.T) {
	s := newTestService(Config{})
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()
	srv := newTestServer(t, s)

	resp, err := http.Get(srv.URL + "/api/scrape?provider=turkcell")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	var body scrapeResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.False(t, body.Success)
	require.Equal(t, "a scrape is already running", body.Message)
}

func TestHandleTariffs(t *testing.T) {
	s := newTestService(Config{})
	s.mu.Lock()
	s.runs["vodafone"] = &Run{
		Status:    StatusCompleted,
		Message:   "3 tariffs extracted for vodafone",
		Timestamp: time.Now(),
	}
	s.mu.Unlock()
	srv := newTestServer(t, s)

	resp, err := http.Get(srv.URL + "/api/tariffs")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var snap StatusSnapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	require.Equal(t, StatusCompleted, snap.Status)
	require.Contains(t, snap.Providers, "vodafone")
}

func TestHandleDownload(t *testing.T) {
	t.Run("missing report", func(t *testing.T) {
		s := newTestService(Config{OutputFile: filepath.Join(t.TempDir(), "yok.xlsx")})
		srv := newTestServer(t, s)

		resp, err := http.Get(srv.URL + "/api/download")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("existing report", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "tarifeler.xlsx")
		require.NoError(t, os.WriteFile(path, []byte("stub"), 0o644))
		s := newTestService(Config{OutputFile: path})
		srv := newTestServer(t, s)

		resp, err := http.Get(srv.URL + "/api/download")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, xlsxContentType, resp.Header.Get("Content-Type"))
		require.Equal(t, `attachment; filename="tarifeler.xlsx"`, resp.Header.Get("Content-Disposition"))
	})
}
