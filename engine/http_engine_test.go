package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/finscrape/config"
	"github.com/use-agent/finscrape/models"
)

func testFetchConfig() config.FetchConfig {
	return config.FetchConfig{
		Timeout:              5 * time.Second,
		MaxRetries:           2,
		RetryInitialInterval: time.Millisecond,
	}
}

func TestHTTPEngine_FetchMergesParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "AAPL", r.URL.Query().Get("t"))
		assert.Equal(t, "keep", r.URL.Query().Get("x"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	e := NewHTTPEngine(testFetchConfig())
	defer e.Close()

	res, err := e.Fetch(context.Background(), &FetchRequest{
		URL:    srv.URL + "/quote.ashx?x=keep",
		Params: url.Values{"t": {"AAPL"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "<html>ok</html>", string(res.Body))
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, res.FinalURL, "t=AAPL")
	assert.Equal(t, "http", res.EngineName)
}

func TestHTTPEngine_FinalURLFollowsRedirect(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new?r=21", http.StatusFound)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("moved"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	e := NewHTTPEngine(testFetchConfig())
	res, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL + "/old"})
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/new?r=21", res.FinalURL)
}

func TestHTTPEngine_ClientErrorIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	e := NewHTTPEngine(testFetchConfig())
	_, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL})
	require.Error(t, err)

	var httpErr *models.HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.ErrorIs(t, err, models.ErrTransport)
	assert.EqualValues(t, 1, hits.Load())
}

func TestHTTPEngine_ServerErrorRetriesThenSucceeds(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("finally"))
	}))
	defer srv.Close()

	e := NewHTTPEngine(testFetchConfig())
	res, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "finally", string(res.Body))
	assert.EqualValues(t, 3, hits.Load())
}

func TestHTTPEngine_RetriesExhausted(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	e := NewHTTPEngine(testFetchConfig())
	_, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL})
	require.Error(t, err)
	assert.Equal(t, models.ErrCodeTransport, models.CodeOf(err))
	assert.EqualValues(t, 3, hits.Load(), "first attempt plus two retries")
}

func TestHTTPEngine_ConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	cfg := testFetchConfig()
	cfg.MaxRetries = 0
	e := NewHTTPEngine(cfg)
	_, err := e.Fetch(context.Background(), &FetchRequest{URL: addr})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrTransport)
}

func TestHTTPEngine_SessionsAreIndependent(t *testing.T) {
	e := NewHTTPEngine(testFetchConfig())
	a := e.NewSession()
	b := e.NewSession()
	defer a.Close()
	defer b.Close()
	assert.NotSame(t, a, b)
}

func TestHTTPEngine_BodyOverLimit(t *testing.T) {
	old := maxBody
	maxBody = 16
	defer func() { maxBody = old }()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(strings.Repeat("x", 17)))
	}))
	defer srv.Close()

	e := NewHTTPEngine(testFetchConfig())
	_, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrTransport)
	assert.Contains(t, err.Error(), "exceeds 16 bytes")
	assert.EqualValues(t, 1, hits.Load())

	srv2 := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 16)))
	}))
	defer srv2.Close()
	res, err := e.Fetch(context.Background(), &FetchRequest{URL: srv2.URL})
	require.NoError(t, err)
	assert.Len(t, res.Body, 16)
}

func newTLSServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("secure " + r.URL.Query().Get("p")))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPEngine_TLSRejectsUntrustedCertByDefault(t *testing.T) {
	srv := newTLSServer(t)

	e := NewHTTPEngine(testFetchConfig())
	defer e.Close()

	_, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrTransport)
	assert.Contains(t, err.Error(), "certificate")
}

func TestHTTPEngine_TLSInsecureAcrossSessions(t *testing.T) {
	srv := newTLSServer(t)

	cfg := testFetchConfig()
	cfg.InsecureSkipVerify = true
	e := NewHTTPEngine(cfg)
	defer e.Close()

	res, err := e.Fetch(context.Background(), &FetchRequest{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "secure ", string(res.Body))

	for i := 0; i < 2; i++ {
		s := e.NewSession()
		res, err := s.Fetch(context.Background(), &FetchRequest{URL: srv.URL})
		s.Close()
		require.NoError(t, err, "session %d", i)
		assert.Equal(t, "secure ", string(res.Body))
	}
}

func TestRunBatch_OverTLS(t *testing.T) {
	srv := newTLSServer(t)

	cfg := testFetchConfig()
	cfg.InsecureSkipVerify = true
	e := NewHTTPEngine(cfg)
	defer e.Close()

	body := func(res *FetchResult) (string, error) { return string(res.Body), nil }
	var tasks []Task[string]
	for _, p := range []string{"1", "2", "3"} {
		tasks = append(tasks, Task[string]{URL: srv.URL, Params: url.Values{"p": {p}}, Transform: body})
	}

	results := RunBatch(context.Background(), e, tasks, BatchOptions{MaxConcurrency: 3})
	require.Len(t, results, 3)
	for i, r := range results {
		require.NoError(t, r.Err, "slot %d", i)
		assert.Equal(t, "secure "+tasks[i].Params.Get("p"), r.Value)
	}
}
