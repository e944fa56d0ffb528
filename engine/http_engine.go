package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	tls "github.com/refraction-networking/utls"
	"github.com/use-agent/finscrape/config"
	"github.com/use-agent/finscrape/models"
)

// chromeH1Spec returns a Chrome-like TLS ClientHello with ALPN forced to
// http/1.1 only. ApplyPreset mutates the spec it is given, so every dial
// needs its own copy.
func chromeH1Spec() (tls.ClientHelloSpec, error) {
	spec, err := tls.UTLSIdToSpec(tls.HelloChrome_Auto)
	if err != nil {
		return tls.ClientHelloSpec{}, err
	}
	// Go's http.Transport cannot speak h2 over a utls connection.
	for _, ext := range spec.Extensions {
		if alpn, ok := ext.(*tls.ALPNExtension); ok {
			alpn.AlpnProtocols = []string{"http/1.1"}
			break
		}
	}
	return spec, nil
}

// maxBody caps the bytes read from one response.
var maxBody int64 = 10 << 20

// HTTPEngine fetches pages over net/http with a Chrome-like TLS fingerprint.
// It serves single-page requests from one long-lived session and opens fresh
// sessions for batches.
type HTTPEngine struct {
	cfg    config.FetchConfig
	shared *httpSession
}

// NewHTTPEngine creates an HTTPEngine. Certificate verification follows
// cfg.InsecureSkipVerify and is on unless explicitly disabled.
func NewHTTPEngine(cfg config.FetchConfig) *HTTPEngine {
	if cfg.InsecureSkipVerify {
		slog.Warn("http_engine: TLS certificate verification disabled")
	}
	return &HTTPEngine{
		cfg:    cfg,
		shared: newHTTPSession(cfg),
	}
}

func (e *HTTPEngine) Name() string { return "http" }

// Fetch uses the engine's shared session.
func (e *HTTPEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	return e.shared.Fetch(ctx, req)
}

// NewSession opens a session with its own connection pool.
func (e *HTTPEngine) NewSession() Session {
	return newHTTPSession(e.cfg)
}

// Close releases the shared session's idle connections.
func (e *HTTPEngine) Close() {
	e.shared.Close()
}

type httpSession struct {
	client *http.Client
	cfg    config.FetchConfig
}

func newHTTPSession(cfg config.FetchConfig) *httpSession {
	insecure := cfg.InsecureSkipVerify
	transport := &http.Transport{
		DialTLSContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialTLSChrome(ctx, network, addr, insecure)
		},
		ForceAttemptHTTP2:   false,
		MaxIdleConnsPerHost: 16,
	}
	return &httpSession{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		cfg: cfg,
	}
}

func (s *httpSession) Name() string { return "http" }

func (s *httpSession) Close() {
	s.client.CloseIdleConnections()
}

// Fetch performs the GET with retries on network errors, 429 and 5xx.
func (s *httpSession) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	target, err := resolveURL(req.URL, req.Params)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeInvalidInput, "bad url "+req.URL, err)
	}

	var result *FetchResult
	err = withRetry(ctx, s.cfg.MaxRetries, s.cfg.RetryInitialInterval, target, func() error {
		r, err := s.do(ctx, target)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		var se *models.ScrapeError
		if errors.As(err, &se) {
			return nil, err
		}
		return nil, models.NewScrapeError(models.ErrCodeTransport, "fetch "+target, err)
	}
	return result, nil
}

func (s *httpSession) do(ctx context.Context, target string) (*FetchResult, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, permanent(fmt.Errorf("http_engine: build request: %w", err))
	}
	ua := s.cfg.UserAgent
	if ua == "" {
		ua = config.DefaultUserAgent
	}
	httpReq.Header.Set("User-Agent", ua)
	httpReq.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	httpReq.Header.Set("Accept-Language", "en-US,en;q=0.9")

	start := time.Now()
	resp, err := s.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http_engine: do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("http_engine: read body: %w", err)
	}
	if int64(len(body)) > maxBody {
		return nil, permanent(models.NewScrapeError(models.ErrCodeTransport,
			fmt.Sprintf("response body exceeds %d bytes", maxBody), nil))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		httpErr := &models.HTTPError{StatusCode: resp.StatusCode, URL: target}
		se := models.NewScrapeError(models.ErrCodeTransport, "unexpected status", httpErr)
		if !httpErr.Retryable() {
			return nil, permanent(se)
		}
		return nil, se
	}

	slog.Debug("http_engine: fetched",
		"url", target,
		"status", resp.StatusCode,
		"bytes", len(body),
		"elapsed", time.Since(start),
	)

	return &FetchResult{
		Body:       body,
		StatusCode: resp.StatusCode,
		FinalURL:   resp.Request.URL.String(),
		EngineName: s.Name(),
	}, nil
}

// dialTLSChrome establishes a TLS connection using a Chrome fingerprint via utls.
func dialTLSChrome(ctx context.Context, network, addr string, insecure bool) (net.Conn, error) {
	dialer := &net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, network, addr)
	if err != nil {
		return nil, err
	}
	host, _, _ := net.SplitHostPort(addr)
	cfg := &tls.Config{ServerName: host, InsecureSkipVerify: insecure}

	var tlsConn *tls.UConn
	if spec, err := chromeH1Spec(); err == nil {
		tlsConn = tls.UClient(conn, cfg, tls.HelloCustom)
		if err := tlsConn.ApplyPreset(&spec); err != nil {
			conn.Close()
			return nil, fmt.Errorf("http_engine: apply tls spec: %w", err)
		}
	} else {
		tlsConn = tls.UClient(conn, cfg, tls.HelloGolang)
	}
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	return tlsConn, nil
}
