package engine

import (
	"context"
	"net/url"
)

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier (e.g. "http").
	Name() string

	// Fetch performs one GET and returns the body and the URL it resolved to.
	// A non-2xx status is reported as a TRANSPORT_ERROR wrapping *models.HTTPError.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)
}

// Session is an Engine bound to one connection pool. Close releases the pool.
type Session interface {
	Engine
	Close()
}

// SessionFactory opens a fresh Session. Batches open one per run.
type SessionFactory interface {
	NewSession() Session
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL string

	// Params are merged into the URL's query string.
	Params url.Values
}

// FetchResult is the output of a successful engine fetch.
type FetchResult struct {
	Body       []byte
	StatusCode int
	FinalURL   string
	EngineName string
}

// resolveURL merges params into rawURL's existing query.
func resolveURL(rawURL string, params url.Values) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if len(params) == 0 {
		return u.String(), nil
	}
	q := u.Query()
	for k, vs := range params {
		q.Del(k)
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
