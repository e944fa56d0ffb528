package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/finscrape/models"
)

// fakeFactory hands out sessions that answer from a fixed table of bodies
// after a per-URL delay.
type fakeFactory struct {
	delays map[string]time.Duration
	fail   map[string]error

	opened   atomic.Int32
	closed   atomic.Int32
	inflight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeFactory) NewSession() Session {
	f.opened.Add(1)
	return &fakeSession{f: f}
}

type fakeSession struct {
	f *fakeFactory
}

func (s *fakeSession) Name() string { return "fake" }

func (s *fakeSession) Close() { s.f.closed.Add(1) }

func (s *fakeSession) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	n := s.f.inflight.Add(1)
	defer s.f.inflight.Add(-1)
	for {
		p := s.f.peak.Load()
		if n <= p || s.f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	select {
	case <-time.After(s.f.delays[req.URL]):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if err := s.f.fail[req.URL]; err != nil {
		return nil, err
	}
	return &FetchResult{Body: []byte("body:" + req.URL), FinalURL: req.URL, StatusCode: 200}, nil
}

func bodyTransform(res *FetchResult) (string, error) {
	return string(res.Body), nil
}

func TestRunBatch_PreservesSubmissionOrder(t *testing.T) {
	f := &fakeFactory{delays: map[string]time.Duration{
		"A": 90 * time.Millisecond,
		"B": 50 * time.Millisecond,
		"C": 20 * time.Millisecond,
	}}
	tasks := []Task[string]{
		{URL: "A", Transform: bodyTransform},
		{URL: "B", Transform: bodyTransform},
		{URL: "C", Transform: bodyTransform},
	}

	results := RunBatch(context.Background(), f, tasks, BatchOptions{})

	got, err := models.Values(results)
	require.NoError(t, err)
	assert.Equal(t, []string{"body:A", "body:B", "body:C"}, got)
	assert.EqualValues(t, 1, f.opened.Load(), "one session per batch")
	assert.EqualValues(t, 1, f.closed.Load(), "session closed after the batch")
	assert.EqualValues(t, 3, f.peak.Load(), "all tasks launched together")
}

func TestRunBatch_IsolatesFailures(t *testing.T) {
	boom := errors.New("boom")
	f := &fakeFactory{fail: map[string]error{"B": boom}}
	tasks := []Task[string]{
		{URL: "A", Transform: bodyTransform},
		{URL: "B", Transform: bodyTransform},
		{URL: "C", Transform: func(res *FetchResult) (string, error) {
			return "", models.NewScrapeError(models.ErrCodeParse, "bad page", nil)
		}},
	}

	results := RunBatch(context.Background(), f, tasks, BatchOptions{})
	require.Len(t, results, 3)

	assert.False(t, results[0].Failed())
	assert.Equal(t, "body:A", results[0].Value)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.ErrorIs(t, results[2].Err, models.ErrParse)

	_, err := models.Values(results)
	assert.ErrorIs(t, err, boom, "all-or-nothing policy surfaces the first failure")

	ok, err := models.Partition(results)
	assert.Equal(t, []string{"body:A"}, ok)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, models.ErrParse)
}

func TestRunBatch_MaxConcurrency(t *testing.T) {
	f := &fakeFactory{delays: map[string]time.Duration{}}
	var tasks []Task[string]
	for _, u := range []string{"1", "2", "3", "4", "5", "6"} {
		f.delays[u] = 10 * time.Millisecond
		tasks = append(tasks, Task[string]{URL: u, Transform: bodyTransform})
	}

	results := RunBatch(context.Background(), f, tasks, BatchOptions{MaxConcurrency: 2})

	_, err := models.Values(results)
	require.NoError(t, err)
	assert.LessOrEqual(t, f.peak.Load(), int32(2))
}

func TestRunBatch_MissingTransform(t *testing.T) {
	f := &fakeFactory{}
	results := RunBatch(context.Background(), f, []Task[string]{{URL: "A"}}, BatchOptions{})
	assert.ErrorIs(t, results[0].Err, models.ErrInvalidInput)
}

func TestRunBatch_Empty(t *testing.T) {
	f := &fakeFactory{}
	results := RunBatch[string](context.Background(), f, nil, BatchOptions{})
	assert.Empty(t, results)
	assert.Zero(t, f.opened.Load(), "no session for an empty batch")
}

func TestRunBatch_TransformsRunPerSlot(t *testing.T) {
	f := &fakeFactory{}
	var mu sync.Mutex
	seen := map[string]bool{}
	tr := func(res *FetchResult) (int, error) {
		mu.Lock()
		seen[res.FinalURL] = true
		mu.Unlock()
		return len(res.Body), nil
	}
	results := RunBatch(context.Background(), f, []Task[int]{
		{URL: "x", Transform: tr},
		{URL: "yy", Transform: tr},
	}, BatchOptions{})

	got, err := models.Values(results)
	require.NoError(t, err)
	assert.Equal(t, []int{len("body:x"), len("body:yy")}, got)
	assert.Len(t, seen, 2)
}
