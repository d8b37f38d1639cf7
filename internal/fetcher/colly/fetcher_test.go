package collyfetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/diamond-entries/internal/policy/ratelimit"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/schedule.html", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "entries-test", r.UserAgent())
		_, _ = w.Write([]byte("<html>schedule</html>"))
	})
	mux.HandleFunc("/gone.html", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts
}

func TestFetch(t *testing.T) {
	t.Parallel()

	ts := newServer(t)
	f := New(Config{UserAgent: "entries-test", Timeout: 5 * time.Second}, ratelimit.New(ratelimit.Config{}), nil)

	body, err := f.Fetch(context.Background(), ts.URL+"/schedule.html")
	require.NoError(t, err)
	assert.Equal(t, "<html>schedule</html>", string(body))

	// Same URL twice must not trip colly's visited check.
	_, err = f.Fetch(context.Background(), ts.URL+"/schedule.html")
	require.NoError(t, err)
}

func TestFetchNotFound(t *testing.T) {
	t.Parallel()

	ts := newServer(t)
	f := New(Config{UserAgent: "entries-test"}, nil, nil)
	_, err := f.Fetch(context.Background(), ts.URL+"/gone.html")
	require.Error(t, err)
}

func TestFetchCanceled(t *testing.T) {
	t.Parallel()

	ts := newServer(t)
	f := New(Config{}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := f.Fetch(ctx, ts.URL+"/schedule.html")
	require.Error(t, err)
}

func TestBuildCollector(t *testing.T) {
	t.Parallel()

	f := New(Config{UserAgent: "coverage-agent", RespectRobots: true, Timeout: time.Second}, nil, nil)
	collector := f.buildCollector()
	assert.Equal(t, "coverage-agent", collector.UserAgent)
	assert.False(t, collector.IgnoreRobotsTxt)

	f = New(Config{}, nil, nil)
	assert.True(t, f.buildCollector().IgnoreRobotsTxt)
}

func TestConfigureCollectorHooks(t *testing.T) {
	t.Parallel()

	f := New(Config{}, nil, nil)
	var (
		body     []byte
		status   int
		fetchErr error
	)
	hooks := &stubHooks{}
	f.configureCollectorHooks(hooks, &body, &status, &fetchErr)
	require.NotNil(t, hooks.onResponse)
	require.NotNil(t, hooks.onError)

	hooks.onResponse(&colly.Response{StatusCode: http.StatusOK, Body: []byte("body")})
	assert.Equal(t, "body", string(body))
	assert.Equal(t, http.StatusOK, status)

	hooks.onError(&colly.Response{StatusCode: http.StatusBadGateway}, errors.New("boom"))
	assert.EqualError(t, fetchErr, "boom")
	assert.Equal(t, http.StatusBadGateway, status)
}

func TestStatusLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "200", statusLabel(200, nil))
	assert.Equal(t, "error", statusLabel(0, errors.New("x")))
	assert.Equal(t, "unknown", statusLabel(0, nil))
}

type stubHooks struct {
	onResponse colly.ResponseCallback
	onError    colly.ErrorCallback
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) {
	s.onResponse = cb
}

func (s *stubHooks) OnError(cb colly.ErrorCallback) {
	s.onError = cb
}
