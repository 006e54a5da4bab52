package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"linkvault/internal/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!doctype html>
<html><head>
  <title>  Plain   Title </title>
  <meta property="og:title" content="OG Title">
  <meta name="twitter:title" content="Twitter Title">
  <meta name="description" content="Meta description">
  <meta name="twitter:description" content="Twitter description">
  <link rel="shortcut icon" href="/static/shortcut.ico">
  <link rel="icon" href="/static/icon.png">
</head><body><p>hello</p></body></html>`

func TestHTTPFetcher_ExtractsPreferredFields(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(Options{Timeout: 2 * time.Second, UserAgent: "test-agent"})
	res := f.Fetch(context.Background(), srv.URL+"/article")

	assert.Equal(t, "OG Title", res.Title)
	assert.Equal(t, "Twitter description", res.Description)
	assert.Equal(t, srv.URL+"/static/icon.png", res.Favicon)
	assert.Equal(t, "test-agent", gotUA)
}

func TestHTTPFetcher_DefaultsForBarePage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>no head</body></html>`))
	}))
	defer srv.Close()

	res := NewHTTPFetcher(Options{}).Fetch(context.Background(), srv.URL)
	assert.Equal(t, "Untitled", res.Title)
	assert.Equal(t, "", res.Description)
	assert.Equal(t, srv.URL+"/favicon.ico", res.Favicon)
}

func TestHTTPFetcher_TruncatesLongFields(t *testing.T) {
	long := strings.Repeat("é", 600)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><head><title>` + long + `</title>` +
			`<meta name="description" content="` + strings.Repeat("d", 2500) + `"></head></html>`))
	}))
	defer srv.Close()

	res := NewHTTPFetcher(Options{}).Fetch(context.Background(), srv.URL)
	assert.Equal(t, 500, len([]rune(res.Title)))
	assert.Len(t, res.Description, 2000)
}

func TestHTTPFetcher_FallsBackOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	res := NewHTTPFetcher(Options{}).Fetch(context.Background(), srv.URL+"/x")
	assert.Equal(t, Fallback(srv.URL+"/x"), res)
	assert.Equal(t, "127.0.0.1", res.Title)
}

func TestHTTPFetcher_FallsBackWhenUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	res := NewHTTPFetcher(Options{Timeout: time.Second}).Fetch(context.Background(), addr)
	assert.Equal(t, Fallback(addr), res)
}

func TestHTTPFetcher_FallsBackOnTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	res := NewHTTPFetcher(Options{Timeout: 100 * time.Millisecond}).Fetch(context.Background(), srv.URL)
	assert.Equal(t, Fallback(srv.URL), res)
}

func TestHTTPFetcher_RejectsNonHTTPSchemes(t *testing.T) {
	res := NewHTTPFetcher(Options{}).Fetch(context.Background(), "ftp://files.example.com/a")
	assert.Equal(t, "files.example.com", res.Title)
	assert.Equal(t, "ftp://files.example.com/favicon.ico", res.Favicon)
}

func TestHTTPFetcher_CachesSuccessfulResults(t *testing.T) {
	mr := miniredis.RunT(t)
	cache.SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { cache.SetClient(nil) })

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(Options{})
	first := f.Fetch(context.Background(), srv.URL)
	second := f.Fetch(context.Background(), srv.URL)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load())
	assert.True(t, mr.Exists(cache.MetadataKey(srv.URL)))
}

func TestFallback(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Result{
		Title:       "example.com",
		Description: "",
		Favicon:     "https://example.com/favicon.ico",
	}, Fallback("https://example.com"))

	assert.Equal(t, "https://example.com:8443/favicon.ico", Fallback("https://example.com:8443/a?b=c").Favicon)
	assert.Equal(t, Result{}, Fallback("not a url"))
}

func TestStatic(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Fallback("https://example.com/page"), Static{}.Fetch(context.Background(), "https://example.com/page"))
}

func TestHostLimiter(t *testing.T) {
	t.Parallel()
	l := newHostLimiter(1000, 1)
	ctx := context.Background()

	require.NoError(t, l.Wait(ctx, "a.example"))
	require.NoError(t, l.Wait(ctx, "b.example"))
	assert.Equal(t, 2, l.size())

	l.idleTTL = 0
	time.Sleep(time.Millisecond)
	require.NoError(t, l.Wait(ctx, "c.example"))
	assert.Equal(t, 1, l.size())

	var disabled *hostLimiter
	assert.NoError(t, disabled.Wait(ctx, "a.example"))
}

func TestHostLimiter_RespectsContext(t *testing.T) {
	t.Parallel()
	l := newHostLimiter(0.001, 1)
	require.NoError(t, l.Wait(context.Background(), "slow.example"))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, "slow.example"))
}
