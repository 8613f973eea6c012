package ipinfo

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upstream 返回固定内容的假 API, 并记录请求次数
type upstream struct {
	*httptest.Server
	mu   sync.Mutex
	hits int
	req  *http.Request
}

func newUpstream(t *testing.T, status int, body string) *upstream {
	t.Helper()
	u := &upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.hits++
		u.req = r.Clone(context.Background())
		u.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(u.Close)
	return u
}

func (u *upstream) Hits() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) ObserveAttempt(endpoint string, err error, seconds float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, Outcome(err))
}

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithCDNRanges(map[string][]*net.IPNet{})}, opts...)
	cli, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { cli.Close() })
	return cli
}

func TestResolve_FirstEndpointWins(t *testing.T) {
	a := newUpstream(t, http.StatusOK, `{"ip": "1.2.3.4", "city": "Rome"}`)
	b := newUpstream(t, http.StatusOK, `{"ip": "9.9.9.9"}`)

	rec, err := newTestClient(t, WithEndpoints(a.URL, b.URL)).Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "1.2.3.4", rec.Address)
	assert.Equal(t, "Rome", rec.City)
	assert.Empty(t, rec.Country)
	assert.Nil(t, rec.Latitude)
	assert.Equal(t, a.URL, rec.Source)
	assert.Equal(t, 0, b.Hits(), "成功后不应再请求后续 API")
}

func TestResolve_MalformedThenSuccess(t *testing.T) {
	a := newUpstream(t, http.StatusOK, `<html>rate limited</html>`)
	b := newUpstream(t, http.StatusOK, `{"query": "5.6.7.8", "country_name": "France"}`)

	rec, err := newTestClient(t, WithEndpoints(a.URL, b.URL)).Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Record{Address: "5.6.7.8", Country: "France", Source: b.URL}, rec)
}

func TestResolve_MissingAddressFallsThrough(t *testing.T) {
	a := newUpstream(t, http.StatusOK, `{"city": "Rome", "country": "Italy"}`)
	b := newUpstream(t, http.StatusOK, `{"ip": "8.8.4.4"}`)

	rec, err := newTestClient(t, WithEndpoints(a.URL, b.URL)).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "8.8.4.4", rec.Address)
	assert.Empty(t, rec.City, "不能混入上一个 API 的数据")
	assert.Equal(t, 1, b.Hits())
}

func TestResolve_NonSuccessStatusFallsThrough(t *testing.T) {
	a := newUpstream(t, http.StatusTooManyRequests, `{"ip": "6.6.6.6"}`)
	b := newUpstream(t, http.StatusOK, `{"ip": "7.7.7.7"}`)

	rec, err := newTestClient(t, WithEndpoints(a.URL, b.URL)).Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "7.7.7.7", rec.Address)
}

func TestResolve_AllEndpointsExhausted(t *testing.T) {
	a := newUpstream(t, http.StatusInternalServerError, ``)
	b := newUpstream(t, http.StatusOK, `[]`)
	dead := httptest.NewServer(http.NotFoundHandler())
	dead.Close()

	obs := &recordingObserver{}
	_, err := newTestClient(t, WithEndpoints(a.URL, b.URL, dead.URL), WithObserver(obs)).
		Resolve(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAllEndpointsExhausted))

	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	require.Len(t, exhausted.Attempts, 3)
	assert.ErrorIs(t, exhausted.Attempts[0], ErrEndpointUnreachable)
	assert.ErrorIs(t, exhausted.Attempts[1], ErrMalformedResponse)
	assert.ErrorIs(t, exhausted.Attempts[2], ErrEndpointUnreachable)
	assert.Equal(t, dead.URL, exhausted.Attempts[2].Endpoint)

	assert.Equal(t, []string{"unreachable", "malformed", "unreachable"}, obs.outcomes)
}

// 任意成功/失败组合下, 结果总是来自列表中第一个成功的 API
func TestResolve_OrderingProperty(t *testing.T) {
	const n = 3
	for mask := 0; mask < 1<<n; mask++ {
		var endpoints []string
		want := -1
		for i := 0; i < n; i++ {
			ok := mask&(1<<i) != 0
			if ok {
				if want < 0 {
					want = i
				}
				endpoints = append(endpoints, newUpstream(t, http.StatusOK, fmt.Sprintf(`{"ip": "10.0.0.%d"}`, i)).URL)
			} else {
				endpoints = append(endpoints, newUpstream(t, http.StatusOK, `{"note": "no address"}`).URL)
			}
		}

		rec, err := newTestClient(t, WithEndpoints(endpoints...)).Resolve(context.Background())
		if want < 0 {
			assert.ErrorIs(t, err, ErrAllEndpointsExhausted, "mask=%03b", mask)
			continue
		}
		require.NoError(t, err, "mask=%03b", mask)
		assert.Equal(t, fmt.Sprintf("10.0.0.%d", want), rec.Address, "mask=%03b", mask)
	}
}

func TestResolve_NoCacheHeaders(t *testing.T) {
	a := newUpstream(t, http.StatusOK, `{"ip": "1.2.3.4"}`)

	_, err := newTestClient(t, WithEndpoints(a.URL)).Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, a.req.Method)
	assert.Equal(t, "no-cache", a.req.Header.Get("Cache-Control"))
	assert.Equal(t, "no-cache", a.req.Header.Get("Pragma"))
	assert.NotEmpty(t, a.req.Header.Get("User-Agent"))
}

func TestResolve_CanceledContext(t *testing.T) {
	a := newUpstream(t, http.StatusOK, `{"ip": "1.2.3.4"}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(t, WithEndpoints(a.URL)).Resolve(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, a.Hits())
}

func TestResolve_MarksCDN(t *testing.T) {
	a := newUpstream(t, http.StatusOK, `{"ip": "104.16.1.1"}`)
	_, cfNet, _ := net.ParseCIDR("104.16.0.0/13")

	cli, err := New(WithEndpoints(a.URL), WithCDNRanges(map[string][]*net.IPNet{"ipv4": {cfNet}}))
	require.NoError(t, err)

	rec, err := cli.Resolve(context.Background())
	require.NoError(t, err)
	assert.True(t, rec.IsCDN)
}

func TestNew_Defaults(t *testing.T) {
	cli, err := New()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://ipapi.co/json/", "https://ipwho.is/"}, cli.Endpoints())
	assert.NoError(t, cli.Close())

	_, err = New(WithHttpClient(nil))
	assert.Error(t, err)
	_, err = New(WithDBPath(""))
	assert.Error(t, err)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", Outcome(nil))
	assert.Equal(t, "unreachable", Outcome(unreachable("x", errors.New("boom"))))
	assert.Equal(t, "malformed", Outcome(malformed("x", nil)))
	assert.Equal(t, "canceled", Outcome(unreachable("x", fmt.Errorf("get: %w", context.Canceled))))
	assert.Equal(t, "error", Outcome(errors.New("other")))
}
