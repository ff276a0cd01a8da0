package retry_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/always-cache/gofetch/retry"
)

func TestDelayGrowsExponentially(t *testing.T) {
	p := retry.Policy{Factor: 2, MinTimeout: time.Second, MaxTimeout: time.Minute}
	d0 := p.Delay(0)
	d1 := p.Delay(1)
	d2 := p.Delay(2)
	assert.True(t, d1 > d0)
	assert.True(t, d2 > d1)
}

func TestDelayCapsAtMaxTimeout(t *testing.T) {
	p := retry.Policy{Factor: 10, MinTimeout: time.Second, MaxTimeout: 5 * time.Second}
	assert.LessOrEqual(t, p.Delay(10), 5*time.Second)
}

func TestRetriableStatus(t *testing.T) {
	assert.True(t, retry.RetriableStatus(429))
	assert.True(t, retry.RetriableStatus(503))
	assert.False(t, retry.RetriableStatus(404))
	assert.False(t, retry.RetriableStatus(200))
}

type fakeRetriableErr struct{ retriable bool }

func (e fakeRetriableErr) Error() string { return "fake" }
func (e fakeRetriableErr) Retriable() bool { return e.retriable }

func TestRetriableErrorDelegatesToErrorMethod(t *testing.T) {
	assert.True(t, retry.RetriableError(fakeRetriableErr{retriable: true}))
	assert.False(t, retry.RetriableError(fakeRetriableErr{retriable: false}))
	assert.False(t, retry.RetriableError(errors.New("plain")))
}

func TestRetriableMethodAndBody(t *testing.T) {
	assert.False(t, retry.Retriable(http.MethodPost, true))
	assert.False(t, retry.Retriable(http.MethodGet, false))
	assert.True(t, retry.Retriable(http.MethodGet, true))
}

func TestWaitReturnsCtxErrOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := retry.Policy{MinTimeout: time.Hour, MaxTimeout: time.Hour}
	err := p.Wait(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWaitConsultsLimiterAfterBackoff(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(1000), 1)
	p := retry.Policy{MinTimeout: time.Millisecond, MaxTimeout: time.Millisecond, Limiter: limiter}
	err := p.Wait(context.Background(), 1)
	require.NoError(t, err)
}

func TestSetAttempts(t *testing.T) {
	h := http.Header{}
	retry.SetAttempts(h, 3)
	assert.Equal(t, "3", h.Get(retry.AttemptsHeader))
}
