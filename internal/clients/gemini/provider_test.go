package gemini

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jobvector/jobvector/internal/entities"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

var errQuota = errors.New("googleapi: Error 429: RESOURCE_EXHAUSTED")

type fakeClient struct {
	calls    int32
	response string
	err      error
}

func (f *fakeClient) Generate(_ context.Context, _ string, _ int32, _ float32) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	return f.response, f.err
}

func (f *fakeClient) Embed(_ context.Context, _ string) (entities.Vector, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.err != nil {
		return nil, f.err
	}
	return make(entities.Vector, entities.EmbeddingDimensions), nil
}

func testProvider(delay time.Duration, clients ...*fakeClient) *Provider {
	ring := make(map[int]generativeClient, len(clients))
	for i, c := range clients {
		ring[i] = c
	}
	return newProvider(ring, len(clients), delay)
}

func Test_Provider_RotatesOnRateLimitAndStaysOnWorkingKey(t *testing.T) {

	limited := &fakeClient{err: errQuota}
	healthy := &fakeClient{response: "ok"}
	provider := testProvider(time.Millisecond, limited, healthy)

	out, err := provider.GenerateText(context.Background(), "prompt", 100, 0)
	assert.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.EqualValues(t, 1, limited.calls)
	assert.EqualValues(t, 1, healthy.calls)

	// rotation is sticky: the next call goes straight to the working key
	_, err = provider.GenerateText(context.Background(), "prompt", 100, 0)
	assert.NoError(t, err)
	assert.EqualValues(t, 1, limited.calls)
	assert.EqualValues(t, 2, healthy.calls)
}

func Test_Provider_FailsAfterExactlyOneAttemptPerKey(t *testing.T) {

	clients := []*fakeClient{
		{err: errQuota},
		{err: errQuota},
		{err: errQuota},
	}
	provider := testProvider(time.Millisecond, clients...)

	_, err := provider.GenerateText(context.Background(), "prompt", 100, 0)
	assert.ErrorIs(t, err, ErrAllKeysExhausted)

	for i, c := range clients {
		assert.EqualValues(t, 1, c.calls, "client #%d", i)
	}
}

func Test_Provider_NonRateLimitErrorReturnsImmediately(t *testing.T) {

	broken := &fakeClient{err: errors.New("connection reset by peer")}
	spare := &fakeClient{response: "ok"}
	provider := testProvider(time.Millisecond, broken, spare)

	_, err := provider.GenerateText(context.Background(), "prompt", 100, 0)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrAllKeysExhausted)
	assert.EqualValues(t, 1, broken.calls)
	assert.EqualValues(t, 0, spare.calls)
}

func Test_Provider_ThrottleSpacesConsecutiveCalls(t *testing.T) {

	delay := 50 * time.Millisecond
	provider := testProvider(delay, &fakeClient{response: "ok"})

	start := time.Now()
	_, err := provider.GenerateText(context.Background(), "prompt", 100, 0)
	assert.NoError(t, err)
	_, err = provider.EmbedText(context.Background(), "text")
	assert.NoError(t, err)

	// the gate is shared across operations, so the second call waits
	assert.GreaterOrEqual(t, time.Since(start), delay-5*time.Millisecond)
}

func Test_Provider_ThrottleAppliesBetweenRotationAttempts(t *testing.T) {

	delay := 30 * time.Millisecond
	provider := testProvider(delay, &fakeClient{err: errQuota}, &fakeClient{response: "ok"})

	start := time.Now()
	out, err := provider.GenerateText(context.Background(), "prompt", 100, 0)
	assert.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.GreaterOrEqual(t, time.Since(start), delay-5*time.Millisecond)
}

func Test_IsRateLimitError(t *testing.T) {

	assert.True(t, IsRateLimitError(&googleapi.Error{Code: http.StatusTooManyRequests}))
	assert.True(t, IsRateLimitError(errors.Wrap(&googleapi.Error{Code: 429}, "call failed")))
	assert.True(t, IsRateLimitError(errors.New("RESOURCE_EXHAUSTED: try later")))
	assert.True(t, IsRateLimitError(errors.New("quota exceeded for today")))
	assert.True(t, IsRateLimitError(errors.New("rate limit hit")))

	assert.False(t, IsRateLimitError(nil))
	assert.False(t, IsRateLimitError(errors.New("connection reset by peer")))
	assert.False(t, IsRateLimitError(&googleapi.Error{Code: http.StatusInternalServerError}))
}
