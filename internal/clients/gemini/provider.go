package gemini

import (
	"context"
	"sync"
	"time"

	"github.com/jobvector/jobvector/internal/entities"
	"github.com/jobvector/jobvector/internal/metrics"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DefaultThrottleDelay is the minimum interval between consecutive outbound
// calls, shared by text generation and embedding.
const DefaultThrottleDelay = 2 * time.Second

type generativeClient interface {
	Generate(ctx context.Context, prompt string, maxTokens int32, temperature float32) (string, error)
	Embed(ctx context.Context, text string) (entities.Vector, error)
}

// Provider presents one logical generate/embed operation backed by a ring of
// credentialed clients. On a rate-limit-class error it rotates to the next
// initialized credential and retries, at most once per client; rotation is
// sticky, so a working credential keeps serving until it fails too.
//
// The throttle limiter is shared by every operation and every credential:
// no two provider calls across the whole process start sooner than the
// throttle delay apart, including rotation retries.
type Provider struct {
	mu       sync.Mutex
	clients  map[int]generativeClient
	ringSize int
	current  int
	throttle *rate.Limiter
}

// NewProvider initializes one client per key. Keys whose client fails to
// initialize are skipped; construction fails only when none succeed.
func NewProvider(ctx context.Context, apiKeys []string, model string, throttleDelay time.Duration) (*Provider, error) {

	if len(apiKeys) == 0 {
		return nil, errors.New("at least one API key is required")
	}

	clients := make(map[int]generativeClient)
	for i, key := range apiKeys {
		if key == "" {
			continue
		}
		client, err := NewClient(ctx, key, model)
		if err != nil {
			log.Warnf("failed to initialize gemini client for key #%d: %v", i+1, err)
			continue
		}
		clients[i] = client
	}

	if len(clients) == 0 {
		return nil, errors.New("failed to initialize any gemini clients")
	}

	log.Infof("gemini provider initialized with %d of %d API key(s)", len(clients), len(apiKeys))
	return newProvider(clients, len(apiKeys), throttleDelay), nil
}

func newProvider(clients map[int]generativeClient, ringSize int, throttleDelay time.Duration) *Provider {
	if throttleDelay <= 0 {
		throttleDelay = DefaultThrottleDelay
	}
	return &Provider{
		clients:  clients,
		ringSize: ringSize,
		throttle: rate.NewLimiter(rate.Every(throttleDelay), 1),
	}
}

// GenerateText runs the prompt through the current credential's generation
// endpoint and returns the trimmed response text.
func (p *Provider) GenerateText(ctx context.Context, prompt string, maxTokens int32, temperature float32) (string, error) {
	var out string
	err := p.withRotation(ctx, "generation", func(ctx context.Context, client generativeClient) error {
		var callErr error
		out, callErr = client.Generate(ctx, prompt, maxTokens, temperature)
		return callErr
	})
	return out, err
}

// EmbedText returns a 768-dimensional embedding of the text.
func (p *Provider) EmbedText(ctx context.Context, text string) (entities.Vector, error) {
	var out entities.Vector
	err := p.withRotation(ctx, "embedding", func(ctx context.Context, client generativeClient) error {
		var callErr error
		out, callErr = client.Embed(ctx, text)
		return callErr
	})
	return out, err
}

func (p *Provider) withRotation(ctx context.Context, operation string, call func(context.Context, generativeClient) error) error {

	attempts := len(p.clients)

	for attempt := 0; attempt < attempts; attempt++ {
		if err := p.throttle.Wait(ctx); err != nil {
			return err
		}

		index, client := p.currentClient()

		err := call(ctx, client)
		if err == nil {
			return nil
		}
		if !IsRateLimitError(err) {
			return err
		}

		log.WithField("operation", operation).
			Warnf("rate limit hit on key #%d: %v", index+1, err)

		if attempt < attempts-1 {
			p.rotate()
			metrics.KeyRotationsCounter.Inc()
		}
	}

	metrics.KeysExhaustedCounter.Inc()
	return errors.WithMessagef(ErrAllKeysExhausted, "%s failed on %d key(s)", operation, attempts)
}

func (p *Provider) currentClient() (int, generativeClient) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.clients[p.current]; !ok {
		for i := 0; i < p.ringSize; i++ {
			if _, ok := p.clients[i]; ok {
				p.current = i
				break
			}
		}
	}
	return p.current, p.clients[p.current]
}

func (p *Provider) rotate() {
	p.mu.Lock()
	defer p.mu.Unlock()

	from := p.current
	for i := 0; i < p.ringSize; i++ {
		p.current = (p.current + 1) % p.ringSize
		if _, ok := p.clients[p.current]; ok {
			break
		}
	}
	log.Warnf("rotating from key #%d to key #%d", from+1, p.current+1)
}
