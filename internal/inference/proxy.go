package inference

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"chatd/pkg/types"
)

// DefaultTimeout bounds a generate call when Options.Timeout is unset.
const DefaultTimeout = 120 * time.Second

// ModelResolver supplies the model used when a request names none. It must
// answer without network calls.
type ModelResolver interface {
	Default() string
}

// Options tunes a Proxy.
type Options struct {
	// Timeout bounds one backend call; timeouts surface as unavailable.
	Timeout time.Duration
	// BreakerFailures consecutive transport failures open the circuit.
	// Zero or negative disables the breaker.
	BreakerFailures int
	// BreakerOpen is how long an open circuit rejects calls before probing.
	BreakerOpen time.Duration
	Logger      zerolog.Logger
}

// Proxy turns generate requests into backend calls.
type Proxy struct {
	backend Backend
	models  ModelResolver
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

// NewProxy wires a backend with model resolution, timeout and circuit breaker.
func NewProxy(b Backend, models ModelResolver, opts Options) *Proxy {
	p := &Proxy{
		backend: b,
		models:  models,
		timeout: opts.Timeout,
		log:     opts.Logger.With().Str("component", "inference").Str("backend", b.Name()).Logger(),
	}
	if p.timeout <= 0 {
		p.timeout = DefaultTimeout
	}
	if opts.BreakerFailures > 0 {
		threshold := uint32(opts.BreakerFailures)
		p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        b.Name(),
			MaxRequests: 1,
			Timeout:     opts.BreakerOpen,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= threshold
			},
			// Only unreachable backends trip the circuit; a backend that answers
			// with an error is alive.
			IsSuccessful: func(err error) bool {
				return err == nil || !IsBackendUnavailable(err)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				p.log.Warn().Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
				open := 0.0
				if to == gobreaker.StateOpen {
					open = 1
				}
				breakerState.WithLabelValues(name).Set(open)
			},
		})
	}
	return p
}

// BackendName returns the configured protocol name.
func (p *Proxy) BackendName() string { return p.backend.Name() }

// ResolveModel returns requested, or the default when requested is blank.
func (p *Proxy) ResolveModel(requested string) string {
	if m := strings.TrimSpace(requested); m != "" {
		return m
	}
	if p.models == nil {
		return ""
	}
	return p.models.Default()
}

// Generate sends req.Prompt to the backend. It never panics; every failure is
// a typed error (see package doc).
func (p *Proxy) Generate(ctx context.Context, req types.GenerateRequest) (resp types.GenerateResponse, err error) {
	model := p.ResolveModel(req.Model)
	if model == "" {
		return resp, requestError{msg: "model is required and no default model is configured"}
	}
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.log.Error().Interface("panic", r).Str("model", model).Msg("generate panicked")
			err = internalError{msg: fmt.Sprintf("internal error: %v", r)}
		}
		generateDuration.WithLabelValues(p.backend.Name()).Observe(time.Since(start).Seconds())
		generateTotal.WithLabelValues(p.backend.Name(), outcome(err)).Inc()
	}()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	text, err := p.call(ctx, model, req.Prompt)
	if err != nil {
		ev := p.log.Warn()
		if errors.Is(err, context.Canceled) {
			ev = p.log.Debug()
		}
		ev.Str("model", model).Dur("dur", time.Since(start)).Err(err).Msg("generate failed")
		return resp, err
	}
	p.log.Debug().Str("model", model).Dur("dur", time.Since(start)).Int("chars", len(text)).Msg("generate ok")
	return types.GenerateResponse{Response: text}, nil
}

func (p *Proxy) call(ctx context.Context, model, prompt string) (string, error) {
	if p.breaker == nil {
		return p.backend.Chat(ctx, model, prompt)
	}
	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.backend.Chat(ctx, model, prompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", ErrBackendUnavailable("inference backend unavailable (circuit open)", err)
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	var k interface{ Kind() string }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindInternal
}
