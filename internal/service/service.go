// Package service composes the chat store, model registry, inference proxy and
// stats reporter into the API the HTTP layer serves.
package service

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog"

	"chatd/internal/chatstore"
	"chatd/internal/config"
	"chatd/internal/inference"
	"chatd/internal/registry"
	"chatd/internal/sysstats"
	"chatd/pkg/types"
)

// Generator produces a reply for one prompt.
type Generator interface {
	Generate(ctx context.Context, req types.GenerateRequest) (types.GenerateResponse, error)
}

// StatsReporter reports host and process usage.
type StatsReporter interface {
	Get() (types.SystemStats, error)
}

// ModelLister lists the advertised models.
type ModelLister interface {
	List() []string
}

// Service implements httpapi.Service.
type Service struct {
	store  chatstore.Store
	models ModelLister
	gen    Generator
	stats  StatsReporter
	log    zerolog.Logger
}

// New wires already constructed components.
func New(store chatstore.Store, models ModelLister, gen Generator, stats StatsReporter, log zerolog.Logger) *Service {
	return &Service{store: store, models: models, gen: gen, stats: stats, log: log}
}

// Open builds every component from a normalized config.
func Open(cfg config.Config, log zerolog.Logger) (*Service, error) {
	reg, err := registry.Open(cfg.Models.File, cfg.Models.Default, cfg.Models.Static)
	if err != nil {
		return nil, fmt.Errorf("model registry: %w", err)
	}

	store, err := OpenStore(cfg, log)
	if err != nil {
		return nil, err
	}

	backend, err := inference.NewBackend(cfg.Backend.Kind, cfg.Backend.URL, cfg.Backend.APIKey, cfg.Backend.ConnectTimeout())
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	proxy := inference.NewProxy(backend, reg, inference.Options{
		Timeout:         cfg.Backend.Timeout(),
		BreakerFailures: cfg.Backend.BreakerFailures,
		BreakerOpen:     cfg.Backend.BreakerOpen(),
		Logger:          log,
	})

	var sampler sysstats.Sampler
	if ps, err := sysstats.NewProcSampler(); err == nil {
		sampler = ps
	} else {
		log.Warn().Err(err).Msg("system stats unavailable")
		sampler = unavailableSampler{err: err}
	}

	log.Info().
		Str("backend", backend.Name()).
		Str("backend_url", cfg.Backend.URL).
		Str("storage", cfg.Storage.Driver).
		Str("data_dir", cfg.DataDir).
		Int("models", len(reg.List())).
		Str("default_model", reg.Default()).
		Msg("service ready")
	return New(store, reg, proxy, sysstats.New(sampler), log), nil
}

// OpenStore opens the chat store selected by cfg.Storage.Driver.
func OpenStore(cfg config.Config, log zerolog.Logger) (chatstore.Store, error) {
	var (
		store chatstore.Store
		err   error
	)
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		store, err = chatstore.OpenSQLite(cfg.Storage.SQLitePath, log)
	default:
		// the registry file may live next to the chats
		var reserved []string
		if filepath.Dir(cfg.Models.File) == filepath.Clean(cfg.DataDir) {
			reserved = append(reserved, filepath.Base(cfg.Models.File))
		}
		store, err = chatstore.NewFileStore(cfg.DataDir, reserved, log)
	}
	if err != nil {
		return nil, fmt.Errorf("chat store: %w", err)
	}
	return store, nil
}

// Close releases the chat store.
func (s *Service) Close() error { return s.store.Close() }

func (s *Service) SystemStats(ctx context.Context) (types.SystemStats, error) {
	st, err := s.stats.Get()
	if err != nil {
		s.log.Error().Err(err).Msg("system stats")
		return types.SystemStats{}, internalError{msg: "system stats unavailable"}
	}
	return st, nil
}

func (s *Service) ListModels() []string {
	out := s.models.List()
	if out == nil {
		return []string{}
	}
	return out
}

func (s *Service) Generate(ctx context.Context, req types.GenerateRequest) (types.GenerateResponse, error) {
	return s.gen.Generate(ctx, req)
}

func (s *Service) ListChats(ctx context.Context) ([]types.Chat, error) {
	chats, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	if chats == nil {
		chats = []types.Chat{}
	}
	return chats, nil
}

func (s *Service) GetChat(ctx context.Context, id string) (types.Chat, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) SaveChat(ctx context.Context, chat types.Chat) error {
	return s.store.Save(ctx, chat)
}

func (s *Service) DeleteChat(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// Ready reports whether at least one model is advertised.
func (s *Service) Ready() bool { return len(s.models.List()) > 0 }

type unavailableSampler struct{ err error }

func (u unavailableSampler) Sample() (sysstats.Sample, error) { return sysstats.Sample{}, u.err }

type internalError struct{ msg string }

func (e internalError) Error() string   { return e.msg }
func (e internalError) StatusCode() int { return 500 }
func (e internalError) Kind() string    { return "internal" }
