package settings

import (
	"context"
	"sync"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/meritlist/core"
)

// Provider caches the settings record for the process lifetime.
// Invalidate must be called after any write to the underlying record; Update does it.
type Provider struct {
	repo       Repository
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator

	mu     sync.RWMutex
	cached *Settings
}

func NewProvider(repo Repository, logger core.Logger, validate *validator.Validate, translator ut.Translator) *Provider {
	return &Provider{
		repo:       repo,
		logger:     logger,
		validate:   validate,
		translator: translator,
	}
}

// Get returns the cached settings, loading them on first use. It never fails:
// a missing or unreadable record yields Defaults.
func (p *Provider) Get(ctx context.Context) Settings {
	p.mu.RLock()
	if p.cached != nil {
		s := *p.cached
		p.mu.RUnlock()
		return s
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cached != nil {
		return *p.cached
	}

	s, err := p.repo.GetSettings(ctx)
	switch {
	case err == nil:
		s = s.withDefaults()
	case errors.Cause(err) == ErrNotFound:
		s = Defaults()
	default:
		p.logger.Warn("loading merit settings failed, using defaults", errors.Wrap(err, "getting settings"))
		// do not cache: the store may recover
		return Defaults()
	}
	p.cached = &s
	return s
}

// Invalidate drops the cached settings.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	p.cached = nil
	p.mu.Unlock()
}

// Update validates and saves `s`, then invalidates the cache.
func (p *Provider) Update(ctx context.Context, s Settings) (Settings, error) {
	if err := core.ValidateStruct(p.validate, p.translator, s); err != nil {
		return Settings{}, err
	}
	if err := s.ValidateBounds(); err != nil {
		return Settings{}, err
	}
	if err := p.repo.SaveSettings(ctx, s); err != nil {
		return Settings{}, errors.Wrap(err, "saving settings")
	}
	p.Invalidate()
	return p.Get(ctx), nil
}

func (p *Provider) IsMeritProcessEnabled(ctx context.Context) bool {
	return p.Get(ctx).EnableMeritProcess
}

func (p *Provider) IsMeritMandatory(ctx context.Context) bool {
	return p.Get(ctx).IsMeritMandatory()
}
