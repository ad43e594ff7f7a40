package settings

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/meritlist/core"
)

type repoMock struct {
	mu     sync.Mutex
	record *Settings
	err    error
	gets   int
}

func (r *repoMock) GetSettings(_ context.Context) (Settings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	if r.err != nil {
		return Settings{}, r.err
	}
	if r.record == nil {
		return Settings{}, ErrNotFound
	}
	return *r.record, nil
}

func (r *repoMock) SaveSettings(_ context.Context, s Settings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.record = &s
	return nil
}

type stdLogger struct{ *log.Logger }

func (l stdLogger) Debug(msg string, _ ...interface{}) { l.Println(msg) }
func (l stdLogger) Info(msg string, _ ...interface{})  { l.Println(msg) }
func (l stdLogger) Warn(msg string, _ ...interface{})  { l.Println(msg) }
func (l stdLogger) Error(msg string, _ ...interface{}) { l.Println(msg) }
func (l stdLogger) Fatal(msg string, _ ...interface{}) { l.Fatalln(msg) }

func newProvider(repo Repository) *Provider {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	return NewProvider(repo, stdLogger{log.New(io.Discard, "", 0)}, validate, translator)
}

func TestProvider_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("missing record", func(t *testing.T) {
		repo := new(repoMock)
		p := newProvider(repo)
		assert.Equal(t, Defaults(), p.Get(ctx))
		assert.Equal(t, Defaults(), p.Get(ctx))
		assert.Equal(t, 1, repo.gets, "defaults are cached")
	})

	t.Run("stored record", func(t *testing.T) {
		repo := &repoMock{record: &Settings{EnableMeritProcess: true, MeritMandatory: true}}
		p := newProvider(repo)
		s := p.Get(ctx)
		assert.True(t, s.IsMeritMandatory())
		assert.False(t, s.ValidationRequired)
		assert.Equal(t, defaultMaxUploadMB, s.MaxUploadMB)
		assert.Equal(t, defaultReminderDays, s.ReminderDays)
		assert.True(t, p.IsMeritMandatory(ctx))
		assert.True(t, p.IsMeritProcessEnabled(ctx))
	})

	t.Run("read failure", func(t *testing.T) {
		repo := &repoMock{err: errors.New("connection refused")}
		p := newProvider(repo)
		assert.Equal(t, Defaults(), p.Get(ctx))

		repo.err = nil
		repo.record = &Settings{EnableMeritProcess: false}
		assert.False(t, p.Get(ctx).EnableMeritProcess, "failures are not cached")
	})
}

func TestProvider_Update(t *testing.T) {
	ctx := context.Background()
	repo := new(repoMock)
	p := newProvider(repo)
	assert.True(t, p.Get(ctx).EnableMeritProcess)

	s := Defaults()
	s.EnableMeritProcess = false
	s.MaxUploadMB = 25
	got, err := p.Update(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, s, got)
	assert.False(t, p.IsMeritProcessEnabled(ctx), "cache is invalidated")

	tests := []struct {
		name  string
		set   func(s *Settings)
		check func(err error) bool
	}{
		{name: "upload limit too high", set: func(s *Settings) { s.MaxUploadMB = 101 }, check: core.IsRangeError},
		{name: "negative upload limit", set: func(s *Settings) { s.MaxUploadMB = -1 }, check: core.IsValidationError},
		{name: "negative minimum score", set: func(s *Settings) { s.DefaultMinimumScore = -1 }, check: core.IsValidationError},
		{name: "negative reminder days", set: func(s *Settings) { s.ReminderDays = -2 }, check: core.IsValidationError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Defaults()
			tt.set(&s)
			_, err := p.Update(ctx, s)
			require.Error(t, err)
			assert.True(t, tt.check(err), "got %v", err)
		})
	}
	assert.Equal(t, 25, repo.record.MaxUploadMB, "invalid settings are not saved")
}

func TestSettings_ValidateBounds(t *testing.T) {
	tests := []struct {
		mb      int
		wantErr bool
	}{
		{mb: 0, wantErr: true},
		{mb: 1},
		{mb: 100},
		{mb: 101, wantErr: true},
	}
	for _, tt := range tests {
		err := Settings{MaxUploadMB: tt.mb}.ValidateBounds()
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateBounds(%d) error = %v, wantErr %v", tt.mb, err, tt.wantErr)
		}
	}
}

func TestSettings_IsMeritMandatory(t *testing.T) {
	assert.False(t, Settings{MeritMandatory: true}.IsMeritMandatory())
	assert.False(t, Settings{EnableMeritProcess: true}.IsMeritMandatory())
	assert.True(t, Settings{EnableMeritProcess: true, MeritMandatory: true}.IsMeritMandatory())
}
