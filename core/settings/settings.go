package settings

import (
	"context"
	"errors"

	"github.com/trezcool/meritlist/core"
)

const (
	defaultMaxUploadMB  = 10
	defaultReminderDays = 3
	maxUploadMBLimit    = 100
)

var ErrNotFound = errors.New("settings not found")

// Settings is the process-wide merit list configuration record.
type Settings struct {
	EnableMeritProcess                    bool    `json:"enable_merit_process"`
	MeritMandatory                        bool    `json:"merit_mandatory"`
	ValidationRequired                    bool    `json:"validation_required"`
	DocumentUploadMandatory               bool    `json:"document_upload_mandatory"`
	AutoApproveOnVerifiedDocs             bool    `json:"auto_approve_on_verified_docs"`
	DefaultMinimumScore                   float64 `json:"default_minimum_score" validate:"gte=0"`
	MaxUploadMB                           int     `json:"max_upload_mb" validate:"gte=0"`
	CategoryRankingEnabled                bool    `json:"category_ranking_enabled"`
	ProgramRankingEnabled                 bool    `json:"program_ranking_enabled"`
	AutoGenerateRankings                  bool    `json:"auto_generate_rankings"`
	NotifyOnSubmission                    bool    `json:"notify_on_submission"`
	NotifyOnValidation                    bool    `json:"notify_on_validation"`
	ReminderDays                          int     `json:"reminder_days" validate:"gte=0"`
	AllowScoreModificationAfterValidation bool    `json:"allow_score_modification_after_validation"`
}

// Defaults returns the settings used when no record exists or it cannot be read.
func Defaults() Settings {
	return Settings{
		EnableMeritProcess:      true,
		ValidationRequired:      true,
		DocumentUploadMandatory: true,
		MaxUploadMB:             defaultMaxUploadMB,
		CategoryRankingEnabled:  true,
		ProgramRankingEnabled:   true,
		AutoGenerateRankings:    true,
		NotifyOnSubmission:      true,
		NotifyOnValidation:      true,
		ReminderDays:            defaultReminderDays,
	}
}

// withDefaults fills the unset numeric fields of a stored record.
func (s Settings) withDefaults() Settings {
	if s.MaxUploadMB == 0 {
		s.MaxUploadMB = defaultMaxUploadMB
	}
	if s.ReminderDays == 0 {
		s.ReminderDays = defaultReminderDays
	}
	return s
}

// ValidateBounds checks that the upload size limit is within (0, 100] MB.
func (s Settings) ValidateBounds() error {
	if s.MaxUploadMB <= 0 || s.MaxUploadMB > maxUploadMBLimit {
		return core.NewRangeError("max_upload_mb", float64(s.MaxUploadMB), 0, maxUploadMBLimit)
	}
	return nil
}

// IsMeritMandatory reports whether a merit submission is required for admission.
func (s Settings) IsMeritMandatory() bool {
	return s.MeritMandatory && s.EnableMeritProcess
}

// Repository stores the settings singleton.
type Repository interface {
	// GetSettings returns ErrNotFound when the record was never saved.
	GetSettings(ctx context.Context) (Settings, error)
	SaveSettings(ctx context.Context, s Settings) error
}
