package testutil

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/meritlist/core"
	"github.com/trezcool/meritlist/core/merit"
	"github.com/trezcool/meritlist/core/settings"
	"github.com/trezcool/meritlist/core/user"
	"github.com/trezcool/meritlist/fs"
	"github.com/trezcool/meritlist/services/email"
	"github.com/trezcool/meritlist/services/logger"
	"github.com/trezcool/meritlist/storage/database/dummy"
)

var (
	Admin     = user.User{ID: "u-admin", Username: "admin", Email: "admin@test.cd", Roles: []string{user.RoleAdmin}}
	Academics = user.User{ID: "u-acad", Username: "academics", Email: "Academics@Test.cd", Roles: []string{user.RoleAcademics}}
	Teacher   = user.User{ID: "u-teach", Username: "teacher", Email: "teacher@test.cd", Roles: []string{user.RoleTeacher}}
	Applicant = user.User{ID: "u-app", Username: "applicant", Email: "applicant@test.cd", Roles: []string{user.RoleApplicant}}

	parseTemplates sync.Once
)

// NewValidator returns a validator with every custom tag registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	merit.InitValidators(validate, translator)
	return validate, translator
}

// NewLogger returns a logger that discards its output.
func NewLogger(conf *core.Config) *logsvc.RollbarLogger {
	return logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
}

// Env is a merit service wired to an in-memory store.
type Env struct {
	Conf     *core.Config
	DB       *dummydb.DB
	Repo     merit.Repository
	Settings *settings.Provider
	Mailer   *emailsvc.ConsoleServiceMock
	Logger   core.Logger
	Validate *validator.Validate
	Trans    ut.Translator
	Svc      *merit.Service
}

// NewEnv builds an Env whose stored settings are the defaults modified by `opts`.
func NewEnv(t *testing.T, opts ...func(s *settings.Settings)) *Env {
	t.Helper()

	conf := core.NewTestConfig()
	logger := NewLogger(conf)
	parseTemplates.Do(func() {
		core.ParseEmailTemplates(appfs.FS, appfs.TemplatesDir, logger)
	})

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	validate, translator := NewValidator()

	env := &Env{
		Conf:     conf,
		DB:       db,
		Repo:     dummydb.NewMeritRepository(db),
		Mailer:   emailsvc.NewConsoleServiceMock(conf, logger),
		Logger:   logger,
		Validate: validate,
		Trans:    translator,
	}
	env.Settings = settings.NewProvider(dummydb.NewSettingsRepository(db), logger, validate, translator)
	env.SetSettings(t, opts...)

	env.Svc = merit.NewService(merit.Deps{
		Repo:       env.Repo,
		Settings:   env.Settings,
		Authorizer: user.NewRoleAuthorizer(conf.Merit.ElevatedRoles...),
		Mailer:     env.Mailer,
		Logger:     logger,
		Validate:   validate,
		Translator: translator,
	})
	return env
}

// SetSettings saves the defaults modified by `opts`.
func (env *Env) SetSettings(t *testing.T, opts ...func(s *settings.Settings)) settings.Settings {
	t.Helper()

	s := settings.Defaults()
	for _, opt := range opts {
		opt(&s)
	}
	s, err := env.Settings.Update(context.Background(), s)
	if err != nil {
		t.Fatalf("SetSettings() failed: %v", err)
	}
	return s
}

// Scores builds ScoreInputs out of (subject, score, maximum) triples.
func Scores(triples ...interface{}) []merit.ScoreInput {
	inputs := make([]merit.ScoreInput, 0, len(triples)/3)
	for i := 0; i+2 < len(triples); i += 3 {
		inputs = append(inputs, merit.ScoreInput{
			Subject:      triples[i].(string),
			Score:        toFloat(triples[i+1]),
			MaximumScore: toFloat(triples[i+2]),
		})
	}
	return inputs
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case float64:
		return n
	}
	panic("testutil: score must be an int or a float64")
}

func NewSubmission(applicantID, name, year string, total, max float64) merit.NewSubmission {
	return merit.NewSubmission{
		ApplicantID:          applicantID,
		ApplicantName:        name,
		ApplicantEmail:       applicantID + "@test.cd",
		AcademicYear:         year,
		TotalScore:           &total,
		MaximumPossibleScore: max,
		SupportingDocuments:  "/files/" + applicantID + ".pdf",
	}
}

// CreateSubmission creates a draft submission.
func (env *Env) CreateSubmission(t *testing.T, ns merit.NewSubmission) merit.Submission {
	t.Helper()

	s, err := env.Svc.CreateSubmission(context.Background(), ns)
	if err != nil {
		t.Fatalf("CreateSubmission() failed: %v", err)
	}
	return s
}

// SubmitSubmission creates and submits a submission.
func (env *Env) SubmitSubmission(t *testing.T, ns merit.NewSubmission) merit.Submission {
	t.Helper()

	s := env.CreateSubmission(t, ns)
	s, err := env.Svc.Submit(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("Submit() failed: %v", err)
	}
	return s
}

// ApproveSubmission creates, submits and approves a submission.
func (env *Env) ApproveSubmission(t *testing.T, ns merit.NewSubmission) merit.Submission {
	t.Helper()

	s := env.SubmitSubmission(t, ns)
	s, err := env.Svc.ValidateSubmission(context.Background(), Admin, s.ID, merit.ActionApprove, "")
	if err != nil {
		t.Fatalf("ValidateSubmission() failed: %v", err)
	}
	return s
}
