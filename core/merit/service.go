package merit

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/meritlist/core"
	"github.com/trezcool/meritlist/core/settings"
	"github.com/trezcool/meritlist/core/user"
)

var NowFunc = time.Now // mockable

func now() time.Time { return NowFunc().UTC() }

type (
	// SettingsGetter returns the current merit settings; it must never fail.
	SettingsGetter interface {
		Get(ctx context.Context) settings.Settings
	}

	Deps struct {
		Repo       Repository
		Settings   SettingsGetter
		Authorizer user.Authorizer
		Mailer     core.EmailService
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
	}

	Service struct {
		repo       Repository
		settings   SettingsGetter
		authorizer user.Authorizer
		notifier   notifier
		logger     core.Logger
		validate   *validator.Validate
		translator ut.Translator
		rankLocks  rankLocks
	}
)

func NewService(deps Deps) *Service {
	return &Service{
		repo:       deps.Repo,
		settings:   deps.Settings,
		authorizer: deps.Authorizer,
		notifier:   notifier{mailer: deps.Mailer},
		logger:     deps.Logger,
		validate:   deps.Validate,
		translator: deps.Translator,
	}
}

func errMeritDisabled() error {
	msg := "merit list process is disabled"
	return core.NewValidationError(errors.New(msg), core.FieldError{Field: "enable_merit_process", Error: msg})
}

// save derives, validates and persists `s` against its stored version `orig`.
func (svc *Service) save(ctx context.Context, repo Repository, orig, s Submission, mode WriteMode) (Submission, error) {
	s.FinalizePercentageAndGrade()
	if err := s.ValidateScoreConsistency(); err != nil {
		return Submission{}, err
	}
	if err := s.EnforceFieldLock(orig, mode); err != nil {
		return Submission{}, err
	}
	s.UpdatedAt = now()
	s, err := repo.UpdateSubmission(ctx, s)
	return s, errors.Wrap(err, "updating merit submission")
}

func (svc *Service) CreateSubmission(ctx context.Context, ns NewSubmission) (Submission, error) {
	if !svc.settings.Get(ctx).EnableMeritProcess {
		return Submission{}, errMeritDisabled()
	}

	ns.clean()
	if err := core.ValidateStruct(svc.validate, svc.translator, ns); err != nil {
		return Submission{}, err
	}

	nw := now()
	s := Submission{
		ApplicantID:                ns.ApplicantID,
		ApplicantName:              ns.ApplicantName,
		ApplicantEmail:             ns.ApplicantEmail,
		AcademicYear:               ns.AcademicYear,
		Program:                    ns.Program,
		Category:                   ns.Category,
		Scores:                     scoreRecords(ns.Scores),
		MaximumPossibleScore:       ns.MaximumPossibleScore,
		SubmissionStatus:           StatusDraft,
		ValidationStatus:           ValidationPending,
		DocumentVerificationStatus: DocumentPending,
		SupportingDocuments:        ns.SupportingDocuments,
		TeacherComments:            ns.TeacherComments,
		DocStatus:                  DocDraft,
		CreatedAt:                  nw,
		UpdatedAt:                  nw,
	}
	if ns.TotalScore != nil {
		s.TotalScore = *ns.TotalScore
	} else {
		s.TotalScore = core.Round2(s.ScoresSum())
	}

	s.FinalizePercentageAndGrade()
	if err := s.ValidateScoreConsistency(); err != nil {
		return Submission{}, err
	}
	s, err := svc.repo.CreateSubmission(ctx, s)
	return s, errors.Wrap(err, "creating merit submission")
}

func (svc *Service) GetSubmission(ctx context.Context, id string) (Submission, error) {
	return svc.repo.GetSubmission(ctx, id)
}

func (svc *Service) QuerySubmissions(ctx context.Context, filter SubmissionFilter) ([]Submission, error) {
	return svc.repo.QuerySubmissions(ctx, filter, core.Desc(FieldSerial))
}

// UpdateSubmission applies `us` on behalf of `actor`.
// When scores are replaced without a total, the total becomes their sum.
func (svc *Service) UpdateSubmission(ctx context.Context, actor user.User, id string, us UpdateSubmission) (Submission, error) {
	if err := core.ValidateStruct(svc.validate, svc.translator, us); err != nil {
		return Submission{}, err
	}
	conf := svc.settings.Get(ctx)
	mode := WriteMode{
		Elevated:          svc.authorizer.CanElevatedWrite(actor),
		AllowModification: conf.AllowScoreModificationAfterValidation,
	}

	var updated Submission
	err := svc.repo.RunInTx(ctx, func(repo Repository) error {
		orig, err := repo.GetSubmission(ctx, id)
		if err != nil {
			return err
		}
		if orig.DocStatus == DocCancelled {
			return core.NewTerminalStateError("merit submission", id)
		}

		s := orig.Clone()
		us.apply(&s)
		if us.Scores != nil && us.TotalScore == nil {
			s.TotalScore = core.Round2(s.ScoresSum())
		}
		updated, err = svc.save(ctx, repo, orig, s, mode)
		return err
	})
	return updated, err
}

// DeleteSubmission deletes a Draft submission.
func (svc *Service) DeleteSubmission(ctx context.Context, id string) error {
	return svc.repo.RunInTx(ctx, func(repo Repository) error {
		s, err := repo.GetSubmission(ctx, id)
		if err != nil {
			return err
		}
		if s.DocStatus != DocDraft {
			return core.NewPermissionError("docstatus", "only draft merit submissions can be deleted")
		}
		return errors.Wrap(repo.DeleteSubmission(ctx, id), "deleting merit submission")
	})
}

// Submit finalizes a Draft submission.
func (svc *Service) Submit(ctx context.Context, id string) (Submission, error) {
	conf := svc.settings.Get(ctx)
	if !conf.EnableMeritProcess {
		return Submission{}, errMeritDisabled()
	}

	var submitted Submission
	err := svc.repo.RunInTx(ctx, func(repo Repository) error {
		orig, err := repo.GetSubmission(ctx, id)
		if err != nil {
			return err
		}
		if orig.DocStatus != DocDraft {
			return core.NewTerminalStateError("merit submission", id)
		}
		if conf.DocumentUploadMandatory && core.CleanString(orig.SupportingDocuments) == "" {
			msg := "supporting documents are required"
			return core.NewValidationError(errors.New(msg), core.FieldError{Field: "supporting_documents", Error: msg})
		}

		s := orig.Clone()
		s.onFinalize(now())
		submitted, err = svc.save(ctx, repo, orig, s, WriteMode{System: true})
		return err
	})
	if err != nil {
		return Submission{}, err
	}

	if conf.NotifyOnSubmission {
		svc.notifier.submissionReceived(submitted)
	}
	return submitted, nil
}

// Cancel cancels a committed submission and deletes its open validations.
func (svc *Service) Cancel(ctx context.Context, id string) (Submission, error) {
	conf := svc.settings.Get(ctx)

	var cancelled Submission
	err := svc.repo.RunInTx(ctx, func(repo Repository) error {
		orig, err := repo.GetSubmission(ctx, id)
		if err != nil {
			return err
		}
		if orig.DocStatus != DocCommitted {
			msg := "only submitted merit submissions can be cancelled"
			return core.NewValidationError(errors.New(msg), core.FieldError{Field: "docstatus", Error: msg})
		}

		s := orig.Clone()
		s.onCancel()
		mode := WriteMode{System: true, AllowModification: conf.AllowScoreModificationAfterValidation}
		if cancelled, err = svc.save(ctx, repo, orig, s, mode); err != nil {
			return err
		}

		_, err = repo.DeleteValidations(ctx, ValidationFilter{SubmissionID: id, DocStatus: DocStatusPtr(DocDraft)})
		return errors.Wrap(err, "deleting open validations")
	})
	return cancelled, err
}

const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// ValidateSubmission approves or rejects a committed submission directly, without a Validation record.
func (svc *Service) ValidateSubmission(ctx context.Context, actor user.User, id, action, comments string) (Submission, error) {
	if !svc.authorizer.CanElevatedWrite(actor) {
		return Submission{}, core.NewPermissionError("validation_status", "insufficient permissions to validate merit submissions")
	}
	if action != ActionApprove && action != ActionReject {
		msg := "action must be one of approve or reject"
		return Submission{}, core.NewValidationError(errors.New(msg), core.FieldError{Field: "action", Error: msg})
	}
	conf := svc.settings.Get(ctx)
	comments = core.CleanString(comments)

	var validated Submission
	err := svc.repo.RunInTx(ctx, func(repo Repository) error {
		orig, err := repo.GetSubmission(ctx, id)
		if err != nil {
			return err
		}
		if !orig.IsCommitted() {
			msg := "only submitted merit submissions can be validated"
			return core.NewValidationError(errors.New(msg), core.FieldError{Field: "docstatus", Error: msg})
		}

		s := orig.Clone()
		if action == ActionApprove {
			s.Approve(actor.Name(), now())
			if comments != "" {
				s.Remarks = comments
			}
		} else {
			s.Reject(comments)
		}
		mode := WriteMode{System: true, AllowModification: conf.AllowScoreModificationAfterValidation}
		validated, err = svc.save(ctx, repo, orig, s, mode)
		return err
	})
	if err != nil {
		return Submission{}, err
	}

	svc.afterDecision(ctx, conf, validated, actor.Email)
	return validated, nil
}

// afterDecision notifies and re-ranks once a decision is committed. Failures are logged only.
func (svc *Service) afterDecision(ctx context.Context, conf settings.Settings, s Submission, validatorEmail string) {
	if conf.NotifyOnValidation {
		svc.notifier.validationUpdated(s, validatorEmail)
	}
	if conf.AutoGenerateRankings {
		scope := Scope{AcademicYear: s.AcademicYear}
		if conf.ProgramRankingEnabled {
			scope.Program = s.Program
		}
		if _, err := svc.Rank(ctx, scope); err != nil {
			svc.logger.Error("merit.afterDecision: "+err.Error(), err)
		}
	}
}

// UpdateDocumentVerification sets the document verification status of a submission.
// A Verified status approves a committed, still pending submission when auto approval is enabled.
func (svc *Service) UpdateDocumentVerification(ctx context.Context, actor user.User, id string, status DocumentStatus) (Submission, error) {
	if !svc.authorizer.CanElevatedWrite(actor) {
		return Submission{}, core.NewPermissionError("document_verification_status",
			"insufficient permissions to update document verification status")
	}
	if !isDocumentStatus(status) {
		msg := "invalid document verification status"
		return Submission{}, core.NewValidationError(errors.New(msg),
			core.FieldError{Field: "document_verification_status", Error: msg})
	}
	conf := svc.settings.Get(ctx)

	var updated Submission
	err := svc.repo.RunInTx(ctx, func(repo Repository) error {
		if err := repo.SetDocumentVerification(ctx, id, status); err != nil {
			return err
		}
		s, err := repo.GetSubmission(ctx, id)
		if err != nil {
			return err
		}
		updated = s

		if status == DocumentVerified && conf.AutoApproveOnVerifiedDocs &&
			s.IsCommitted() && s.ValidationStatus == ValidationPending {
			approved := s.Clone()
			approved.Approve(actor.Name(), now())
			updated, err = svc.save(ctx, repo, s, approved, WriteMode{System: true})
		}
		return err
	})
	return updated, err
}

func isDocumentStatus(status DocumentStatus) bool {
	for _, s := range allDocumentStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Requirement reports whether an applicant still needs a merit submission.
type Requirement struct {
	Required  bool   `json:"required"`
	Satisfied bool   `json:"satisfied"`
	Message   string `json:"message"`
}

// CheckMeritRequirement checks whether `applicantID` has the committed submission the settings may require.
func (svc *Service) CheckMeritRequirement(ctx context.Context, applicantID string) (Requirement, error) {
	conf := svc.settings.Get(ctx)
	if !(conf.EnableMeritProcess && conf.IsMeritMandatory()) {
		return Requirement{Satisfied: true, Message: "merit list submission is not required"}, nil
	}

	n, err := svc.repo.CountSubmissions(ctx, SubmissionFilter{
		ApplicantID: core.CleanString(applicantID),
		DocStatus:   DocStatusPtr(DocCommitted),
	})
	if err != nil {
		return Requirement{}, errors.Wrap(err, "counting merit submissions")
	}
	if n == 0 {
		return Requirement{Required: true, Message: "merit list submission is required before approving or admitting the applicant"}, nil
	}
	return Requirement{Required: true, Satisfied: true, Message: "merit list submission found"}, nil
}
