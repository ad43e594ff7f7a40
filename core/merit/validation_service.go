package merit

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/meritlist/core"
	"github.com/trezcool/meritlist/core/user"
)

func (svc *Service) checkValidator(actor user.User) error {
	if !svc.authorizer.CanElevatedWrite(actor) {
		return core.NewPermissionError("validator", "insufficient permissions to validate merit submissions")
	}
	return nil
}

// OpenValidation returns the validation of a committed submission, creating it on first call.
func (svc *Service) OpenValidation(ctx context.Context, actor user.User, submissionID string) (Validation, error) {
	if err := svc.checkValidator(actor); err != nil {
		return Validation{}, err
	}

	var v Validation
	err := svc.repo.RunInTx(ctx, func(repo Repository) error {
		existing, err := repo.GetValidationBySubmission(ctx, submissionID)
		if err == nil {
			v = existing
			return nil
		} else if errors.Cause(err) != ErrValidationNotFound {
			return err
		}

		orig, err := repo.GetSubmission(ctx, submissionID)
		if err != nil {
			return err
		}
		if !orig.IsCommitted() {
			msg := "merit submission must be submitted before validation"
			return core.NewValidationError(errors.New(msg), core.FieldError{Field: "merit_submission", Error: msg})
		}

		nw := now()
		v = Validation{
			SubmissionID:       orig.ID,
			ApplicantName:      orig.ApplicantName,
			Validator:          actor.Name(),
			ValidatorEmail:     actor.Email,
			OriginalTotalScore: orig.TotalScore,
			OriginalPercentage: orig.PercentageScore,
			VerifiedTotalScore: orig.TotalScore,
			FinalDecision:      DecisionPending,
			DocStatus:          DocDraft,
			ValidationDate:     nw,
			CreatedAt:          nw,
			UpdatedAt:          nw,
		}
		v.Recompute(orig.MaximumPossibleScore)
		if v, err = repo.CreateValidation(ctx, v); err != nil {
			return errors.Wrap(err, "creating merit validation")
		}

		s := orig.Clone()
		s.onReviewStarted()
		if s.SubmissionStatus != orig.SubmissionStatus || s.DocumentVerificationStatus != orig.DocumentVerificationStatus {
			_, err = svc.save(ctx, repo, orig, s, WriteMode{System: true})
		}
		return err
	})
	return v, err
}

func (svc *Service) GetValidation(ctx context.Context, id string) (Validation, error) {
	return svc.repo.GetValidation(ctx, id)
}

// PendingValidations returns the open validations, newest first.
func (svc *Service) PendingValidations(ctx context.Context, limit int) ([]Validation, error) {
	return svc.repo.QueryValidations(ctx,
		ValidationFilter{DocStatus: DocStatusPtr(DocDraft), Limit: limit},
		core.Desc(FieldCreatedAt),
	)
}

// UpdateValidation changes the verified score or the comments of an open validation.
func (svc *Service) UpdateValidation(ctx context.Context, actor user.User, id string, uv UpdateValidation) (Validation, error) {
	if err := svc.checkValidator(actor); err != nil {
		return Validation{}, err
	}
	if err := core.ValidateStruct(svc.validate, svc.translator, uv); err != nil {
		return Validation{}, err
	}

	var updated Validation
	err := svc.repo.RunInTx(ctx, func(repo Repository) error {
		v, err := repo.GetValidation(ctx, id)
		if err != nil {
			return err
		}
		if v.IsFinalized() {
			return core.NewTerminalStateError("merit validation", id)
		}
		s, err := repo.GetSubmission(ctx, v.SubmissionID)
		if err != nil {
			return err
		}

		if uv.VerifiedTotalScore != nil {
			v.VerifiedTotalScore = *uv.VerifiedTotalScore
		}
		if uv.ValidationComments != nil {
			v.ValidationComments = core.CleanString(*uv.ValidationComments)
		}
		if err := v.checkVerifiedTotal(s); err != nil {
			return err
		}
		v.Recompute(s.MaximumPossibleScore)
		v.UpdatedAt = now()

		updated, err = repo.UpdateValidation(ctx, v)
		return errors.Wrap(err, "updating merit validation")
	})
	return updated, err
}

// FinalizeValidation records the final decision of an open validation and writes it back to its submission.
// Both records are written in one transaction.
func (svc *Service) FinalizeValidation(ctx context.Context, actor user.User, id string, fv FinalizeValidation) (Validation, Submission, error) {
	if err := svc.checkValidator(actor); err != nil {
		return Validation{}, Submission{}, err
	}
	if err := core.ValidateStruct(svc.validate, svc.translator, fv); err != nil {
		return Validation{}, Submission{}, err
	}
	conf := svc.settings.Get(ctx)

	var (
		finalized Validation
		decided   Submission
	)
	err := svc.repo.RunInTx(ctx, func(repo Repository) error {
		v, err := repo.GetValidation(ctx, id)
		if err != nil {
			return err
		}
		if v.IsFinalized() {
			return core.NewTerminalStateError("merit validation", id)
		}
		orig, err := repo.GetSubmission(ctx, v.SubmissionID)
		if err != nil {
			return err
		}

		nw := now()
		if comments := core.CleanString(fv.Comments); comments != "" {
			v.ValidationComments = comments
		}
		v.FinalDecision = fv.Decision
		if v.FinalDecision == DecisionApproved {
			if err := v.checkVerifiedTotal(orig); err != nil {
				return err
			}
		}
		v.Recompute(orig.MaximumPossibleScore)
		v.DocStatus = DocCommitted
		v.ValidationDate = nw
		v.UpdatedAt = nw

		s := orig.Clone()
		v.applyDecision(&s, nw)
		mode := WriteMode{System: true, AllowModification: conf.AllowScoreModificationAfterValidation}
		if decided, err = svc.save(ctx, repo, orig, s, mode); err != nil {
			return err
		}
		finalized, err = repo.UpdateValidation(ctx, v)
		return errors.Wrap(err, "updating merit validation")
	})
	if err != nil {
		return Validation{}, Submission{}, err
	}

	svc.afterDecision(ctx, conf, decided, finalized.ValidatorEmail)
	return finalized, decided, nil
}

// SendValidationReminders emails the validators of the validations left open for more than the configured reminder days.
// It returns the number of reminders sent.
func (svc *Service) SendValidationReminders(ctx context.Context) (int, error) {
	days := svc.settings.Get(ctx).ReminderDays
	if days <= 0 {
		return 0, nil
	}

	cutoff := now().Add(-time.Duration(days) * 24 * time.Hour)
	pending, err := svc.repo.QueryValidations(ctx,
		ValidationFilter{DocStatus: DocStatusPtr(DocDraft), CreatedBefore: cutoff},
		core.Asc(FieldCreatedAt),
	)
	if err != nil {
		return 0, errors.Wrap(err, "querying pending merit validations")
	}

	var sent int
	for _, v := range pending {
		if svc.notifier.validationReminder(v) {
			sent++
		}
	}
	return sent, nil
}
