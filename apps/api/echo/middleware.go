package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/meritlist/core/merit"
	"github.com/trezcool/meritlist/core/user"
)

const contextObjectKey = "object"

// elevatedMiddleware lets through the users allowed to perform elevated writes.
func elevatedMiddleware(authorizer user.Authorizer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if authorizer.CanElevatedWrite(usr) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// isReviewer reports whether `usr` may see the records of every applicant.
func isReviewer(usr user.User, authorizer user.Authorizer) bool {
	return authorizer.CanElevatedWrite(usr) || usr.IsStaff() || usr.RoleStartsWith(user.RoleTeacher)
}

// canAccessApplicant reports whether `usr` may see the records of applicant `applicantID`.
// Applicants only see their own records.
func canAccessApplicant(usr user.User, authorizer user.Authorizer, applicantID string) bool {
	return isReviewer(usr, authorizer) || (usr.IsApplicant() && usr.ID == applicantID)
}

// reviewerMiddleware lets through admins, staff and teachers.
func reviewerMiddleware(authorizer user.Authorizer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if isReviewer(usr, authorizer) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// submissionMiddleware loads the submission `:id` into the context.
// Submissions the user may not access are reported as not found.
func submissionMiddleware(svc *merit.Service, authorizer user.Authorizer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}

			s, err := svc.GetSubmission(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == merit.ErrSubmissionNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding merit submission")
			}
			if !canAccessApplicant(usr, authorizer, s.ApplicantID) {
				return errHttpNotFound
			}
			ctx.Set(contextObjectKey, s)
			return next(ctx)
		}
	}
}

func contextSubmission(ctx echo.Context) (merit.Submission, error) {
	s, ok := ctx.Get(contextObjectKey).(merit.Submission)
	if !ok {
		return merit.Submission{}, errSubmissionNotInCtx
	}
	return s, nil
}
