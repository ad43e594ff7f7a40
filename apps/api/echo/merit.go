package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/meritlist/core"
	"github.com/trezcool/meritlist/core/merit"
	"github.com/trezcool/meritlist/core/user"
)

var errSubmissionNotInCtx = errors.New("merit submission not found in echo.Context")

type meritApi struct {
	svc        *merit.Service
	authorizer user.Authorizer
}

func registerMeritAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *merit.Service, authorizer user.Authorizer) {
	api := meritApi{svc: svc, authorizer: authorizer}
	elevated := elevatedMiddleware(authorizer)
	reviewer := reviewerMiddleware(authorizer)

	mg := g.Group("/merit", jwt)

	// submissions
	sg := mg.Group("/submissions")
	sg.POST("", api.createSubmission)
	sg.GET("", api.querySubmissions)

	dg := sg.Group("/:id", submissionMiddleware(svc, authorizer))
	dg.GET("", api.retrieveSubmission)
	dg.PUT("", api.updateSubmission)
	dg.DELETE("", api.destroySubmission)
	dg.POST("/submit", api.submit)
	dg.POST("/cancel", api.cancel)
	dg.POST("/validate", api.validateSubmission, elevated)
	dg.PUT("/document-verification", api.updateDocumentVerification, elevated)
	dg.POST("/validation", api.openValidation, elevated)

	// validations
	vg := mg.Group("/validations", elevated)
	vg.GET("/pending", api.pendingValidations)
	vg.GET("/:id", api.retrieveValidation)
	vg.PUT("/:id", api.updateValidation)
	vg.POST("/:id/finalize", api.finalizeValidation)

	// rankings & lists
	mg.GET("/ranking", api.ranking, reviewer)
	mg.POST("/list", api.generateList, reviewer)
	mg.POST("/list/refresh", api.refreshRanking, elevated)
	mg.GET("/dashboard", api.dashboard, reviewer)

	mg.GET("/applicants/:id/requirement", api.checkRequirement)
}

// Handlers

func (api *meritApi) createSubmission(ctx echo.Context) error {
	var data merit.NewSubmission
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}

	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	// applicants submit for themselves
	if !isReviewer(usr, api.authorizer) {
		data.ApplicantID = usr.ID
	}

	s, err := api.svc.CreateSubmission(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating merit submission")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *meritApi) querySubmissions(ctx echo.Context) error {
	filter, err := bindSubmissionFilter(ctx)
	if err != nil {
		return err
	}

	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !isReviewer(usr, api.authorizer) {
		filter.ApplicantID = usr.ID
	}

	subs, err := api.svc.QuerySubmissions(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying merit submissions")
	}
	if subs == nil {
		subs = []merit.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *meritApi) retrieveSubmission(ctx echo.Context) error {
	s, err := contextSubmission(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *meritApi) updateSubmission(ctx echo.Context) error {
	s, err := contextSubmission(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}

	var data merit.UpdateSubmission
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	s, err = api.svc.UpdateSubmission(ctx.Request().Context(), usr, s.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating merit submission")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *meritApi) destroySubmission(ctx echo.Context) error {
	s, err := contextSubmission(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}
	if err := api.svc.DeleteSubmission(ctx.Request().Context(), s.ID); err != nil {
		return errors.Wrap(err, "deleting merit submission")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *meritApi) submit(ctx echo.Context) error {
	s, err := contextSubmission(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}
	s, err = api.svc.Submit(ctx.Request().Context(), s.ID)
	if err != nil {
		return errors.Wrap(err, "submitting merit submission")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *meritApi) cancel(ctx echo.Context) error {
	s, err := contextSubmission(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}
	s, err = api.svc.Cancel(ctx.Request().Context(), s.ID)
	if err != nil {
		return errors.Wrap(err, "cancelling merit submission")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *meritApi) validateSubmission(ctx echo.Context) error {
	s, err := contextSubmission(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}
	var data ValidateRequest
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	s, err = api.svc.ValidateSubmission(ctx.Request().Context(), usr, s.ID, core.CleanString(data.Action, true /* lower */), data.Comments)
	if err != nil {
		return errors.Wrap(err, "validating merit submission")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *meritApi) updateDocumentVerification(ctx echo.Context) error {
	s, err := contextSubmission(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}
	var data DocumentVerificationRequest
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	s, err = api.svc.UpdateDocumentVerification(ctx.Request().Context(), usr, s.ID, data.Status)
	if err != nil {
		return errors.Wrap(err, "updating document verification")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *meritApi) openValidation(ctx echo.Context) error {
	s, err := contextSubmission(ctx)
	if err != nil {
		return errors.Wrap(err, "retrieving object from context")
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	v, err := api.svc.OpenValidation(ctx.Request().Context(), usr, s.ID)
	if err != nil {
		return errors.Wrap(err, "opening merit validation")
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *meritApi) pendingValidations(ctx echo.Context) error {
	limit, err := bindLimit(ctx)
	if err != nil {
		return err
	}

	vals, err := api.svc.PendingValidations(ctx.Request().Context(), limit)
	if err != nil {
		return errors.Wrap(err, "querying pending validations")
	}
	if vals == nil {
		vals = []merit.Validation{}
	}
	return ctx.JSON(http.StatusOK, vals)
}

func (api *meritApi) retrieveValidation(ctx echo.Context) error {
	v, err := api.svc.GetValidation(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding merit validation")
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *meritApi) updateValidation(ctx echo.Context) error {
	var data merit.UpdateValidation
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	v, err := api.svc.UpdateValidation(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating merit validation")
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *meritApi) finalizeValidation(ctx echo.Context) error {
	var data merit.FinalizeValidation
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	v, s, err := api.svc.FinalizeValidation(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "finalizing merit validation")
	}
	return ctx.JSON(http.StatusOK, FinalizeResponse{Validation: v, Submission: s})
}

func (api *meritApi) ranking(ctx echo.Context) error {
	scope, err := bindScope(ctx)
	if err != nil {
		return err
	}
	ranked, err := api.svc.GetMeritRanking(ctx.Request().Context(), scope)
	if err != nil {
		return errors.Wrap(err, "ranking merit submissions")
	}
	if ranked == nil {
		ranked = []merit.Submission{}
	}
	return ctx.JSON(http.StatusOK, ranked)
}

func (api *meritApi) generateList(ctx echo.Context) error {
	var scope merit.Scope
	if err := bindJSON(ctx, &scope); err != nil {
		return err
	}
	ml, err := api.svc.GenerateMeritList(ctx.Request().Context(), scope)
	if err != nil {
		return errors.Wrap(err, "generating merit list")
	}
	return ctx.JSON(http.StatusOK, ml)
}

func (api *meritApi) refreshRanking(ctx echo.Context) error {
	var scope merit.Scope
	if err := bindJSON(ctx, &scope); err != nil {
		return err
	}
	ml, err := api.svc.RefreshRanking(ctx.Request().Context(), scope)
	if err != nil {
		return errors.Wrap(err, "refreshing merit ranking")
	}
	return ctx.JSON(http.StatusOK, ml)
}

func (api *meritApi) dashboard(ctx echo.Context) error {
	dc, err := api.svc.DashboardCounts(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "counting merit submissions")
	}
	return ctx.JSON(http.StatusOK, dc)
}

func (api *meritApi) checkRequirement(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	applicantID := ctx.Param("id")
	if !canAccessApplicant(usr, api.authorizer, applicantID) {
		return errHttpNotFound
	}

	req, err := api.svc.CheckMeritRequirement(ctx.Request().Context(), applicantID)
	if err != nil {
		return errors.Wrap(err, "checking merit requirement")
	}
	return ctx.JSON(http.StatusOK, req)
}

type (
	ValidateRequest struct {
		Action   string `json:"action"`
		Comments string `json:"comments"`
	}

	DocumentVerificationRequest struct {
		Status merit.DocumentStatus `json:"status"`
	}

	FinalizeResponse struct {
		Validation merit.Validation `json:"validation"`
		Submission merit.Submission `json:"merit_submission"`
	}
)
