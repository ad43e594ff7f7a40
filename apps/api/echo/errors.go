package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/meritlist/core"
	"github.com/trezcool/meritlist/core/merit"
	"github.com/trezcool/meritlist/core/user"
)

var (
	errUnauthorized  = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound  = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		case *core.RangeError:
			code = http.StatusBadRequest
			message = map[string]string{origErr.Field: origErr.Error()}
		case *core.PermissionError:
			code = http.StatusForbidden
			message = map[string]string{origErr.Field: origErr.Message}
		case *core.TerminalStateError:
			code = http.StatusConflict
			message = origErr.Error()
		default:
			switch origErr {
			case merit.ErrSubmissionNotFound, merit.ErrValidationNotFound:
				code = http.StatusNotFound
				message = origErr.Error()
			case merit.ErrValidationExists:
				code = http.StatusConflict
				message = origErr.Error()
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				var usr user.User
				if claims, cErr := getContextClaims(ctx); cErr == nil {
					usr = claims.User()
				}
				logger.Error(msg, errors.Wrap(err, msg), usr)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
