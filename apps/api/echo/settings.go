package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/meritlist/core/settings"
	"github.com/trezcool/meritlist/core/user"
)

type settingsApi struct {
	provider *settings.Provider
}

func registerSettingsAPI(g *echo.Group, jwt echo.MiddlewareFunc, provider *settings.Provider, authorizer user.Authorizer) {
	api := settingsApi{provider: provider}

	sg := g.Group("/merit/settings", jwt)
	sg.GET("", api.retrieve)
	sg.PUT("", api.update, elevatedMiddleware(authorizer))
	sg.GET("/enabled", api.enabled)
	sg.GET("/mandatory", api.mandatory)
}

func (api *settingsApi) retrieve(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.provider.Get(ctx.Request().Context()))
}

func (api *settingsApi) update(ctx echo.Context) error {
	var data settings.Settings
	if err := bindJSON(ctx, &data); err != nil {
		return err
	}
	s, err := api.provider.Update(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "updating merit settings")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *settingsApi) enabled(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, FlagResponse{Value: api.provider.IsMeritProcessEnabled(ctx.Request().Context())})
}

func (api *settingsApi) mandatory(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, FlagResponse{Value: api.provider.IsMeritMandatory(ctx.Request().Context())})
}

type FlagResponse struct {
	Value bool `json:"value"`
}
