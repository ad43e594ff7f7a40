package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/meritlist/core"
	"github.com/trezcool/meritlist/core/user"
)

const (
	contextTokenKey = "userToken"
	tokenAudience   = "Admissions"
)

// Claims represents the authorization claims transmitted via a JWT.
// Users are managed by the identity provider; the token is the only source of the actor.
type Claims struct {
	jwt.StandardClaims
	Username string   `json:"username,omitempty"`
	Email    string   `json:"email,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// User returns the actor the claims were issued for.
func (c Claims) User() user.User {
	return user.User{
		ID:       c.Subject,
		Username: c.Username,
		Email:    c.Email,
		Roles:    c.Roles,
	}
}

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

// GetUserClaims returns the claims of a token issued now for `usr`.
func GetUserClaims(conf *core.Config, usr user.User) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   usr.ID,
			Audience:  tokenAudience,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username: usr.Username,
		Email:    usr.Email,
		Roles:    usr.Roles,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.GetSigningMethod(middleware.AlgorithmHS256), claims)

	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context) (user.User, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.User{}, err
	}
	return claims.User(), nil
}
