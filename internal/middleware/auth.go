package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"tutor-server/internal/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const userIDKey = "user_id"

// TokenVerifier проверяет access-токен.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, tokenString string) (*models.Claims, error)
}

// RequireUser пропускает только запросы с действительным токеном.
// Токен берется из заголовка Authorization: Bearer или из параметра ?token=
// (браузеры не умеют задавать заголовки при открытии websocket).
func RequireUser(verifier TokenVerifier, logger *zap.Logger) echo.MiddlewareFunc {
	log := logger.Named("AuthMiddleware")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, err := extractToken(c)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			claims, err := verifier.VerifyToken(c.Request().Context(), token)
			if err != nil {
				log.Debug("Token rejected", zap.Error(err))
				message := "Token is invalid"
				if errors.Is(err, models.ErrTokenExpired) {
					message = "Token has expired"
				}
				return echo.NewHTTPError(http.StatusUnauthorized, message)
			}

			c.Set(userIDKey, claims.UserID.String())
			ctx := models.ContextWithUserID(c.Request().Context(), claims.UserID)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func extractToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		if token := c.QueryParam("token"); token != "" {
			return token, nil
		}
		return "", errors.New("Authorization header missing")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.New("Invalid Authorization header format")
	}
	return strings.TrimSpace(parts[1]), nil
}

// UserID возвращает пользователя, установленного RequireUser.
func UserID(c echo.Context) (uuid.UUID, error) {
	userID, ok := models.GetUserIDFromContext(c.Request().Context())
	if !ok {
		return uuid.Nil, models.ErrUnauthorized
	}
	return userID, nil
}
