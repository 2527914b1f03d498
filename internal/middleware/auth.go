package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kipngetichbrian48/Bidance/internal/models"
	"github.com/Kipngetichbrian48/Bidance/internal/services"
	"github.com/Kipngetichbrian48/Bidance/pkg/logger"
)

// AuthMiddleware creates a middleware enforcing bearer-token authentication
func AuthMiddleware(verifier services.TokenVerifierInterface) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.GetLogger().WithContext(c.Request.Context())

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Warn("Missing Authorization header",
				zap.String("client_ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)

			appErr := models.NewAppErrorWithDetails(
				models.ErrorCodeMissingToken,
				"Unauthorized: No token provided",
				"Provide a bearer token in the Authorization header",
			)
			models.HandleError(c, appErr, log)
			c.Abort()
			return
		}

		// Accept "Bearer <token>" or a bare token
		token := strings.TrimSpace(authHeader)
		if strings.HasPrefix(strings.ToLower(token), "bearer") {
			token = strings.TrimSpace(token[6:])
		}

		if token == "" {
			log.Warn("Empty token after parsing Authorization header",
				zap.String("client_ip", c.ClientIP()),
			)

			appErr := models.NewAppErrorWithDetails(
				models.ErrorCodeInvalidToken,
				"Unauthorized: Invalid token",
				"Token cannot be empty",
			)
			models.HandleError(c, appErr, log)
			c.Abort()
			return
		}

		verified, err := verifier.VerifyToken(c.Request.Context(), token)
		if err != nil {
			log.Warn("Token verification failed",
				zap.Error(err),
				zap.String("client_ip", c.ClientIP()),
			)

			var appErr *models.AppError
			switch err {
			case services.ErrInvalidToken:
				appErr = models.NewAppError(models.ErrorCodeInvalidToken, "Unauthorized: Invalid token")
			case services.ErrInactiveToken:
				appErr = models.NewAppError(models.ErrorCodeInactiveToken, "Unauthorized: Token is inactive")
			case services.ErrDatabaseError:
				appErr = models.NewAppErrorWithCause(models.ErrorCodeDatabaseError, "Authentication service unavailable", err)
			default:
				appErr = models.NewAppErrorWithCause(models.ErrorCodeInvalidToken, "Authentication failed", err)
			}

			models.HandleError(c, appErr, log)
			c.Abort()
			return
		}

		c.Set("token_id", verified.ID.Hex())
		c.Set("token_name", verified.Name)

		ctx := logger.ContextWithSubjectID(c.Request.Context(), verified.ID.Hex())
		c.Request = c.Request.WithContext(ctx)

		log.Debug("Authentication successful",
			zap.String("token_id", verified.ID.Hex()),
			zap.String("token_name", verified.Name),
		)

		c.Next()
	}
}
