package http

import (
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"persona-profiler/internal/service"
)

const authClaimsKey = "auth_claims"

// OptionalAuthMiddleware valida el bearer token si viene y guarda los claims en el
// contexto. Sin token, o con token inválido, la petición sigue como anónima.
func OptionalAuthMiddleware(verifier service.TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if verifier == nil {
			c.Next()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
			c.Next()
			return
		}

		token := strings.TrimSpace(header[len("Bearer "):])
		claims, err := verifier.ParseAccessToken(token)
		if err != nil {
			logger.Debug("ignoring invalid bearer token", zap.Error(err), zap.String("client_ip", c.ClientIP()))
			c.Next()
			return
		}

		c.Set(authClaimsKey, claims)
		c.Next()
	}
}

// GetAuthClaims obtiene claims de JWT desde el contexto.
func GetAuthClaims(c *gin.Context) (service.Claims, bool) {
	val, ok := c.Get(authClaimsKey)
	if !ok {
		return service.Claims{}, false
	}
	claims, ok := val.(service.Claims)
	return claims, ok
}

// callerID es el uid autenticado o "" si la petición es anónima.
func callerID(c *gin.Context) string {
	if claims, ok := GetAuthClaims(c); ok {
		return claims.UserID
	}
	return ""
}
