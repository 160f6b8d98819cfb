package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"bigfive-api/internal/service"
)

const adminClaimsKey = "admin_claims"

// RequireAdmin exige un access token del panel. Sin JWT_SECRET responde 503
// para que el panel pueda distinguir "deshabilitado" de "no autorizado".
func RequireAdmin(jwtSvc *service.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !jwtSvc.Configured() {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "admin access not configured"})
			return
		}
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}
		claims, err := jwtSvc.ParseAccessToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": authErrorMessage(err)})
			return
		}
		if claims.Subject != service.AdminSubject {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Set(adminClaimsKey, claims)
		c.Next()
	}
}

// AdminClaims devuelve los claims que dejo RequireAdmin.
func AdminClaims(c *gin.Context) (service.Claims, bool) {
	val, ok := c.Get(adminClaimsKey)
	if !ok {
		return service.Claims{}, false
	}
	claims, ok := val.(service.Claims)
	return claims, ok
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func authErrorMessage(err error) string {
	if errors.Is(err, service.ErrJWTExpired) {
		return "token expired"
	}
	return "invalid token"
}
