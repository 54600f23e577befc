package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ksef-kenya/judging-api/internal/middleware"
	"github.com/ksef-kenya/judging-api/internal/models"
	"github.com/ksef-kenya/judging-api/internal/service"
	appErrors "github.com/ksef-kenya/judging-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// scopeResolver turns JWT claims into the acting user's full geographic
// scope. Claims carry identity only; the scope fields come from the stored
// user record so revoked or reassigned authority takes effect immediately.
type scopeResolver struct {
	users *service.UserService
}

func (r scopeResolver) scope(c *gin.Context) (models.Scope, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return models.Scope{}, appErrors.Clone(appErrors.ErrUnauthorized, "")
	}
	user, err := r.users.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		return models.Scope{}, err
	}
	return models.ScopeFromUser(user), nil
}
