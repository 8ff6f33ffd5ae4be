package middlewares

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/float_backend/models"
	"github.com/mmdatafocus/float_backend/utils"
)

const bearerPrefix = "Bearer "

// AuthMiddleware requires a valid bearer token and puts the caller in the
// request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, bearerPrefix) {
			utils.RespondError(c, utils.NewUnauthorized("authorization token required"))
			return
		}
		token := strings.TrimSpace(auth[len(bearerPrefix):])

		claims, err := utils.ClaimsFromToken(token)
		if err != nil {
			utils.RespondError(c, utils.NewUnauthorized("invalid or expired token"))
			return
		}

		ctx := c.Request.Context()
		user, err := models.GetUser(ctx, claims.ID)
		if err != nil {
			if utils.IsAppErrorCode(err, utils.CodeNotFound) {
				utils.RespondError(c, utils.NewUnauthorized("invalid or expired token"))
				return
			}
			utils.RespondError(c, err)
			return
		}
		if !user.Active() {
			utils.RespondError(c, utils.NewUnauthorized("user is inactive"))
			return
		}

		ctx = utils.SetTokenInContext(ctx, token)
		ctx = utils.SetUserIdInContext(ctx, user.ID)
		ctx = utils.SetUsernameInContext(ctx, user.Username)
		ctx = utils.SetUserRoleInContext(ctx, string(user.Role))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// ActorId is the authenticated user of the request, or "".
func ActorId(c *gin.Context) string {
	id, _ := utils.GetUserIdFromContext(c.Request.Context())
	return id
}
