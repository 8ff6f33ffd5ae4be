package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/float_backend/utils"
)

// ShopScopeMiddleware puts the :shop_id path parameter in the request context
// so the shop guard plugin scopes every query of the request to that shop.
func ShopScopeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if shopId := c.Param("shop_id"); shopId != "" {
			c.Request = c.Request.WithContext(utils.SetShopIdInContext(c.Request.Context(), shopId))
		}
		c.Next()
	}
}
