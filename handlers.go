package main

import (
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/float_backend/models"
	"github.com/mmdatafocus/float_backend/utils"
)

// bindJSON decodes the body into obj, answering 422 with field details on
// failure.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		utils.RespondError(c, utils.NewValidation("invalid request body", utils.ProcessValidationErrors(err)))
		return false
	}
	return true
}

func categoryQuery(c *gin.Context) (*models.Category, error) {
	raw := c.Query("category")
	if raw == "" {
		return nil, nil
	}
	category := models.Category(raw)
	if !category.IsValid() {
		return nil, utils.NewValidation("category must be mobile or bank", map[string]string{"category": "oneof"})
	}
	return &category, nil
}
