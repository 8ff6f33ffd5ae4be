package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/float_backend/middlewares"
	"github.com/mmdatafocus/float_backend/models"
	"github.com/mmdatafocus/float_backend/utils"
)

type floatMovementView struct {
	*models.FloatMovement
	ProviderName   string `json:"provider_name"`
	SuperAgentName string `json:"super_agent_name"`
}

func createFloatMovementHandler(op models.FloatOperation) gin.HandlerFunc {
	message := "Float topped up"
	if op == models.FloatOperationWithdraw {
		message = "Float withdrawn"
	}
	return func(c *gin.Context) {
		var input models.NewFloatMovement
		if !bindJSON(c, &input) {
			return
		}
		result, err := models.CreateFloatMovement(c.Request.Context(), middlewares.ActorId(c), c.Param("shop_id"), op, &input)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusCreated, result, message)
	}
}

func getFloatMovementHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		movement, err := models.GetFloatMovement(ctx, middlewares.ActorId(c), c.Param("movement_id"))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		provider, err := middlewares.GetProvider(ctx, movement.ProviderId)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		agent, err := middlewares.GetSuperAgent(ctx, movement.SuperAgentId)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusOK, floatMovementView{
			FloatMovement:  movement,
			ProviderName:   provider.Name,
			SuperAgentName: agent.Name,
		}, "")
	}
}

func updateFloatMovementHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.FloatMovementUpdate
		if !bindJSON(c, &input) {
			return
		}
		result, err := models.UpdateFloatMovement(c.Request.Context(), middlewares.ActorId(c), c.Param("movement_id"), &input)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusOK, result, "Float movement updated")
	}
}

func deleteFloatMovementHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := models.DeleteFloatMovement(c.Request.Context(), middlewares.ActorId(c), c.Param("movement_id"))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusOK, result, "Float movement deleted")
	}
}
