package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/float_backend/middlewares"
	"github.com/mmdatafocus/float_backend/models"
	"github.com/mmdatafocus/float_backend/utils"
)

func createProviderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewProvider
		if !bindJSON(c, &input) {
			return
		}
		provider, err := models.CreateProvider(c.Request.Context(), middlewares.ActorId(c), c.Param("shop_id"), &input)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusCreated, provider, "Provider created")
	}
}

func listProvidersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		category, err := categoryQuery(c)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		providers, err := models.ListProviders(c.Request.Context(), middlewares.ActorId(c), c.Param("shop_id"), category)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusOK, providers, "")
	}
}

func updateProviderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.ProviderUpdate
		if !bindJSON(c, &input) {
			return
		}
		provider, err := models.UpdateProvider(c.Request.Context(), middlewares.ActorId(c), c.Param("provider_id"), &input)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusOK, provider, "Provider updated")
	}
}

func createSuperAgentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewSuperAgent
		if !bindJSON(c, &input) {
			return
		}
		agent, err := models.CreateSuperAgent(c.Request.Context(), middlewares.ActorId(c), c.Param("shop_id"), &input)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusCreated, agent, "Super agent created")
	}
}

func listSuperAgentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		agents, err := models.ListSuperAgents(c.Request.Context(), middlewares.ActorId(c), c.Param("shop_id"))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusOK, agents, "")
	}
}

func deleteProviderHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		provider, err := models.DeleteProvider(c.Request.Context(), middlewares.ActorId(c), c.Param("provider_id"))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusOK, provider, "Provider deleted")
	}
}

func getSuperAgentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, err := models.GetSuperAgent(c.Request.Context(), middlewares.ActorId(c), c.Param("super_agent_id"))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusOK, agent, "")
	}
}

func updateSuperAgentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.SuperAgentUpdate
		if !bindJSON(c, &input) {
			return
		}
		agent, err := models.UpdateSuperAgent(c.Request.Context(), middlewares.ActorId(c), c.Param("super_agent_id"), &input)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusOK, agent, "Super agent updated")
	}
}

func deleteSuperAgentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		agent, err := models.DeleteSuperAgent(c.Request.Context(), middlewares.ActorId(c), c.Param("super_agent_id"))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusOK, agent, "Super agent deleted")
	}
}
