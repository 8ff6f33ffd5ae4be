package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/float_backend/middlewares"
	"github.com/mmdatafocus/float_backend/models"
	"github.com/mmdatafocus/float_backend/utils"
)

type transactionView struct {
	*models.Transaction
	ProviderName string `json:"provider_name"`
}

func transactionTypesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.RespondOK(c, http.StatusOK, models.TransactionTypesByCategory(), "")
	}
}

func createTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewTransaction
		if !bindJSON(c, &input) {
			return
		}
		result, err := models.CreateTransaction(c.Request.Context(), middlewares.ActorId(c), c.Param("shop_id"), &input)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusCreated, result, "Transaction recorded")
	}
}

func getTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		txn, err := models.GetTransaction(ctx, middlewares.ActorId(c), c.Param("transaction_id"))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		provider, err := middlewares.GetProvider(ctx, txn.ProviderId)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusOK, transactionView{Transaction: txn, ProviderName: provider.Name}, "")
	}
}

func updateTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.TransactionUpdate
		if !bindJSON(c, &input) {
			return
		}
		result, err := models.UpdateTransaction(c.Request.Context(), middlewares.ActorId(c), c.Param("transaction_id"), &input)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusOK, result, "Transaction updated")
	}
}

func deleteTransactionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := models.DeleteTransaction(c.Request.Context(), middlewares.ActorId(c), c.Param("transaction_id"))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusOK, result, "Transaction deleted")
	}
}
