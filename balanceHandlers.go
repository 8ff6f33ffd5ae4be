package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/float_backend/middlewares"
	"github.com/mmdatafocus/float_backend/models"
	"github.com/mmdatafocus/float_backend/utils"
)

func balanceSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		category, err := categoryQuery(c)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		cash, floats, err := models.LoadShopBalances(ctx, middlewares.ActorId(c), c.Param("shop_id"), category)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		ids := make([]string, 0, len(floats))
		for _, fb := range floats {
			ids = append(ids, fb.ProviderId)
		}
		providers, err := middlewares.ProviderMap(ctx, ids)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusOK, models.BuildBalanceSummary(cash, floats, providers), "")
	}
}

func getCashBalanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		cash, err := models.GetCashBalance(c.Request.Context(), middlewares.ActorId(c), c.Param("shop_id"))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusOK, cash, "")
	}
}

func setOpeningBalanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewOpeningBalance
		if !bindJSON(c, &input) {
			return
		}
		result, err := models.SetCashOpeningBalance(c.Request.Context(), middlewares.ActorId(c), c.Param("shop_id"), &input)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusOK, result, "Opening balance set")
	}
}

func adjustCashHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewCashAdjustment
		if !bindJSON(c, &input) {
			return
		}
		result, err := models.AdjustCash(c.Request.Context(), middlewares.ActorId(c), c.Param("shop_id"), &input)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusCreated, result, "Cash adjusted")
	}
}

func listCashAdjustmentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := models.ListCashAdjustments(c.Request.Context(), middlewares.ActorId(c), c.Param("shop_id"))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusOK, rows, "")
	}
}

// reconcileHandler reports drift between stored balances and the ledger.
// With fix it also rewrites drifted rows.
func reconcileHandler(fix bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := models.ReconcileShopBalances(c.Request.Context(), middlewares.ActorId(c), c.Param("shop_id"), fix)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusOK, result, "")
	}
}
