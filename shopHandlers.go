package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/float_backend/middlewares"
	"github.com/mmdatafocus/float_backend/models"
	"github.com/mmdatafocus/float_backend/utils"
)

func loginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.LoginInput
		if !bindJSON(c, &input) {
			return
		}
		result, err := models.Login(c.Request.Context(), &input)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusOK, result, "")
	}
}

func meHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := models.GetUser(c.Request.Context(), middlewares.ActorId(c))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusOK, user, "")
	}
}

func createShopHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewShop
		if !bindJSON(c, &input) {
			return
		}
		shop, err := models.CreateShop(c.Request.Context(), middlewares.ActorId(c), &input)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusCreated, shop, "Shop created")
	}
}

func getShopHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		shop, err := models.GetShop(c.Request.Context(), middlewares.ActorId(c), c.Param("shop_id"))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusOK, shop, "")
	}
}

func addCashierHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewCashier
		if !bindJSON(c, &input) {
			return
		}
		cashier, err := models.AddCashier(c.Request.Context(), middlewares.ActorId(c), c.Param("shop_id"), &input)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusCreated, cashier, "Cashier added")
	}
}

func removeCashierHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		cashier, err := models.RemoveCashier(c.Request.Context(), middlewares.ActorId(c), c.Param("shop_id"), c.Param("user_id"))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusOK, cashier, "Cashier removed")
	}
}

func listShopsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		shops, err := models.ListShops(c.Request.Context(), middlewares.ActorId(c))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusOK, shops, "")
	}
}

func updateShopHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.ShopUpdate
		if !bindJSON(c, &input) {
			return
		}
		shop, err := models.UpdateShop(c.Request.Context(), middlewares.ActorId(c), c.Param("shop_id"), &input)
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		utils.RespondOK(c, http.StatusOK, shop, "Shop updated")
	}
}

func toggleCashierStatusHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		cashier, err := models.ToggleCashierStatus(c.Request.Context(), middlewares.ActorId(c), c.Param("shop_id"), c.Param("user_id"))
		if err != nil {
			utils.RespondError(c, err)
			return
		}
		message := "Cashier deactivated"
		if cashier.IsActive != nil && *cashier.IsActive {
			message = "Cashier activated"
		}
		utils.RespondOK(c, http.StatusOK, cashier, message)
	}
}
