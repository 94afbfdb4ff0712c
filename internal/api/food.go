package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lastcallsw/trackeats/internal/model"
	"github.com/lastcallsw/trackeats/internal/service"
)

type FoodHandler struct {
	foodService *service.FoodService
}

func NewFoodHandler(foodService *service.FoodService) *FoodHandler {
	return &FoodHandler{foodService: foodService}
}

func (h *FoodHandler) RegisterRoutes(router *gin.RouterGroup) {
	foods := router.Group("/foods")
	{
		foods.GET("", h.ListFoods)
		foods.GET("/:id", h.GetFood)
		foods.POST("", h.CreateFood)
		foods.PUT("/:id", h.UpdateFood)
		foods.DELETE("/:id", h.DeleteFood)
	}
}

func (h *FoodHandler) ListFoods(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	foods, err := h.foodService.List(c.Request.Context(), userID, model.FoodGroup(c.Query("group")))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"foods": foods})
}

func (h *FoodHandler) GetFood(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	food, err := h.foodService.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, food)
}

func (h *FoodHandler) CreateFood(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var food model.Food
	if err := c.ShouldBindJSON(&food); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.foodService.Create(c.Request.Context(), userID, &food)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *FoodHandler) UpdateFood(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var food model.Food
	if err := c.ShouldBindJSON(&food); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	food.ID = id

	updated, err := h.foodService.Update(c.Request.Context(), userID, &food)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *FoodHandler) DeleteFood(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.foodService.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
