package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/lastcallsw/trackeats/internal/model"
	"github.com/lastcallsw/trackeats/internal/service"
)

type RecipeHandler struct {
	recipeService *service.RecipeService
}

func NewRecipeHandler(recipeService *service.RecipeService) *RecipeHandler {
	return &RecipeHandler{recipeService: recipeService}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup, mutationLimiter gin.HandlerFunc) {
	recipes := router.Group("/recipes")
	{
		recipes.GET("", h.ListRecipes)
		recipes.GET("/:id", h.GetRecipe)
		recipes.POST("", h.CreateRecipe)
		recipes.PUT("/:id", h.UpdateRecipe)
		recipes.DELETE("/:id", h.DeleteRecipe)

		ingredients := recipes.Group("/:id/ingredients")
		if mutationLimiter != nil {
			ingredients.Use(mutationLimiter)
		}
		{
			ingredients.GET("", h.ListIngredients)
			ingredients.POST("", h.AddIngredient)
			ingredients.PUT("", h.UpdateIngredient)
			ingredients.DELETE("", h.RemoveIngredient)
			ingredients.DELETE("/all", h.RemoveAllIngredients)
		}
	}
}

type CreateRecipeRequest struct {
	Cuisine                string  `json:"cuisine"`
	Name                   string  `json:"name" binding:"required"`
	TotalYield             string  `json:"total_yield" binding:"required"`
	Servings               float64 `json:"servings" binding:"required"`
	ServingSizeDescription string  `json:"serving_size_description"`
}

// IngredientRequest names the component by exactly one of food_id and
// recipe_id, mirroring the link row's two nullable columns.
type IngredientRequest struct {
	FoodID   *uuid.UUID `json:"food_id"`
	RecipeID *uuid.UUID `json:"recipe_id"`
	Servings float64    `json:"servings"`
	Summary  string     `json:"summary"`
	Ordinal  *int       `json:"ordinal"`
}

func (r *IngredientRequest) componentRef() (model.ComponentRef, bool) {
	switch {
	case r.FoodID != nil && r.RecipeID != nil:
		return model.ComponentRef{}, false
	case r.FoodID != nil:
		return model.FoodRef(*r.FoodID), true
	case r.RecipeID != nil:
		return model.RecipeRef(*r.RecipeID), true
	default:
		return model.ComponentRef{}, false
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	recipes, err := h.recipeService.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	recipe, err := h.recipeService.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, recipe)
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	recipe := &model.Recipe{
		Cuisine:    req.Cuisine,
		Name:       req.Name,
		TotalYield: req.TotalYield,
		Servings:   req.Servings,
		Nutrition:  model.Nutrition{ServingSizeDescription: req.ServingSizeDescription},
	}

	created, err := h.recipeService.Create(c.Request.Context(), userID, recipe)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	recipe := &model.Recipe{
		ID:         id,
		Cuisine:    req.Cuisine,
		Name:       req.Name,
		TotalYield: req.TotalYield,
		Servings:   req.Servings,
		Nutrition:  model.Nutrition{ServingSizeDescription: req.ServingSizeDescription},
	}

	updated, err := h.recipeService.Update(c.Request.Context(), userID, recipe)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.recipeService.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) ListIngredients(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	ingredients, err := h.recipeService.ListIngredients(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"ingredients": ingredients})
}

func (h *RecipeHandler) AddIngredient(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req IngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	ref, ok := req.componentRef()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exactly one of food_id and recipe_id is required"})
		return
	}

	ingredient, err := h.recipeService.AddIngredient(c.Request.Context(), userID, id, ref, req.Servings, req.Summary, req.Ordinal)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ingredient)
}

func (h *RecipeHandler) UpdateIngredient(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req IngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	ref, ok := req.componentRef()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exactly one of food_id and recipe_id is required"})
		return
	}

	ingredient, err := h.recipeService.UpdateIngredient(c.Request.Context(), userID, id, ref, req.Servings)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ingredient)
}

func (h *RecipeHandler) RemoveIngredient(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req IngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	ref, ok := req.componentRef()
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exactly one of food_id and recipe_id is required"})
		return
	}

	if err := h.recipeService.RemoveIngredient(c.Request.Context(), userID, id, ref); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) RemoveAllIngredients(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.recipeService.RemoveAllIngredients(c.Request.Context(), userID, id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
