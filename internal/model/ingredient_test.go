package model_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/lastcallsw/trackeats/internal/model"
)

func TestComponentRefFood(t *testing.T) {
	id := uuid.New()
	ref := model.FoodRef(id)

	got, ok := ref.FoodID()
	assert.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = ref.RecipeID()
	assert.False(t, ok)
	assert.False(t, ref.IsZero())
}

func TestComponentRefRecipe(t *testing.T) {
	id := uuid.New()
	ref := model.RecipeRef(id)

	got, ok := ref.RecipeID()
	assert.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = ref.FoodID()
	assert.False(t, ok)
}

func TestComponentRefZero(t *testing.T) {
	var ref model.ComponentRef
	assert.True(t, ref.IsZero())
}

func TestIngredientReferences(t *testing.T) {
	foodID := uuid.New()
	recipeID := uuid.New()

	ing := model.Ingredient{FoodIngredientID: &foodID}
	assert.True(t, ing.References(model.FoodRef(foodID)))
	assert.False(t, ing.References(model.FoodRef(uuid.New())))
	assert.False(t, ing.References(model.RecipeRef(foodID)))

	ing = model.Ingredient{RecipeIngredientID: &recipeID}
	assert.True(t, ing.References(model.RecipeRef(recipeID)))
	assert.False(t, ing.References(model.FoodRef(recipeID)))
}
