package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lastcallsw/trackeats/internal/model"
	"github.com/lastcallsw/trackeats/internal/service"
	"github.com/lastcallsw/trackeats/internal/testhelpers"
)

// The aggregation paths run against real postgres here, including the quoted
// "group" column and the versioned recipe update.
func TestRecipeAggregationOnPostgres(t *testing.T) {
	db := testhelpers.SetupPostgresDatabase(t)
	ctx := context.Background()

	user := model.User{Username: "alice", Status: model.StatusConfirmed, PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)

	foods := service.NewFoodService(db)
	recipes := service.NewRecipeService(db)

	chicken := createChicken(t, foods, user.ID)
	dinner := createDinner(t, recipes, user.ID)

	_, err := recipes.AddIngredient(ctx, user.ID, dinner.ID, model.FoodRef(chicken.ID), 2, "", nil)
	require.NoError(t, err)

	got, err := recipes.Get(ctx, user.ID, dinner.ID)
	require.NoError(t, err)
	assert.InDelta(t, 330, got.Nutrition.Calories, 1e-9)
	assert.InDelta(t, 62, got.Nutrition.ProteinG, 1e-9)

	proteins, err := foods.List(ctx, user.ID, model.GroupProteins)
	require.NoError(t, err)
	assert.Len(t, proteins, 1)

	require.NoError(t, recipes.RemoveIngredient(ctx, user.ID, dinner.ID, model.FoodRef(chicken.ID)))
	got, err = recipes.Get(ctx, user.ID, dinner.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0, got.Nutrition.Calories, 1e-9)
}
