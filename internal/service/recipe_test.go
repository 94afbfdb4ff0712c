package service_test

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lastcallsw/trackeats/internal/model"
	"github.com/lastcallsw/trackeats/internal/service"
	"github.com/lastcallsw/trackeats/internal/testhelpers"
)

func setupRecipeTest(t *testing.T) (*gorm.DB, *service.FoodService, *service.RecipeService, uuid.UUID) {
	t.Helper()
	db := testhelpers.SetupTestDatabase(t)

	user := model.User{Username: "alice", Status: model.StatusConfirmed, PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)

	return db, service.NewFoodService(db), service.NewRecipeService(db), user.ID
}

func createChicken(t *testing.T, foods *service.FoodService, userID uuid.UUID) *model.Food {
	t.Helper()
	food, err := foods.Create(context.Background(), userID, &model.Food{
		Group:    model.GroupProteins,
		Name:     "Chicken Breast",
		Vendor:   "Tyson",
		Servings: 4,
		Price:    12,
		Nutrition: model.Nutrition{
			ServingSizeDescription: "3 oz",
			ServingSizeG:           85,
			Calories:               165,
			ProteinG:               31,
		},
	})
	require.NoError(t, err)
	return food
}

func createDinner(t *testing.T, recipes *service.RecipeService, userID uuid.UUID) *model.Recipe {
	t.Helper()
	recipe, err := recipes.Create(context.Background(), userID, &model.Recipe{
		Cuisine:    "American",
		Name:       "Dinner",
		TotalYield: "2 plates",
		Servings:   2,
		Nutrition:  model.Nutrition{ServingSizeDescription: "1 plate"},
	})
	require.NoError(t, err)
	return recipe
}

func TestCreateRecipeStartsEmpty(t *testing.T) {
	_, _, recipes, userID := setupRecipeTest(t)
	ctx := context.Background()

	recipe := createDinner(t, recipes, userID)
	assert.Equal(t, 0.0, recipe.Nutrition.Calories)
	assert.Equal(t, "1 plate", recipe.Nutrition.ServingSizeDescription)
	assert.Equal(t, 0.0, recipe.Price)

	ingredients, err := recipes.ListIngredients(ctx, userID, recipe.ID)
	require.NoError(t, err)
	assert.Empty(t, ingredients)
}

func TestCreateRecipeValidation(t *testing.T) {
	_, _, recipes, userID := setupRecipeTest(t)

	_, err := recipes.Create(context.Background(), userID, &model.Recipe{Servings: -1})
	require.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindValidation))
	assert.Contains(t, err.Error(), "name is required")
	assert.Contains(t, err.Error(), "servings must be greater than zero")
}

func TestAddIngredientAggregates(t *testing.T) {
	_, foods, recipes, userID := setupRecipeTest(t)
	ctx := context.Background()

	chicken := createChicken(t, foods, userID)
	dinner := createDinner(t, recipes, userID)

	ingredient, err := recipes.AddIngredient(ctx, userID, dinner.ID, model.FoodRef(chicken.ID), 2, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "2 x 3 oz Tyson Chicken Breast (170 g)", ingredient.Summary)

	got, err := recipes.Get(ctx, userID, dinner.ID)
	require.NoError(t, err)
	assert.InDelta(t, 330, got.Nutrition.Calories, 1e-9)
	assert.InDelta(t, 62, got.Nutrition.ProteinG, 1e-9)
	assert.InDelta(t, 6, got.Price, 1e-9, "two servings at $12 for four servings")
}

func TestUpdateIngredientRebalances(t *testing.T) {
	_, foods, recipes, userID := setupRecipeTest(t)
	ctx := context.Background()

	chicken := createChicken(t, foods, userID)
	dinner := createDinner(t, recipes, userID)

	_, err := recipes.AddIngredient(ctx, userID, dinner.ID, model.FoodRef(chicken.ID), 2, "", nil)
	require.NoError(t, err)

	ingredient, err := recipes.UpdateIngredient(ctx, userID, dinner.ID, model.FoodRef(chicken.ID), 1)
	require.NoError(t, err)
	assert.Equal(t, 1.0, ingredient.Servings)
	assert.Equal(t, "1 x 3 oz Tyson Chicken Breast (85 g)", ingredient.Summary)

	got, err := recipes.Get(ctx, userID, dinner.ID)
	require.NoError(t, err)
	assert.InDelta(t, 165, got.Nutrition.Calories, 1e-9)
}

func TestRemoveIngredientRestoresZero(t *testing.T) {
	db, foods, recipes, userID := setupRecipeTest(t)
	ctx := context.Background()

	chicken := createChicken(t, foods, userID)
	dinner := createDinner(t, recipes, userID)

	_, err := recipes.AddIngredient(ctx, userID, dinner.ID, model.FoodRef(chicken.ID), 2, "", nil)
	require.NoError(t, err)

	require.NoError(t, recipes.RemoveIngredient(ctx, userID, dinner.ID, model.FoodRef(chicken.ID)))

	got, err := recipes.Get(ctx, userID, dinner.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0, got.Nutrition.Calories, 1e-9)
	assert.InDelta(t, 0, got.Price, 1e-9)

	var count int64
	require.NoError(t, db.Model(&model.Ingredient{}).Where("recipe_id = ?", dinner.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAddRemoveRoundTrip(t *testing.T) {
	_, foods, recipes, userID := setupRecipeTest(t)
	ctx := context.Background()

	chicken := createChicken(t, foods, userID)
	rice, err := foods.Create(ctx, userID, &model.Food{
		Group:    model.GroupGrains,
		Name:     "Rice",
		Vendor:   "Mahatma",
		Servings: 10,
		Nutrition: model.Nutrition{
			ServingSizeDescription: "1/4 cup",
			Calories:               160,
			TotalCarbsG:            36,
		},
	})
	require.NoError(t, err)

	dinner := createDinner(t, recipes, userID)
	_, err = recipes.AddIngredient(ctx, userID, dinner.ID, model.FoodRef(rice.ID), 1.5, "", nil)
	require.NoError(t, err)

	before, err := recipes.Get(ctx, userID, dinner.ID)
	require.NoError(t, err)

	_, err = recipes.AddIngredient(ctx, userID, dinner.ID, model.FoodRef(chicken.ID), 2, "", nil)
	require.NoError(t, err)
	require.NoError(t, recipes.RemoveIngredient(ctx, userID, dinner.ID, model.FoodRef(chicken.ID)))

	after, err := recipes.Get(ctx, userID, dinner.ID)
	require.NoError(t, err)
	assert.InDelta(t, before.Nutrition.Calories, after.Nutrition.Calories, 1e-9)
	assert.InDelta(t, before.Nutrition.TotalCarbsG, after.Nutrition.TotalCarbsG, 1e-9)
	assert.InDelta(t, before.Price, after.Price, 1e-9)
}

func TestDuplicateIngredientRejected(t *testing.T) {
	_, foods, recipes, userID := setupRecipeTest(t)
	ctx := context.Background()

	chicken := createChicken(t, foods, userID)
	dinner := createDinner(t, recipes, userID)

	_, err := recipes.AddIngredient(ctx, userID, dinner.ID, model.FoodRef(chicken.ID), 2, "", nil)
	require.NoError(t, err)

	_, err = recipes.AddIngredient(ctx, userID, dinner.ID, model.FoodRef(chicken.ID), 1, "", nil)
	require.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindConflict))

	got, err := recipes.Get(ctx, userID, dinner.ID)
	require.NoError(t, err)
	assert.InDelta(t, 330, got.Nutrition.Calories, 1e-9, "failed add must leave the total unchanged")
}

func TestSelfReferenceRejected(t *testing.T) {
	_, _, recipes, userID := setupRecipeTest(t)
	ctx := context.Background()

	dinner := createDinner(t, recipes, userID)

	_, err := recipes.AddIngredient(ctx, userID, dinner.ID, model.RecipeRef(dinner.ID), 1, "", nil)
	require.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindConflict))

	got, err := recipes.Get(ctx, userID, dinner.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.Nutrition.Calories)
}

func TestDeepCycleRejected(t *testing.T) {
	_, _, recipes, userID := setupRecipeTest(t)
	ctx := context.Background()

	mk := func(name string) *model.Recipe {
		r, err := recipes.Create(ctx, userID, &model.Recipe{
			Name: name, TotalYield: "1 batch", Servings: 1,
		})
		require.NoError(t, err)
		return r
	}
	a, b, c := mk("A"), mk("B"), mk("C")

	_, err := recipes.AddIngredient(ctx, userID, a.ID, model.RecipeRef(b.ID), 1, "", nil)
	require.NoError(t, err)
	_, err = recipes.AddIngredient(ctx, userID, b.ID, model.RecipeRef(c.ID), 1, "", nil)
	require.NoError(t, err)

	// C -> A would close A -> B -> C -> A.
	_, err = recipes.AddIngredient(ctx, userID, c.ID, model.RecipeRef(a.ID), 1, "", nil)
	require.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindConflict))
}

func TestNestedRecipeScaledPerServing(t *testing.T) {
	_, foods, recipes, userID := setupRecipeTest(t)
	ctx := context.Background()

	tomato, err := foods.Create(ctx, userID, &model.Food{
		Group:    model.GroupVegetables,
		Name:     "Crushed Tomatoes",
		Vendor:   "Muir Glen",
		Servings: 4,
		Nutrition: model.Nutrition{
			ServingSizeDescription: "1/2 cup",
			Calories:               100,
		},
	})
	require.NoError(t, err)

	sauce, err := recipes.Create(ctx, userID, &model.Recipe{
		Name: "Sauce", TotalYield: "1 quart", Servings: 4,
		Nutrition: model.Nutrition{ServingSizeDescription: "1/2 cup"},
	})
	require.NoError(t, err)
	_, err = recipes.AddIngredient(ctx, userID, sauce.ID, model.FoodRef(tomato.ID), 4, "", nil)
	require.NoError(t, err)

	sauce, err = recipes.Get(ctx, userID, sauce.ID)
	require.NoError(t, err)
	assert.InDelta(t, 400, sauce.Nutrition.Calories, 1e-9)

	pasta := createDinner(t, recipes, userID)
	ingredient, err := recipes.AddIngredient(ctx, userID, pasta.ID, model.RecipeRef(sauce.ID), 2, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "2 x 1/2 cup Sauce", ingredient.Summary)

	// Two of the sauce's four servings: 400 cal / 4 x 2.
	got, err := recipes.Get(ctx, userID, pasta.ID)
	require.NoError(t, err)
	assert.InDelta(t, 200, got.Nutrition.Calories, 1e-9)
}

func TestRemoveAllIngredientsIdempotent(t *testing.T) {
	_, foods, recipes, userID := setupRecipeTest(t)
	ctx := context.Background()

	chicken := createChicken(t, foods, userID)
	dinner := createDinner(t, recipes, userID)
	_, err := recipes.AddIngredient(ctx, userID, dinner.ID, model.FoodRef(chicken.ID), 2, "", nil)
	require.NoError(t, err)

	require.NoError(t, recipes.RemoveAllIngredients(ctx, userID, dinner.ID))
	got, err := recipes.Get(ctx, userID, dinner.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0, got.Nutrition.Calories, 1e-9)
	assert.InDelta(t, 0, got.Price, 1e-9)

	// Second call on an empty recipe is a no-op, not an error.
	require.NoError(t, recipes.RemoveAllIngredients(ctx, userID, dinner.ID))
	got, err = recipes.Get(ctx, userID, dinner.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0, got.Nutrition.Calories, 1e-9)
}

func TestRemoveOrphanedIngredientTolerated(t *testing.T) {
	db, foods, recipes, userID := setupRecipeTest(t)
	ctx := context.Background()

	chicken := createChicken(t, foods, userID)
	dinner := createDinner(t, recipes, userID)
	_, err := recipes.AddIngredient(ctx, userID, dinner.ID, model.FoodRef(chicken.ID), 2, "", nil)
	require.NoError(t, err)

	// Delete the food out from under the link row, bypassing the service's
	// restrict check.
	require.NoError(t, db.Delete(&model.Food{}, "id = ?", chicken.ID).Error)

	require.NoError(t, recipes.RemoveIngredient(ctx, userID, dinner.ID, model.FoodRef(chicken.ID)))

	got, err := recipes.Get(ctx, userID, dinner.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0, got.Nutrition.Calories, 1e-9)

	var count int64
	require.NoError(t, db.Model(&model.Ingredient{}).Where("recipe_id = ?", dinner.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSummaryTruncatesOnRuneBoundary(t *testing.T) {
	_, foods, recipes, userID := setupRecipeTest(t)
	ctx := context.Background()

	food, err := foods.Create(ctx, userID, &model.Food{
		Group:    model.GroupPreparedFoods,
		Name:     strings.Repeat("é", 40),
		Vendor:   strings.Repeat("ü", 40),
		Servings: 4,
		Nutrition: model.Nutrition{
			ServingSizeDescription: "1 Stück",
			ServingSizeG:           85,
			Calories:               100,
		},
	})
	require.NoError(t, err)

	dinner := createDinner(t, recipes, userID)
	ingredient, err := recipes.AddIngredient(ctx, userID, dinner.ID, model.FoodRef(food.ID), 2, "", nil)
	require.NoError(t, err)

	assert.True(t, utf8.ValidString(ingredient.Summary))
	assert.Equal(t, 100, utf8.RuneCountInString(ingredient.Summary))
}

func TestUpdateOrphanedIngredientKeepsStaleSummary(t *testing.T) {
	db, foods, recipes, userID := setupRecipeTest(t)
	ctx := context.Background()

	chicken := createChicken(t, foods, userID)
	dinner := createDinner(t, recipes, userID)
	added, err := recipes.AddIngredient(ctx, userID, dinner.ID, model.FoodRef(chicken.ID), 2, "", nil)
	require.NoError(t, err)

	require.NoError(t, db.Delete(&model.Food{}, "id = ?", chicken.ID).Error)

	updated, err := recipes.UpdateIngredient(ctx, userID, dinner.ID, model.FoodRef(chicken.ID), 3)
	require.NoError(t, err)
	assert.Equal(t, 3.0, updated.Servings)
	assert.Equal(t, added.Summary, updated.Summary, "summary is not regenerated for a missing component")

	got, err := recipes.Get(ctx, userID, dinner.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0, got.Nutrition.Calories, 1e-9)
}

func TestInvariantAfterMutationSequence(t *testing.T) {
	_, foods, recipes, userID := setupRecipeTest(t)
	ctx := context.Background()

	chicken := createChicken(t, foods, userID)
	rice, err := foods.Create(ctx, userID, &model.Food{
		Group:    model.GroupGrains,
		Name:     "Rice",
		Vendor:   "Mahatma",
		Servings: 10,
		Nutrition: model.Nutrition{
			ServingSizeDescription: "1/4 cup",
			Calories:               160,
		},
	})
	require.NoError(t, err)

	dinner := createDinner(t, recipes, userID)
	_, err = recipes.AddIngredient(ctx, userID, dinner.ID, model.FoodRef(chicken.ID), 2, "", nil)
	require.NoError(t, err)
	_, err = recipes.AddIngredient(ctx, userID, dinner.ID, model.FoodRef(rice.ID), 3, "", nil)
	require.NoError(t, err)
	_, err = recipes.UpdateIngredient(ctx, userID, dinner.ID, model.FoodRef(chicken.ID), 1.5)
	require.NoError(t, err)
	require.NoError(t, recipes.RemoveIngredient(ctx, userID, dinner.ID, model.FoodRef(rice.ID)))

	got, err := recipes.Get(ctx, userID, dinner.ID)
	require.NoError(t, err)

	// The stored total must equal the weighted sum over the surviving rows.
	ingredients, err := recipes.ListIngredients(ctx, userID, dinner.ID)
	require.NoError(t, err)
	require.Len(t, ingredients, 1)

	expected := model.Nutrition{}
	expected.Add(&chicken.Nutrition, ingredients[0].Servings)
	assert.InDelta(t, expected.Calories, got.Nutrition.Calories, 1e-9)
	assert.InDelta(t, expected.ProteinG, got.Nutrition.ProteinG, 1e-9)
}

func TestUpdateRecipeLeavesTotalsAlone(t *testing.T) {
	_, foods, recipes, userID := setupRecipeTest(t)
	ctx := context.Background()

	chicken := createChicken(t, foods, userID)
	dinner := createDinner(t, recipes, userID)
	_, err := recipes.AddIngredient(ctx, userID, dinner.ID, model.FoodRef(chicken.ID), 2, "", nil)
	require.NoError(t, err)

	updated, err := recipes.Update(ctx, userID, &model.Recipe{
		ID:         dinner.ID,
		Cuisine:    "Tex-Mex",
		Name:       "Dinner Deluxe",
		TotalYield: "3 plates",
		Servings:   3,
		Nutrition:  model.Nutrition{ServingSizeDescription: "1 big plate"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Dinner Deluxe", updated.Name)
	assert.Equal(t, 3.0, updated.Servings)
	assert.Equal(t, "1 big plate", updated.Nutrition.ServingSizeDescription)
	assert.InDelta(t, 330, updated.Nutrition.Calories, 1e-9)
}

func TestRecipeOwnershipScoping(t *testing.T) {
	db, foods, recipes, userID := setupRecipeTest(t)
	ctx := context.Background()

	other := model.User{Username: "mallory", Status: model.StatusConfirmed, PasswordHash: "x"}
	require.NoError(t, db.Create(&other).Error)

	dinner := createDinner(t, recipes, userID)
	chicken := createChicken(t, foods, userID)

	_, err := recipes.Get(ctx, other.ID, dinner.ID)
	assert.True(t, service.IsKind(err, service.KindNotFound))

	_, err = recipes.AddIngredient(ctx, other.ID, dinner.ID, model.FoodRef(chicken.ID), 1, "", nil)
	assert.True(t, service.IsKind(err, service.KindNotFound))

	// A foreign food is invisible even on the caller's own recipe.
	theirs, err := recipes.Create(ctx, other.ID, &model.Recipe{
		Name: "Theirs", TotalYield: "1 plate", Servings: 1,
	})
	require.NoError(t, err)
	_, err = recipes.AddIngredient(ctx, other.ID, theirs.ID, model.FoodRef(chicken.ID), 1, "", nil)
	assert.True(t, service.IsKind(err, service.KindNotFound))
}

func TestDeleteRecipeRestrictedWhileReferenced(t *testing.T) {
	_, _, recipes, userID := setupRecipeTest(t)
	ctx := context.Background()

	sauce, err := recipes.Create(ctx, userID, &model.Recipe{
		Name: "Sauce", TotalYield: "1 quart", Servings: 4,
	})
	require.NoError(t, err)
	pasta := createDinner(t, recipes, userID)
	_, err = recipes.AddIngredient(ctx, userID, pasta.ID, model.RecipeRef(sauce.ID), 1, "", nil)
	require.NoError(t, err)

	err = recipes.Delete(ctx, userID, sauce.ID)
	require.Error(t, err)
	assert.True(t, service.IsKind(err, service.KindConflict))

	require.NoError(t, recipes.RemoveIngredient(ctx, userID, pasta.ID, model.RecipeRef(sauce.ID)))
	assert.NoError(t, recipes.Delete(ctx, userID, sauce.ID))
}

func TestVersionAdvancesOnEveryAggregateWrite(t *testing.T) {
	db, foods, recipes, userID := setupRecipeTest(t)
	ctx := context.Background()

	chicken := createChicken(t, foods, userID)
	dinner := createDinner(t, recipes, userID)

	_, err := recipes.AddIngredient(ctx, userID, dinner.ID, model.FoodRef(chicken.ID), 2, "", nil)
	require.NoError(t, err)
	_, err = recipes.UpdateIngredient(ctx, userID, dinner.ID, model.FoodRef(chicken.ID), 1)
	require.NoError(t, err)

	var stored model.Recipe
	require.NoError(t, db.First(&stored, "id = ?", dinner.ID).Error)
	assert.Equal(t, int64(2), stored.Version)
}
