package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lastcallsw/trackeats/internal/model"
)

// RecipeService owns the recipe lifecycle and the aggregation invariant: a
// recipe's nutrition row always equals the serving-weighted sum of its current
// ingredients. Every structural mutation recomputes the aggregate from the
// ingredient rows inside the same transaction, so a failed mutation can never
// leave a half-applied total behind.
type RecipeService struct {
	db *gorm.DB
}

func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{db: db}
}

// Create inserts a recipe in the empty state: no ingredients, a zeroed
// nutrition row stamped only with the serving-size description.
func (s *RecipeService) Create(ctx context.Context, userID uuid.UUID, recipe *model.Recipe) (*model.Recipe, error) {
	var problems []string
	if strings.TrimSpace(recipe.Name) == "" {
		problems = append(problems, "name is required")
	}
	if strings.TrimSpace(recipe.TotalYield) == "" {
		problems = append(problems, "total yield is required")
	}
	if recipe.Servings <= 0 {
		problems = append(problems, "servings must be greater than zero")
	}
	if len(problems) > 0 {
		return nil, validationf("%s", strings.Join(problems, "; "))
	}

	recipe.ID = uuid.Nil
	recipe.UserID = userID
	recipe.Price = 0
	recipe.Version = 0
	desc := recipe.Nutrition.ServingSizeDescription
	recipe.Nutrition = model.Nutrition{ServingSizeDescription: desc}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&recipe.Nutrition).Error; err != nil {
			return err
		}
		recipe.NutritionID = recipe.Nutrition.ID
		return tx.Create(recipe).Error
	})
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

// Get returns the owner's recipe with its nutrition loaded.
func (s *RecipeService) Get(ctx context.Context, userID, id uuid.UUID) (*model.Recipe, error) {
	return getRecipe(s.db.WithContext(ctx), userID, id)
}

// List returns every recipe the owner has.
func (s *RecipeService) List(ctx context.Context, userID uuid.UUID) ([]model.Recipe, error) {
	var recipes []model.Recipe
	err := s.db.WithContext(ctx).Preload("Nutrition").
		Where("user_id = ?", userID).Order("name").Find(&recipes).Error
	if err != nil {
		return nil, err
	}
	return recipes, nil
}

// ListIngredients returns the recipe's ingredient rows in display order.
func (s *RecipeService) ListIngredients(ctx context.Context, userID, recipeID uuid.UUID) ([]model.Ingredient, error) {
	if _, err := s.Get(ctx, userID, recipeID); err != nil {
		return nil, err
	}
	var ingredients []model.Ingredient
	err := s.db.WithContext(ctx).Where("recipe_id = ?", recipeID).
		Order("ordinal").Find(&ingredients).Error
	if err != nil {
		return nil, err
	}
	return ingredients, nil
}

// Update replaces only the recipe's own scalar fields and the nutrition row's
// serving-size description. Ingredient-derived totals are owned exclusively by
// the ingredient mutations and are deliberately left alone here.
func (s *RecipeService) Update(ctx context.Context, userID uuid.UUID, recipe *model.Recipe) (*model.Recipe, error) {
	var problems []string
	if strings.TrimSpace(recipe.Name) == "" {
		problems = append(problems, "name is required")
	}
	if strings.TrimSpace(recipe.TotalYield) == "" {
		problems = append(problems, "total yield is required")
	}
	if recipe.Servings <= 0 {
		problems = append(problems, "servings must be greater than zero")
	}
	if len(problems) > 0 {
		return nil, validationf("%s", strings.Join(problems, "; "))
	}

	existing, err := s.Get(ctx, userID, recipe.ID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Recipe{}).
			Where("id = ? AND user_id = ?", recipe.ID, userID).
			Updates(map[string]interface{}{
				"cuisine":     recipe.Cuisine,
				"name":        recipe.Name,
				"total_yield": recipe.TotalYield,
				"servings":    recipe.Servings,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return consistencyf("recipe update affected %d rows", res.RowsAffected)
		}

		res = tx.Model(&model.Nutrition{}).Where("id = ?", existing.NutritionID).
			Update("serving_size_description", recipe.Nutrition.ServingSizeDescription)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return consistencyf("nutrition update affected %d rows", res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, recipe.ID)
}

// Delete removes the recipe, its own ingredient rows, and its nutrition row.
// Deleting is restricted while another recipe still uses this one as an
// ingredient.
func (s *RecipeService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	recipe, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&model.Ingredient{}).
			Where("recipe_ingredient_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return conflictf("recipe is used by %d other recipe ingredient(s)", refs)
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&model.Ingredient{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&model.Recipe{}, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Nutrition{}, "id = ?", recipe.NutritionID).Error
	})
}

// AddIngredient attaches a component to the recipe with a serving multiplier
// and restores the aggregation invariant. It rejects duplicate links, unknown
// or foreign components, and any link that would close a containment cycle.
func (s *RecipeService) AddIngredient(ctx context.Context, userID, recipeID uuid.UUID, ref model.ComponentRef, servings float64, summary string, ordinal *int) (*model.Ingredient, error) {
	if ref.IsZero() {
		return nil, validationf("ingredient must reference a food or a recipe")
	}
	if servings <= 0 {
		return nil, validationf("servings must be greater than zero")
	}

	var ingredient *model.Ingredient
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe, err := getRecipe(tx, userID, recipeID)
		if err != nil {
			return err
		}

		dup, err := findIngredient(tx, recipeID, ref)
		if err != nil {
			return err
		}
		if dup != nil {
			return conflictf("component is already an ingredient of this recipe")
		}

		if subID, ok := ref.RecipeID(); ok {
			if subID == recipeID {
				return conflictf("a recipe cannot contain itself")
			}
			cyclic, err := wouldCreateCycle(tx, recipeID, subID)
			if err != nil {
				return err
			}
			if cyclic {
				return conflictf("ingredient would create a recipe cycle")
			}
		}

		comp, err := resolveComponent(tx, userID, ref)
		if err != nil {
			return err
		}
		if summary == "" {
			summary = comp.summarize(servings)
		}

		ingredient = &model.Ingredient{
			RecipeID: recipeID,
			Servings: servings,
			Summary:  summary,
			Ordinal:  ordinal,
		}
		if id, ok := ref.FoodID(); ok {
			ingredient.FoodIngredientID = &id
		}
		if id, ok := ref.RecipeID(); ok {
			ingredient.RecipeIngredientID = &id
		}
		if err := tx.Create(ingredient).Error; err != nil {
			return err
		}

		return s.recompute(tx, recipe)
	})
	if err != nil {
		return nil, err
	}
	return ingredient, nil
}

// UpdateIngredient changes the serving multiplier on an existing link,
// regenerates its cached summary, and restores the invariant.
func (s *RecipeService) UpdateIngredient(ctx context.Context, userID, recipeID uuid.UUID, ref model.ComponentRef, newServings float64) (*model.Ingredient, error) {
	if newServings <= 0 {
		return nil, validationf("servings must be greater than zero")
	}

	var ingredient *model.Ingredient
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe, err := getRecipe(tx, userID, recipeID)
		if err != nil {
			return err
		}

		ingredient, err = findIngredient(tx, recipeID, ref)
		if err != nil {
			return err
		}
		if ingredient == nil {
			return notFoundf("ingredient not found")
		}

		// A component that no longer exists keeps the stale summary;
		// any other resolution failure aborts the transaction.
		summary := ingredient.Summary
		comp, err := resolveComponent(tx, userID, ref)
		if err == nil {
			summary = comp.summarize(newServings)
		} else if !IsKind(err, KindNotFound) {
			return err
		}

		res := tx.Model(&model.Ingredient{}).Where("id = ?", ingredient.ID).
			Updates(map[string]interface{}{"servings": newServings, "summary": summary})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return consistencyf("ingredient update affected %d rows", res.RowsAffected)
		}
		ingredient.Servings = newServings
		ingredient.Summary = summary

		return s.recompute(tx, recipe)
	})
	if err != nil {
		return nil, err
	}
	return ingredient, nil
}

// RemoveIngredient detaches a component from the recipe and restores the
// invariant. A component that no longer exists is tolerated: the link row is
// removed and its contribution simply no longer appears in the recompute.
func (s *RecipeService) RemoveIngredient(ctx context.Context, userID, recipeID uuid.UUID, ref model.ComponentRef) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe, err := getRecipe(tx, userID, recipeID)
		if err != nil {
			return err
		}

		ingredient, err := findIngredient(tx, recipeID, ref)
		if err != nil {
			return err
		}
		if ingredient == nil {
			return notFoundf("ingredient not found")
		}

		if err := tx.Delete(&model.Ingredient{}, "id = ?", ingredient.ID).Error; err != nil {
			return err
		}

		return s.recompute(tx, recipe)
	})
}

// RemoveAllIngredients returns the recipe to the empty state: no ingredient
// rows, nutrition and price at zero. Calling it on an already-empty recipe is
// a no-op, not an error.
func (s *RecipeService) RemoveAllIngredients(ctx context.Context, userID, recipeID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe, err := getRecipe(tx, userID, recipeID)
		if err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipeID).Delete(&model.Ingredient{}).Error; err != nil {
			return err
		}
		return s.recompute(tx, recipe)
	})
}

// recompute rebuilds the recipe's nutrition and price from its current
// ingredient rows and commits both under the optimistic version check. The
// nutrition arithmetic itself is the ledger's Add over per-serving figures; a
// nested recipe's stored totals cover its whole batch, so they are scaled to
// one serving before weighting.
func (s *RecipeService) recompute(tx *gorm.DB, recipe *model.Recipe) error {
	var ingredients []model.Ingredient
	if err := tx.Where("recipe_id = ?", recipe.ID).Find(&ingredients).Error; err != nil {
		return err
	}

	total := recipe.Nutrition
	total.Reset()
	price := 0.0

	for i := range ingredients {
		ing := &ingredients[i]
		switch {
		case ing.FoodIngredientID != nil:
			var food model.Food
			err := tx.Preload("Nutrition").First(&food, "id = ?", *ing.FoodIngredientID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("recipe %s: ingredient %s references missing food %s, skipping",
					recipe.ID, ing.ID, *ing.FoodIngredientID)
				continue
			}
			if err != nil {
				return err
			}
			total.Add(&food.Nutrition, ing.Servings)
			price += food.PricePerServing() * ing.Servings
		case ing.RecipeIngredientID != nil:
			var sub model.Recipe
			err := tx.Preload("Nutrition").First(&sub, "id = ?", *ing.RecipeIngredientID).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("recipe %s: ingredient %s references missing recipe %s, skipping",
					recipe.ID, ing.ID, *ing.RecipeIngredientID)
				continue
			}
			if err != nil {
				return err
			}
			if sub.Servings > 0 {
				total.Add(&sub.Nutrition, ing.Servings/sub.Servings)
			}
			price += sub.PricePerServing() * ing.Servings
		}
	}

	res := tx.Model(&model.Nutrition{}).Where("id = ?", recipe.NutritionID).
		Updates(nutritionColumns(&total))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return consistencyf("nutrition recompute affected %d rows", res.RowsAffected)
	}

	res = tx.Model(&model.Recipe{}).
		Where("id = ? AND version = ?", recipe.ID, recipe.Version).
		Updates(map[string]interface{}{"price": price, "version": recipe.Version + 1})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != 1 {
		return consistencyf("recipe was modified concurrently")
	}

	recipe.Nutrition = total
	recipe.Price = price
	recipe.Version++
	return nil
}

// wouldCreateCycle walks the containment graph down from candidate, following
// recipe-in-recipe links, and reports whether root is reachable.
func wouldCreateCycle(tx *gorm.DB, root, candidate uuid.UUID) (bool, error) {
	visited := make(map[uuid.UUID]bool)
	stack := []uuid.UUID{candidate}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == root {
			return true, nil
		}
		if visited[id] {
			continue
		}
		visited[id] = true

		var children []model.Ingredient
		err := tx.Where("recipe_id = ? AND recipe_ingredient_id IS NOT NULL", id).
			Find(&children).Error
		if err != nil {
			return false, err
		}
		for i := range children {
			stack = append(stack, *children[i].RecipeIngredientID)
		}
	}
	return false, nil
}

func getRecipe(tx *gorm.DB, userID, id uuid.UUID) (*model.Recipe, error) {
	var recipe model.Recipe
	err := tx.Preload("Nutrition").Where("user_id = ?", userID).First(&recipe, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("recipe not found")
		}
		return nil, err
	}
	return &recipe, nil
}

// findIngredient returns the link row for (recipe, component), or nil when no
// such link exists.
func findIngredient(tx *gorm.DB, recipeID uuid.UUID, ref model.ComponentRef) (*model.Ingredient, error) {
	query := tx.Where("recipe_id = ?", recipeID)
	if id, ok := ref.FoodID(); ok {
		query = query.Where("food_ingredient_id = ?", id)
	} else if id, ok := ref.RecipeID(); ok {
		query = query.Where("recipe_ingredient_id = ?", id)
	} else {
		return nil, validationf("ingredient must reference a food or a recipe")
	}

	var ingredient model.Ingredient
	err := query.First(&ingredient).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ingredient, nil
}

// component is a resolved ingredient target with what the summary needs.
type component struct {
	description string // per-serving description from the nutrition row
	label       string // vendor + name for foods, name for recipes
	servingG    float64
}

func (c component) summarize(servings float64) string {
	s := fmt.Sprintf("%s x %s %s", formatServings(servings), c.description, c.label)
	if c.servingG > 0 {
		s += fmt.Sprintf(" (%s g)", formatServings(servings*c.servingG))
	}
	// The column caps at 100 characters; cut on a rune boundary so a
	// multi-byte name never leaves invalid UTF-8 behind.
	if r := []rune(s); len(r) > 100 {
		s = string(r[:100])
	}
	return s
}

func resolveComponent(tx *gorm.DB, userID uuid.UUID, ref model.ComponentRef) (*component, error) {
	if id, ok := ref.FoodID(); ok {
		var food model.Food
		err := tx.Preload("Nutrition").Where("user_id = ?", userID).First(&food, "id = ?", id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, notFoundf("food not found")
			}
			return nil, err
		}
		return &component{
			description: food.Nutrition.ServingSizeDescription,
			label:       strings.TrimSpace(food.Vendor + " " + food.Name),
			servingG:    food.Nutrition.ServingSizeG,
		}, nil
	}

	id, _ := ref.RecipeID()
	recipe, err := getRecipe(tx, userID, id)
	if err != nil {
		return nil, err
	}
	return &component{
		description: recipe.Nutrition.ServingSizeDescription,
		label:       recipe.Name,
		servingG:    recipe.Nutrition.ServingSizeG,
	}, nil
}

func formatServings(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
