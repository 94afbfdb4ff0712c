package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lastcallsw/trackeats/internal/model"
)

// SeedFile is the JSON shape the bulk loader consumes and produces. Ingredient
// rows reference foods and recipes by name so seed files stay portable across
// databases.
type SeedFile struct {
	Foods       []model.Food     `json:"foods"`
	Recipes     []SeedRecipe     `json:"recipes"`
	Ingredients []SeedIngredient `json:"ingredients"`
}

type SeedRecipe struct {
	Name                   string  `json:"name"`
	Cuisine                string  `json:"cuisine"`
	TotalYield             string  `json:"total_yield"`
	Servings               float64 `json:"servings"`
	ServingSizeDescription string  `json:"serving_size_description"`
}

type SeedIngredient struct {
	Recipe           string  `json:"recipe"`
	Food             string  `json:"food,omitempty"`
	RecipeIngredient string  `json:"recipe_ingredient,omitempty"`
	Servings         float64 `json:"servings"`
	Summary          string  `json:"summary,omitempty"`
	Ordinal          *int    `json:"ordinal,omitempty"`
}

// LoadResult summarizes an import run.
type LoadResult struct {
	Foods       int `json:"foods"`
	Recipes     int `json:"recipes"`
	Ingredients int `json:"ingredients"`
}

// DataLoadService is the bulk JSON import/export pipeline. It drives the
// catalog and aggregator services rather than writing rows itself, so every
// imported ingredient passes through the same guards and recompute as an API
// call would.
type DataLoadService struct {
	db      *gorm.DB
	foods   *FoodService
	recipes *RecipeService
}

func NewDataLoadService(db *gorm.DB, foods *FoodService, recipes *RecipeService) *DataLoadService {
	return &DataLoadService{db: db, foods: foods, recipes: recipes}
}

// Import loads a seed file into the owner's catalog. Foods commit as one
// deferred batch; recipes and their ingredient links follow in file order.
func (s *DataLoadService) Import(ctx context.Context, userID uuid.UUID, r io.Reader) (*LoadResult, error) {
	var seed SeedFile
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return nil, validationf("seed file is not valid JSON: %v", err)
	}

	result := &LoadResult{}

	batch := make([]*model.Food, len(seed.Foods))
	for i := range seed.Foods {
		batch[i] = &seed.Foods[i]
	}
	if len(batch) > 0 {
		if err := s.foods.CreateBatch(ctx, userID, batch); err != nil {
			return nil, err
		}
		result.Foods = len(batch)
	}

	for _, sr := range seed.Recipes {
		recipe := &model.Recipe{
			Cuisine:    sr.Cuisine,
			Name:       sr.Name,
			TotalYield: sr.TotalYield,
			Servings:   sr.Servings,
			Nutrition:  model.Nutrition{ServingSizeDescription: sr.ServingSizeDescription},
		}
		if _, err := s.recipes.Create(ctx, userID, recipe); err != nil {
			return nil, fmt.Errorf("recipe %q: %w", sr.Name, err)
		}
		result.Recipes++
	}

	for _, si := range seed.Ingredients {
		recipeID, err := s.recipeIDByName(ctx, userID, si.Recipe)
		if err != nil {
			return nil, fmt.Errorf("ingredient for %q: %w", si.Recipe, err)
		}

		var ref model.ComponentRef
		switch {
		case si.Food != "" && si.RecipeIngredient != "":
			return nil, validationf("ingredient for %q names both a food and a recipe", si.Recipe)
		case si.Food != "":
			foodID, err := s.foodIDByName(ctx, userID, si.Food)
			if err != nil {
				return nil, fmt.Errorf("ingredient for %q: %w", si.Recipe, err)
			}
			ref = model.FoodRef(foodID)
		case si.RecipeIngredient != "":
			subID, err := s.recipeIDByName(ctx, userID, si.RecipeIngredient)
			if err != nil {
				return nil, fmt.Errorf("ingredient for %q: %w", si.Recipe, err)
			}
			ref = model.RecipeRef(subID)
		default:
			return nil, validationf("ingredient for %q names no component", si.Recipe)
		}

		if _, err := s.recipes.AddIngredient(ctx, userID, recipeID, ref, si.Servings, si.Summary, si.Ordinal); err != nil {
			return nil, fmt.Errorf("ingredient for %q: %w", si.Recipe, err)
		}
		result.Ingredients++
	}

	return result, nil
}

// Export writes the owner's catalog back out in the seed file shape.
func (s *DataLoadService) Export(ctx context.Context, userID uuid.UUID, w io.Writer) error {
	foods, err := s.foods.List(ctx, userID, "")
	if err != nil {
		return err
	}
	recipes, err := s.recipes.List(ctx, userID)
	if err != nil {
		return err
	}

	seed := SeedFile{Foods: foods}
	names := make(map[uuid.UUID]string, len(recipes))
	foodNames := make(map[uuid.UUID]string, len(foods))
	for _, f := range foods {
		foodNames[f.ID] = f.Name
	}
	for _, r := range recipes {
		names[r.ID] = r.Name
		seed.Recipes = append(seed.Recipes, SeedRecipe{
			Name:                   r.Name,
			Cuisine:                r.Cuisine,
			TotalYield:             r.TotalYield,
			Servings:               r.Servings,
			ServingSizeDescription: r.Nutrition.ServingSizeDescription,
		})
	}

	for _, r := range recipes {
		ingredients, err := s.recipes.ListIngredients(ctx, userID, r.ID)
		if err != nil {
			return err
		}
		for _, ing := range ingredients {
			si := SeedIngredient{
				Recipe:   r.Name,
				Servings: ing.Servings,
				Summary:  ing.Summary,
				Ordinal:  ing.Ordinal,
			}
			if ing.FoodIngredientID != nil {
				si.Food = foodNames[*ing.FoodIngredientID]
			}
			if ing.RecipeIngredientID != nil {
				si.RecipeIngredient = names[*ing.RecipeIngredientID]
			}
			seed.Ingredients = append(seed.Ingredients, si)
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(&seed)
}

func (s *DataLoadService) recipeIDByName(ctx context.Context, userID uuid.UUID, name string) (uuid.UUID, error) {
	var recipe model.Recipe
	err := s.db.WithContext(ctx).Where("user_id = ? AND name = ?", userID, name).First(&recipe).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, notFoundf("recipe %q not found", name)
		}
		return uuid.Nil, err
	}
	return recipe.ID, nil
}

func (s *DataLoadService) foodIDByName(ctx context.Context, userID uuid.UUID, name string) (uuid.UUID, error) {
	var food model.Food
	err := s.db.WithContext(ctx).Where("user_id = ? AND name = ?", userID, name).First(&food).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, notFoundf("food %q not found", name)
		}
		return uuid.Nil, err
	}
	return food.ID, nil
}
