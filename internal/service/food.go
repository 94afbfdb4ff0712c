package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lastcallsw/trackeats/internal/model"
)

// FoodService is the food catalog: validated create/update/delete of atomic
// purchasable items, each owning one Nutrition row.
type FoodService struct {
	db *gorm.DB
}

func NewFoodService(db *gorm.DB) *FoodService {
	return &FoodService{db: db}
}

// Create validates and persists a new food with its nutrition row.
func (s *FoodService) Create(ctx context.Context, userID uuid.UUID, food *model.Food) (*model.Food, error) {
	if err := validateFood(food); err != nil {
		return nil, err
	}
	food.ID = uuid.Nil
	food.UserID = userID
	food.Nutrition.ID = uuid.Nil
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return createFood(tx, food)
	}); err != nil {
		return nil, err
	}
	return food, nil
}

// CreateBatch persists several foods in one transaction. The bulk loader uses
// this so a bad record rolls back the whole batch.
func (s *FoodService) CreateBatch(ctx context.Context, userID uuid.UUID, foods []*model.Food) error {
	for _, food := range foods {
		if err := validateFood(food); err != nil {
			return err
		}
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, food := range foods {
			food.ID = uuid.Nil
			food.UserID = userID
			food.Nutrition.ID = uuid.Nil
			if err := createFood(tx, food); err != nil {
				return err
			}
		}
		return nil
	})
}

func createFood(tx *gorm.DB, food *model.Food) error {
	if err := tx.Create(&food.Nutrition).Error; err != nil {
		return err
	}
	food.NutritionID = food.Nutrition.ID
	return tx.Create(food).Error
}

// Get returns the owner's food with its nutrition loaded.
func (s *FoodService) Get(ctx context.Context, userID, id uuid.UUID) (*model.Food, error) {
	var food model.Food
	err := s.db.WithContext(ctx).Preload("Nutrition").
		Where("user_id = ?", userID).First(&food, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundf("food not found")
		}
		return nil, err
	}
	return &food, nil
}

// List returns every food the owner has, optionally filtered by group.
func (s *FoodService) List(ctx context.Context, userID uuid.UUID, group model.FoodGroup) ([]model.Food, error) {
	query := s.db.WithContext(ctx).Preload("Nutrition").Where("user_id = ?", userID)
	if group != "" {
		if !group.Valid() {
			return nil, validationf("unknown food group %q", group)
		}
		query = query.Where("\"group\" = ?", group)
	}
	var foods []model.Food
	if err := query.Order("name").Find(&foods).Error; err != nil {
		return nil, err
	}
	return foods, nil
}

// Update replaces the food's fields and its nutrition sub-fields atomically.
// Both writes must touch exactly one row; anything else means the id or the
// ownership scope was spoofed and the transaction rolls back.
func (s *FoodService) Update(ctx context.Context, userID uuid.UUID, food *model.Food) (*model.Food, error) {
	if err := validateFood(food); err != nil {
		return nil, err
	}

	existing, err := s.Get(ctx, userID, food.ID)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Nutrition{}).Where("id = ?", existing.NutritionID).
			Updates(nutritionColumns(&food.Nutrition))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return consistencyf("nutrition update affected %d rows", res.RowsAffected)
		}

		res = tx.Model(&model.Food{}).
			Where("id = ? AND user_id = ?", food.ID, userID).
			Updates(foodColumns(food))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return consistencyf("food update affected %d rows", res.RowsAffected)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, userID, food.ID)
}

// Delete removes the food and its nutrition row. Deleting is restricted while
// any ingredient row still references the food.
func (s *FoodService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	food, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var refs int64
		if err := tx.Model(&model.Ingredient{}).
			Where("food_ingredient_id = ?", id).Count(&refs).Error; err != nil {
			return err
		}
		if refs > 0 {
			return conflictf("food is used by %d recipe ingredient(s)", refs)
		}
		if err := tx.Delete(&model.Food{}, "id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Nutrition{}, "id = ?", food.NutritionID).Error
	})
}

func validateFood(food *model.Food) error {
	var problems []string
	if strings.TrimSpace(food.Name) == "" {
		problems = append(problems, "name is required")
	}
	if strings.TrimSpace(food.Vendor) == "" {
		problems = append(problems, "vendor is required")
	}
	if !food.Group.Valid() {
		problems = append(problems, "group "+string(food.Group)+" is not a recognized category")
	}
	if food.Servings <= 0 {
		problems = append(problems, "servings must be greater than zero")
	}
	if len(problems) > 0 {
		return validationf("%s", strings.Join(problems, "; "))
	}
	// An unset purchase date is stored as NULL, never as a zero date.
	if food.PriceDate != nil && food.PriceDate.IsZero() {
		food.PriceDate = nil
	}
	return nil
}

// foodColumns maps a food to the column set for a counted update. A map keeps
// zero values (cleared subtype, zero price) from being skipped the way a
// struct update would.
func foodColumns(food *model.Food) map[string]interface{} {
	cols := map[string]interface{}{
		"group":            food.Group,
		"name":             food.Name,
		"subtype":          food.Subtype,
		"description":      food.Description,
		"vendor":           food.Vendor,
		"size_description": food.SizeDescription,
		"size_g":           food.SizeG,
		"size_oz":          food.SizeOz,
		"servings":         food.Servings,
		"price":            food.Price,
		"shelf_life":       food.ShelfLife,
	}
	if food.PriceDate != nil {
		cols["price_date"] = *food.PriceDate
	} else {
		cols["price_date"] = nil
	}
	return cols
}

func nutritionColumns(n *model.Nutrition) map[string]interface{} {
	return map[string]interface{}{
		"serving_size_description": n.ServingSizeDescription,
		"serving_size_g":           n.ServingSizeG,
		"serving_size_oz":          n.ServingSizeOz,
		"calories":                 n.Calories,
		"total_fat_g":              n.TotalFatG,
		"saturated_fat_g":          n.SaturatedFatG,
		"trans_fat_g":              n.TransFatG,
		"cholesterol_mg":           n.CholesterolMg,
		"sodium_mg":                n.SodiumMg,
		"total_carbs_g":            n.TotalCarbsG,
		"fiber_g":                  n.FiberG,
		"total_sugar_g":            n.TotalSugarG,
		"added_sugar_g":            n.AddedSugarG,
		"protein_g":                n.ProteinG,
		"vitamin_d_mcg":            n.VitaminDMcg,
		"calcium_mg":               n.CalciumMg,
		"iron_mg":                  n.IronMg,
		"potassium_mg":             n.PotassiumMg,
	}
}
