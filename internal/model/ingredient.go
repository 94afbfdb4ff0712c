package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ComponentRef identifies the component an Ingredient row points at: a Food or
// a Recipe, never both. The constructors make an empty or double reference
// unrepresentable, which is what lets the link row keep two nullable columns
// without a runtime exactly-one check.
type ComponentRef struct {
	foodID   *uuid.UUID
	recipeID *uuid.UUID
}

// FoodRef builds a reference to a Food component.
func FoodRef(id uuid.UUID) ComponentRef {
	return ComponentRef{foodID: &id}
}

// RecipeRef builds a reference to a Recipe component.
func RecipeRef(id uuid.UUID) ComponentRef {
	return ComponentRef{recipeID: &id}
}

// FoodID returns the referenced Food id, if this is a food reference.
func (r ComponentRef) FoodID() (uuid.UUID, bool) {
	if r.foodID == nil {
		return uuid.Nil, false
	}
	return *r.foodID, true
}

// RecipeID returns the referenced Recipe id, if this is a recipe reference.
func (r ComponentRef) RecipeID() (uuid.UUID, bool) {
	if r.recipeID == nil {
		return uuid.Nil, false
	}
	return *r.recipeID, true
}

// IsZero reports whether the reference was never constructed.
func (r ComponentRef) IsZero() bool {
	return r.foodID == nil && r.recipeID == nil
}

// Ingredient links a Recipe to one component with a serving multiplier. It is
// the recipe's use of the component, not a catalog item of its own.
type Ingredient struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	RecipeID           uuid.UUID  `gorm:"type:uuid;not null;index" json:"recipe_id"`
	FoodIngredientID   *uuid.UUID `gorm:"type:uuid;index" json:"food_ingredient_id"`
	RecipeIngredientID *uuid.UUID `gorm:"type:uuid;index" json:"recipe_ingredient_id"`
	Ordinal            *int       `json:"ordinal,omitempty"`
	Servings           float64    `gorm:"not null" json:"servings"`
	Summary            string     `gorm:"size:100" json:"summary"`
}

func (i *Ingredient) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// Component returns the ingredient's reference as a ComponentRef.
func (i *Ingredient) Component() ComponentRef {
	if i.FoodIngredientID != nil {
		return FoodRef(*i.FoodIngredientID)
	}
	if i.RecipeIngredientID != nil {
		return RecipeRef(*i.RecipeIngredientID)
	}
	return ComponentRef{}
}

// References reports whether the ingredient row points at ref's component.
func (i *Ingredient) References(ref ComponentRef) bool {
	if id, ok := ref.FoodID(); ok {
		return i.FoodIngredientID != nil && *i.FoodIngredientID == id
	}
	if id, ok := ref.RecipeID(); ok {
		return i.RecipeIngredientID != nil && *i.RecipeIngredientID == id
	}
	return false
}
