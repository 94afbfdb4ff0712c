package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Recipe is a composed item built from Ingredient rows. Its Nutrition row is
// the denormalized total over all current ingredients and is owned by the
// aggregation operations in the recipe service; nothing else writes it.
type Recipe struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Cuisine     string    `gorm:"size:20" json:"cuisine"`
	Name        string    `gorm:"size:50;not null" json:"name"`
	TotalYield  string    `gorm:"size:50;not null" json:"total_yield"`
	Servings    float64   `gorm:"not null" json:"servings"`
	NutritionID uuid.UUID `gorm:"type:uuid;not null" json:"nutrition_id"`
	Nutrition   Nutrition `gorm:"foreignKey:NutritionID" json:"nutrition"`
	Price       float64   `json:"price"`

	// Version guards the read-modify-write of the aggregate; every
	// ingredient mutation bumps it and checks it in the WHERE clause.
	Version int64 `gorm:"not null;default:0" json:"-"`
}

func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// PricePerServing returns the aggregated recipe price prorated to one serving.
func (r *Recipe) PricePerServing() float64 {
	if r.Price <= 0 || r.Servings <= 0 {
		return 0
	}
	return r.Price / r.Servings
}
