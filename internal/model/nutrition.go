package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Nutrition holds per-serving nutrient quantities for a Food, or the
// accumulated totals for a Recipe. Every Food and Recipe owns exactly one row.
type Nutrition struct {
	ID                     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ServingSizeDescription string    `gorm:"size:50;not null" json:"serving_size_description"`
	ServingSizeG           float64   `json:"serving_size_g"`
	ServingSizeOz          float64   `json:"serving_size_oz"`
	Calories               float64   `gorm:"not null" json:"calories"`
	TotalFatG              float64   `json:"total_fat_g"`
	SaturatedFatG          float64   `json:"saturated_fat_g"`
	TransFatG              float64   `json:"trans_fat_g"`
	CholesterolMg          float64   `json:"cholesterol_mg"`
	SodiumMg               float64   `json:"sodium_mg"`
	TotalCarbsG            float64   `json:"total_carbs_g"`
	FiberG                 float64   `json:"fiber_g"`
	TotalSugarG            float64   `json:"total_sugar_g"`
	AddedSugarG            float64   `json:"added_sugar_g"`
	ProteinG               float64   `json:"protein_g"`
	VitaminDMcg            float64   `json:"vitamin_d_mcg"`
	CalciumMg              float64   `json:"calcium_mg"`
	IronMg                 float64   `json:"iron_mg"`
	PotassiumMg            float64   `json:"potassium_mg"`
}

func (n *Nutrition) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// apply adds factor * other to every nutrient field. Serving-size descriptors
// are never touched; they describe the owning record, not the accumulation.
func (n *Nutrition) apply(other *Nutrition, factor float64) {
	n.Calories += other.Calories * factor
	n.TotalFatG += other.TotalFatG * factor
	n.SaturatedFatG += other.SaturatedFatG * factor
	n.TransFatG += other.TransFatG * factor
	n.CholesterolMg += other.CholesterolMg * factor
	n.SodiumMg += other.SodiumMg * factor
	n.TotalCarbsG += other.TotalCarbsG * factor
	n.FiberG += other.FiberG * factor
	n.TotalSugarG += other.TotalSugarG * factor
	n.AddedSugarG += other.AddedSugarG * factor
	n.ProteinG += other.ProteinG * factor
	n.VitaminDMcg += other.VitaminDMcg * factor
	n.CalciumMg += other.CalciumMg * factor
	n.IronMg += other.IronMg * factor
	n.PotassiumMg += other.PotassiumMg * factor
}

// Add accumulates servings worth of other into n.
func (n *Nutrition) Add(other *Nutrition, servings float64) {
	n.apply(other, servings)
}

// Subtract removes servings worth of other from n. It is the exact inverse of
// Add with the same arguments; callers must keep the two paired.
func (n *Nutrition) Subtract(other *Nutrition, servings float64) {
	n.apply(other, -servings)
}

// Reset zeroes every nutrient field, leaving the serving-size descriptors
// in place.
func (n *Nutrition) Reset() {
	n.Calories = 0
	n.TotalFatG = 0
	n.SaturatedFatG = 0
	n.TransFatG = 0
	n.CholesterolMg = 0
	n.SodiumMg = 0
	n.TotalCarbsG = 0
	n.FiberG = 0
	n.TotalSugarG = 0
	n.AddedSugarG = 0
	n.ProteinG = 0
	n.VitaminDMcg = 0
	n.CalciumMg = 0
	n.IronMg = 0
	n.PotassiumMg = 0
}
