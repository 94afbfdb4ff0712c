package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lastcallsw/trackeats/internal/model"
)

func chickenNutrition() *model.Nutrition {
	return &model.Nutrition{
		ServingSizeDescription: "3 oz",
		ServingSizeG:           85,
		Calories:               165,
		TotalFatG:              3.6,
		SodiumMg:               74,
		ProteinG:               31,
	}
}

func TestNutritionAdd(t *testing.T) {
	total := &model.Nutrition{ServingSizeDescription: "1 plate"}
	total.Add(chickenNutrition(), 2)

	assert.Equal(t, 330.0, total.Calories)
	assert.Equal(t, 62.0, total.ProteinG)
	assert.InDelta(t, 7.2, total.TotalFatG, 1e-9)
	assert.Equal(t, 148.0, total.SodiumMg)
	assert.Equal(t, "1 plate", total.ServingSizeDescription)
	assert.Equal(t, 0.0, total.ServingSizeG, "serving descriptors are not accumulated")
}

func TestNutritionSubtractUndoesAdd(t *testing.T) {
	total := &model.Nutrition{}
	total.Add(chickenNutrition(), 1.5)
	total.Subtract(chickenNutrition(), 1.5)

	assert.InDelta(t, 0, total.Calories, 1e-9)
	assert.InDelta(t, 0, total.ProteinG, 1e-9)
	assert.InDelta(t, 0, total.TotalFatG, 1e-9)
	assert.InDelta(t, 0, total.SodiumMg, 1e-9)
}

func TestNutritionReset(t *testing.T) {
	total := &model.Nutrition{ServingSizeDescription: "1 bowl", ServingSizeG: 250}
	total.Add(chickenNutrition(), 3)
	total.Reset()

	assert.Equal(t, 0.0, total.Calories)
	assert.Equal(t, 0.0, total.ProteinG)
	assert.Equal(t, "1 bowl", total.ServingSizeDescription)
	assert.Equal(t, 250.0, total.ServingSizeG)
}

func TestNutritionFractionalServings(t *testing.T) {
	total := &model.Nutrition{}
	total.Add(chickenNutrition(), 0.5)

	assert.InDelta(t, 82.5, total.Calories, 1e-9)
	assert.InDelta(t, 15.5, total.ProteinG, 1e-9)
}
