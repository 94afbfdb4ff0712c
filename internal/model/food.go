package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FoodGroup is the fixed taxonomy of food categories.
type FoodGroup string

const (
	GroupBeverages     FoodGroup = "beverages"
	GroupCondiments    FoodGroup = "condiments"
	GroupDairy         FoodGroup = "dairy"
	GroupFatsAndSugars FoodGroup = "fatsAndSugars"
	GroupFruits        FoodGroup = "fruits"
	GroupGrains        FoodGroup = "grains"
	GroupHerbsSpices   FoodGroup = "herbsAndSpices"
	GroupNutsAndSeeds  FoodGroup = "nutsAndSeeds"
	GroupPreparedFoods FoodGroup = "preparedFoods"
	GroupProteins      FoodGroup = "proteins"
	GroupVegetables    FoodGroup = "vegetables"
	GroupOther         FoodGroup = "other"
)

// FoodGroups lists every recognized category.
var FoodGroups = []FoodGroup{
	GroupBeverages, GroupCondiments, GroupDairy, GroupFatsAndSugars,
	GroupFruits, GroupGrains, GroupHerbsSpices, GroupNutsAndSeeds,
	GroupPreparedFoods, GroupProteins, GroupVegetables, GroupOther,
}

// Valid reports whether g is one of the recognized categories.
func (g FoodGroup) Valid() bool {
	for _, known := range FoodGroups {
		if g == known {
			return true
		}
	}
	return false
}

// Date stores a calendar date and round-trips as "YYYY-MM-DD" in JSON.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" || s == `""` {
		return nil
	}
	t, err := time.Parse(`"`+dateLayout+`"`, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Value implements the driver.Valuer interface
func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

// Scan implements the sql.Scanner interface
func (d *Date) Scan(value interface{}) error {
	switch v := value.(type) {
	case time.Time:
		d.Time = v
		return nil
	case string:
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			return err
		}
		d.Time = t
		return nil
	case nil:
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Date", value)
	}
}

// Food is an atomic purchasable item carrying its own per-serving Nutrition.
type Food struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Group           FoodGroup `gorm:"size:20;not null" json:"group"`
	Name            string    `gorm:"size:50;not null" json:"name"`
	Subtype         string    `gorm:"size:50" json:"subtype"`
	Description     string    `gorm:"size:100" json:"description"`
	Vendor          string    `gorm:"size:50;not null" json:"vendor"`
	SizeDescription string    `gorm:"size:50" json:"size_description"`
	SizeG           float64   `json:"size_g"`
	SizeOz          float64   `json:"size_oz"`
	Servings        float64   `gorm:"not null" json:"servings"`
	NutritionID     uuid.UUID `gorm:"type:uuid;not null" json:"nutrition_id"`
	Nutrition       Nutrition `gorm:"foreignKey:NutritionID" json:"nutrition"`
	Price           float64   `json:"price"`
	PriceDate       *Date     `json:"price_date"`
	ShelfLife       string    `gorm:"size:150" json:"shelf_life"`
}

func (f *Food) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// PricePerServing returns the purchase price prorated to one serving, or zero
// when price or servings are unset.
func (f *Food) PricePerServing() float64 {
	if f.Price <= 0 || f.Servings <= 0 {
		return 0
	}
	return f.Price / f.Servings
}
