package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryDairy      Category = "dairy"
	CategoryMeat       Category = "meat"
	CategoryFish       Category = "fish"
	CategoryFruit      Category = "fruit"
	CategoryVegetables Category = "vegetables"
	CategoryBakery     Category = "bakery"
	CategoryBeverages  Category = "beverages"
	CategoryFrozen     Category = "frozen"
	CategoryPantry     Category = "pantry"
	CategoryCondiments Category = "condiments"
	CategoryOther      Category = "other"
)

// Categories lists every valid Category in display order.
var Categories = []Category{
	CategoryDairy, CategoryMeat, CategoryFish, CategoryFruit, CategoryVegetables,
	CategoryBakery, CategoryBeverages, CategoryFrozen, CategoryPantry,
	CategoryCondiments, CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type StorageLocation string

const (
	LocationFridge  StorageLocation = "fridge"
	LocationFreezer StorageLocation = "freezer"
	LocationPantry  StorageLocation = "pantry"
	LocationCounter StorageLocation = "counter"
	LocationOther   StorageLocation = "other"
)

var Locations = []StorageLocation{
	LocationFridge, LocationFreezer, LocationPantry, LocationCounter, LocationOther,
}

func (l StorageLocation) Valid() bool {
	for _, known := range Locations {
		if l == known {
			return true
		}
	}
	return false
}

type Product struct {
	ID             uuid.UUID
	Name           string
	Quantity       float64
	Unit           string
	Category       Category
	Location       StorageLocation
	ArrivalDate    time.Time
	ExpirationDate time.Time
	LotNumber      string
}

// DaysUntilExpiration returns the number of whole days left before the
// product expires, counted from now. It is negative once the product is past
// its expiration.
func (p *Product) DaysUntilExpiration(now time.Time) int {
	return int(math.Floor(p.ExpirationDate.Sub(now).Hours() / 24))
}

// IsExpired reports whether the expiration timestamp is already behind now.
func (p *Product) IsExpired(now time.Time) bool {
	return p.ExpirationDate.Before(now)
}
