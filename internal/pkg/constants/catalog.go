package constants

// Listing categories.
const (
	CategoryPlace    = "place"
	CategoryFood     = "food"
	CategoryDrink    = "drink"
	CategorySouvenir = "souvenir"
	CategoryEvent    = "event"
)

var Categories = []string{CategoryPlace, CategoryFood, CategoryDrink, CategorySouvenir, CategoryEvent}

func IsValidCategory(c string) bool { return contains(Categories, c) }

// Price levels.
const (
	PriceFree   = "Free"
	PriceLow    = "$"
	PriceMedium = "$$"
	PriceHigh   = "$$$"
)

var PriceLevels = []string{PriceFree, PriceLow, PriceMedium, PriceHigh}

func IsValidPriceLevel(p string) bool { return contains(PriceLevels, p) }

// Provinces lists the 24 provinces of Cambodia and the capital.
var Provinces = []string{
	"banteay-meanchey",
	"battambang",
	"kampong-cham",
	"kampong-chhnang",
	"kampong-speu",
	"kampong-thom",
	"kampot",
	"kandal",
	"kep",
	"koh-kong",
	"kratie",
	"mondulkiri",
	"oddar-meanchey",
	"pailin",
	"phnom-penh",
	"preah-sihanouk",
	"preah-vihear",
	"prey-veng",
	"pursat",
	"ratanakiri",
	"siem-reap",
	"stung-treng",
	"svay-rieng",
	"takeo",
	"tbong-khmum",
}

func IsValidProvince(p string) bool { return contains(Provinces, p) }
