package pricing

import (
	"math"
	"sort"
	"strings"

	"designstudio/internal/domain"
)

// DefaultCategory keys the fallback band used for unknown categories.
const DefaultCategory = "default"

// bucketEdges are the inclusive upper cubic-foot edges shared by every
// category. The last bucket is unbounded.
var bucketEdges = [...]float64{2, 5, 10, 15, 30, math.Inf(1)}

type bandRange struct{ min, max float64 }

var bandTable = map[string][len(bucketEdges)]bandRange{
	"chairs":   {{25000, 35000}, {45000, 60000}, {60000, 85000}, {85000, 110000}, {110000, 150000}, {150000, 200000}},
	"tables":   {{30000, 45000}, {40000, 60000}, {55000, 80000}, {70000, 95000}, {80000, 120000}, {120000, 180000}},
	"sofas":    {{40000, 60000}, {60000, 90000}, {90000, 130000}, {130000, 170000}, {170000, 240000}, {240000, 320000}},
	"beds":     {{45000, 65000}, {65000, 95000}, {95000, 135000}, {135000, 180000}, {180000, 250000}, {250000, 340000}},
	"storage":  {{30000, 45000}, {45000, 65000}, {65000, 90000}, {90000, 120000}, {120000, 170000}, {170000, 230000}},
	"lighting": {{9000, 18000}, {18000, 30000}, {30000, 45000}, {45000, 65000}, {65000, 90000}, {90000, 120000}},
	"decor":    {{9000, 15000}, {15000, 25000}, {25000, 40000}, {40000, 60000}, {60000, 85000}, {85000, 110000}},

	DefaultCategory: {{20000, 35000}, {35000, 55000}, {55000, 80000}, {80000, 105000}, {105000, 150000}, {150000, 210000}},
}

var categoryAliases = map[string]string{
	"chair":     "chairs",
	"seating":   "chairs",
	"table":     "tables",
	"desk":      "tables",
	"desks":     "tables",
	"sofa":      "sofas",
	"couch":     "sofas",
	"couches":   "sofas",
	"bed":       "beds",
	"cabinet":   "storage",
	"cabinets":  "storage",
	"shelf":     "storage",
	"shelves":   "storage",
	"wardrobe":  "storage",
	"wardrobes": "storage",
	"lamp":      "lighting",
	"lamps":     "lighting",
}

// NormalizeCategory maps user input onto a table key. Unknown categories
// resolve to DefaultCategory.
func NormalizeCategory(category string) string {
	key := strings.ToLower(strings.TrimSpace(category))
	if alias, ok := categoryAliases[key]; ok {
		key = alias
	}
	if _, ok := bandTable[key]; ok {
		return key
	}
	return DefaultCategory
}

// LookupBand returns the guideline band for the category and volume. It is
// total: every input resolves to a band with 0 < Min <= Max.
func LookupBand(category string, cubicFeet float64) domain.PriceBand {
	key := NormalizeCategory(category)
	ranges := bandTable[key]
	idx := bucketIndex(cubicFeet)
	r := ranges[idx]
	return domain.PriceBand{
		Category:     key,
		MaxCubicFeet: bucketEdges[idx],
		Min:          r.min,
		Max:          r.max,
	}
}

func bucketIndex(cubicFeet float64) int {
	if math.IsNaN(cubicFeet) {
		return 0
	}
	for i, edge := range bucketEdges {
		if cubicFeet <= edge {
			return i
		}
	}
	return len(bucketEdges) - 1
}

// Categories lists the known categories, excluding the fallback key.
func Categories() []string {
	out := make([]string, 0, len(bandTable)-1)
	for k := range bandTable {
		if k == DefaultCategory {
			continue
		}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
