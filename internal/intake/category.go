package intake

import (
	"strings"

	"github.com/labworks/intake-backend/internal/normalization"
)

// LogCategory identifies the destination ledger for one sample set. The set
// is closed: Classify returns exactly one of these for any input.
type LogCategory int

const (
	CategoryProjects LogCategory = iota
	CategoryConcreteCube
	CategoryBricksBlocks
	CategoryPavers
	CategoryConcreteCylinder
	CategoryWaterAbsorption
)

var categoryNames = map[LogCategory]string{
	CategoryProjects:         "projects",
	CategoryConcreteCube:     "concrete_cube",
	CategoryBricksBlocks:     "bricks_blocks",
	CategoryPavers:           "pavers",
	CategoryConcreteCylinder: "concrete_cylinder",
	CategoryWaterAbsorption:  "water_absorption",
}

func (c LogCategory) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "projects"
}

// AllCategories lists every ledger, catch-all included.
func AllCategories() []LogCategory {
	return []LogCategory{
		CategoryProjects,
		CategoryConcreteCube,
		CategoryBricksBlocks,
		CategoryPavers,
		CategoryConcreteCylinder,
		CategoryWaterAbsorption,
	}
}

// waterAbsorptionMarker routes a set to the water absorption ledger when any
// assigned test name contains it, regardless of the declared material
// category. Absorption results run on their own timeline, so they get their
// own ledger even for specimens that would otherwise log elsewhere.
const waterAbsorptionMarker = "water absorption"

var categoryByMaterial = map[string]LogCategory{
	"concrete":          CategoryConcreteCube,
	"pavers":            CategoryPavers,
	"bricks":            CategoryBricksBlocks,
	"blocks":            CategoryBricksBlocks,
	"concrete cylinder": CategoryConcreteCylinder,
	"cylinder":          CategoryConcreteCylinder,
}

// Classify picks the single ledger for a normalized set. The assigned-test
// override wins over the declared category; unknown categories fall through
// to the projects catch-all. Total: there is no error path.
func Classify(set NormalizedSet) LogCategory {
	for _, test := range set.AssignedTests {
		if strings.Contains(normalization.ParseInputString(test), waterAbsorptionMarker) {
			return CategoryWaterAbsorption
		}
	}
	if cat, ok := categoryByMaterial[set.Category]; ok {
		return cat
	}
	return CategoryProjects
}
