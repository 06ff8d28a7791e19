package intake

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/labworks/intake-backend/internal/types"
)

// SampleContext is the parent-sample slice of data every ledger row
// denormalizes.
type SampleContext struct {
	SampleID     uuid.UUID
	ClientName   string
	ProjectTitle string
	ReceivedDate time.Time
	SampleCode   string
}

const unknownParty = "Unknown"

type mapFunc func(common types.LogCommon, set NormalizedSet) types.LogEntry

// One mapping function per ledger shape, dispatched through this table. A
// missing entry can only mean a new category was added without a mapper, so
// MapFields falls back to the projects shape.
var mappersByCategory = map[LogCategory]mapFunc{
	CategoryConcreteCube:     mapConcreteCube,
	CategoryBricksBlocks:     mapBricksBlocks,
	CategoryPavers:           mapPavers,
	CategoryConcreteCylinder: mapConcreteCylinder,
	CategoryWaterAbsorption:  mapWaterAbsorption,
	CategoryProjects:         mapProjects,
}

// MapFields projects a normalized set plus its sample context into the exact
// column set of the resolved ledger. Missing geometry stays NULL; a partial
// row beats a rejected set, gaps are caught in log review.
func MapFields(sctx SampleContext, set NormalizedSet, setID uuid.UUID, cat LogCategory) types.LogEntry {
	mapper, ok := mappersByCategory[cat]
	if !ok {
		mapper = mapProjects
	}
	return mapper(commonFields(sctx, set, setID), set)
}

func commonFields(sctx SampleContext, set NormalizedSet, setID uuid.UUID) types.LogCommon {
	now := time.Now()
	return types.LogCommon{
		ID:           uuid.New(),
		SampleID:     sctx.SampleID,
		SampleSetID:  setID,
		ClientName:   fallbackUnknown(sctx.ClientName),
		ProjectTitle: fallbackUnknown(sctx.ProjectTitle),
		DateReceived: sctx.ReceivedDate,
		ReceiptNo:    sctx.SampleCode,
		AreaOfUse:    set.AreaOfUse,
		SampleSerial: joinSerials(set.SerialNumbers),
		CastingDate:  set.CastingDate,
		TestingDate:  set.TestingDate,
		AgeDays:      set.AgeDays,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func mapConcreteCube(common types.LogCommon, set NormalizedSet) types.LogEntry {
	return &types.ConcreteCubeLog{
		LogCommon: common,
		Class:     set.Class,
		LengthMm:  dim(set.Length),
		WidthMm:   dim(set.Width),
		HeightMm:  dim(set.Height),
	}
}

func mapBricksBlocks(common types.LogCommon, set NormalizedSet) types.LogEntry {
	return &types.BricksBlocksLog{
		LogCommon:  common,
		SampleType: set.Category,
		BlockType:  set.BlockType,
		LengthMm:   dim(set.Length),
		WidthMm:    dim(set.Width),
		HeightMm:   dim(set.Height),
		Holes:      encodeHoles(set.Holes),
	}
}

func mapPavers(common types.LogCommon, set NormalizedSet) types.LogEntry {
	return &types.PaversLog{
		LogCommon:    common,
		PaverType:    set.BlockType,
		ThicknessMm:  dim(set.Thickness),
		PaversPerSqm: dim(set.NumPerSqm),
	}
}

func mapConcreteCylinder(common types.LogCommon, set NormalizedSet) types.LogEntry {
	return &types.ConcreteCylinderLog{
		LogCommon:  common,
		DiameterMm: dim(set.Diameter),
		HeightMm:   dim(set.Height),
	}
}

func mapWaterAbsorption(common types.LogCommon, set NormalizedSet) types.LogEntry {
	return &types.WaterAbsorptionLog{
		LogCommon:  common,
		SampleType: set.Category,
		LengthMm:   dim(set.Length),
		WidthMm:    dim(set.Width),
		HeightMm:   dim(set.Height),
	}
}

func mapProjects(common types.LogCommon, _ NormalizedSet) types.LogEntry {
	return &types.ProjectLog{LogCommon: common}
}

func fallbackUnknown(name string) string {
	if strings.TrimSpace(name) == "" {
		return unknownParty
	}
	return name
}

// joinSerials comma-joins the serial list; an empty list maps to NULL, not
// an empty string.
func joinSerials(serials []string) *string {
	if len(serials) == 0 {
		return nil
	}
	joined := strings.Join(serials, ",")
	return &joined
}

// dim passes a dimension string through untouched; no unit conversion
// happens at intake.
func dim(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func encodeHoles(holes []HoleGeometry) datatypes.JSON {
	if len(holes) == 0 {
		return nil
	}
	raw, err := json.Marshal(holes)
	if err != nil {
		return nil
	}
	return datatypes.JSON(raw)
}
