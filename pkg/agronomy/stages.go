package agronomy

import "strings"

// Stage is one named phase of a crop's development, expressed as an
// inclusive day-offset range from the planting date.
type Stage struct {
	Name     string `json:"name"`
	StartDay int    `json:"startDay"`
	EndDay   int    `json:"endDay"`
}

// DefaultCropKey is the stage-table entry used for crops we have no
// dedicated calendar for.
const DefaultCropKey = "default"

// stageTables holds the per-crop growth calendars. Ranges are contiguous,
// non-overlapping and start at day 0; the last range ends at the crop's
// configured duration (see cropDurations in harvest.go).
var stageTables = map[string][]Stage{
	"maize": {
		{Name: "germination", StartDay: 0, EndDay: 10},
		{Name: "vegetative", StartDay: 11, EndDay: 35},
		{Name: "tasseling", StartDay: 36, EndDay: 50},
		{Name: "silking", StartDay: 51, EndDay: 70},
		{Name: "grain_filling", StartDay: 71, EndDay: 85},
		{Name: "maturation", StartDay: 86, EndDay: 90},
	},
	"beans": {
		{Name: "germination", StartDay: 0, EndDay: 8},
		{Name: "vegetative", StartDay: 9, EndDay: 30},
		{Name: "flowering", StartDay: 31, EndDay: 45},
		{Name: "pod_filling", StartDay: 46, EndDay: 60},
		{Name: "maturation", StartDay: 61, EndDay: 70},
	},
	"tomatoes": {
		{Name: "establishment", StartDay: 0, EndDay: 14},
		{Name: "vegetative", StartDay: 15, EndDay: 35},
		{Name: "flowering", StartDay: 36, EndDay: 50},
		{Name: "fruit_set", StartDay: 51, EndDay: 65},
		{Name: "ripening", StartDay: 66, EndDay: 85},
	},
	"potatoes": {
		{Name: "sprouting", StartDay: 0, EndDay: 15},
		{Name: "vegetative", StartDay: 16, EndDay: 40},
		{Name: "tuber_initiation", StartDay: 41, EndDay: 60},
		{Name: "tuber_bulking", StartDay: 61, EndDay: 85},
		{Name: "maturation", StartDay: 86, EndDay: 100},
	},
	"rice": {
		{Name: "germination", StartDay: 0, EndDay: 12},
		{Name: "tillering", StartDay: 13, EndDay: 45},
		{Name: "panicle_initiation", StartDay: 46, EndDay: 70},
		{Name: "flowering", StartDay: 71, EndDay: 90},
		{Name: "grain_filling", StartDay: 91, EndDay: 110},
		{Name: "maturation", StartDay: 111, EndDay: 120},
	},
	"wheat": {
		{Name: "germination", StartDay: 0, EndDay: 10},
		{Name: "tillering", StartDay: 11, EndDay: 40},
		{Name: "stem_extension", StartDay: 41, EndDay: 65},
		{Name: "heading", StartDay: 66, EndDay: 85},
		{Name: "grain_filling", StartDay: 86, EndDay: 105},
		{Name: "ripening", StartDay: 106, EndDay: 110},
	},
	DefaultCropKey: {
		{Name: "establishment", StartDay: 0, EndDay: 15},
		{Name: "vegetative", StartDay: 16, EndDay: 45},
		{Name: "reproductive", StartDay: 46, EndDay: 70},
		{Name: "maturation", StartDay: 71, EndDay: 90},
	},
}

// StagesFor returns the growth calendar for a crop, matched
// case-insensitively, falling back to the default calendar for crops we
// don't know.
func StagesFor(crop string) []Stage {
	key := strings.ToLower(strings.TrimSpace(crop))
	if stages, ok := stageTables[key]; ok {
		return stages
	}
	return stageTables[DefaultCropKey]
}

// ResolveStage maps days-since-planting to the current growth stage name.
// Its domain is daysSincePlanting >= 0: callers are expected to detect the
// pre-planting case themselves (negative input is clamped to day 0). Days
// beyond the last stage's range stay pinned at the last stage, so a long
// overdue crop still reports a meaningful stage instead of an error.
func ResolveStage(crop string, daysSincePlanting int) string {
	if daysSincePlanting < 0 {
		daysSincePlanting = 0
	}
	stages := StagesFor(crop)
	for _, s := range stages {
		if daysSincePlanting >= s.StartDay && daysSincePlanting <= s.EndDay {
			return s.Name
		}
	}
	return stages[len(stages)-1].Name
}
