package agronomy

import (
	"math"
	"strings"
	"time"
)

// Maturity classifies harvest readiness from elapsed days alone.
type Maturity string

const (
	MaturityNotReady    Maturity = "not_ready"
	MaturityApproaching Maturity = "approaching"
	MaturityReady       Maturity = "ready"
	MaturityOverdue     Maturity = "overdue"
)

// Urgency ranks how soon the farmer needs to act on the harvest.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// DefaultCropDurationDays is the planting-to-harvest duration assumed for
// crops missing from the duration table.
const DefaultCropDurationDays = 90

// HarvestGraceDays is the width of the optimal harvest window: a crop
// counts as "ready" until this many days past its expected harvest day,
// and "overdue" afterwards. Deployments can override it via configuration.
const HarvestGraceDays = 14

var cropDurations = map[string]int{
	"maize":    90,
	"beans":    70,
	"tomatoes": 85,
	"potatoes": 100,
	"rice":     120,
	"wheat":    110,
	"cassava":  300,
	"kale":     60,
}

// CropDuration returns the expected planting-to-harvest duration in days
// for a crop, matched case-insensitively, with a default for unknown crops.
func CropDuration(crop string) int {
	if d, ok := cropDurations[strings.ToLower(strings.TrimSpace(crop))]; ok {
		return d
	}
	return DefaultCropDurationDays
}

// DaysBetween returns the whole-day difference to - from, flooring rather
// than rounding, so 2.9 elapsed days is day 2 and -0.5 is day -1.
func DaysBetween(from, to time.Time) int {
	return int(math.Floor(to.Sub(from).Hours() / 24))
}

// HarvestWindow is the harvest-readiness picture for one farm on one day.
type HarvestWindow struct {
	ExpectedHarvestDay    int       `json:"expectedHarvestDay"`
	DaysSincePlanting     int       `json:"daysSincePlanting"`
	DaysToExpectedHarvest int       `json:"daysToExpectedHarvest"`
	Maturity              Maturity  `json:"biologicalMaturity"`
	Urgency               Urgency   `json:"urgency"`
	OptimalWindowStart    time.Time `json:"optimalWindowStart"`
	OptimalWindowEnd      time.Time `json:"optimalWindowEnd"`
}

// ComputeHarvestWindow derives the harvest position of a crop from pure
// date arithmetic. graceDays widens the ready window past the expected
// harvest day; values <= 0 fall back to HarvestGraceDays. External price or
// weather data never feeds into this classification.
func ComputeHarvestWindow(crop string, plantingDate, today time.Time, graceDays int) HarvestWindow {
	if graceDays <= 0 {
		graceDays = HarvestGraceDays
	}

	expected := CropDuration(crop)
	days := DaysBetween(plantingDate, today)
	remaining := expected - days

	w := HarvestWindow{
		ExpectedHarvestDay:    expected,
		DaysSincePlanting:     days,
		DaysToExpectedHarvest: remaining,
		OptimalWindowStart:    plantingDate.AddDate(0, 0, expected),
		OptimalWindowEnd:      plantingDate.AddDate(0, 0, expected+graceDays),
	}

	switch {
	case remaining > graceDays:
		w.Maturity = MaturityNotReady
		w.Urgency = UrgencyLow
	case remaining > 0:
		w.Maturity = MaturityApproaching
		w.Urgency = UrgencyMedium
	case days <= expected+graceDays:
		w.Maturity = MaturityReady
		w.Urgency = UrgencyMedium
	default:
		w.Maturity = MaturityOverdue
		w.Urgency = UrgencyHigh
	}

	return w
}
