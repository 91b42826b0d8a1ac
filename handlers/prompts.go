package handlers

import (
	"encoding/json"
	"fmt"
	"strings"

	"farmwise/models"
	"farmwise/pkg/agronomy"
	"farmwise/pkg/llm"
	"farmwise/pkg/weather"
)

const dailySystemPrompt = `You are an experienced agronomist advising a smallholder farmer.
Respond with a single JSON object of this shape and nothing else:
{
  "briefing": "two or three sentences summarising the day",
  "recommendations": [
    {
      "type": "irrigation|fertilization|inspection|pest_treatment|disease_treatment|weeding|planting|other",
      "priority": "critical|high|normal|low",
      "action": "what to do",
      "reasoning": "why",
      "estimatedCost": 0,
      "estimatedTime": "30 minutes"
    }
  ],
  "farmStatus": {"onTrack": true, "concerns": [], "positives": []}
}
Give at most 5 recommendations, most important first.`

const diagnosisSystemPrompt = `You are a crop-protection specialist diagnosing a reported field issue.
Respond with a single JSON object and nothing else:
{"diagnosis": "likely cause", "urgency": "high|medium|low", "recommended_action": "what to do first"}`

func buildDailyPrompt(farm *models.Farm, days int, stage string, window agronomy.HarvestWindow,
	snapshot *weather.Snapshot, activities []models.FarmActivity, feedback []models.FarmFeedback) string {

	var b strings.Builder

	fmt.Fprintf(&b, "Farm %q grows %s in %s.\n", farm.Name, farm.Crop, farm.Location)
	if days < 0 {
		fmt.Fprintf(&b, "Planting is %d day(s) away; the field is in pre-planting preparation.\n", -days)
	} else {
		fmt.Fprintf(&b, "Day %d since planting, growth stage: %s.\n", days, stage)
	}
	fmt.Fprintf(&b, "Harvest outlook: %s (urgency %s), expected harvest day %d, %d day(s) to expected harvest.\n",
		window.Maturity, window.Urgency, window.ExpectedHarvestDay, window.DaysToExpectedHarvest)
	fmt.Fprintf(&b, "Budget: %.0f total, %.0f spent.\n", farm.Budget, farm.BudgetSpent)

	if snapshot != nil && (snapshot.Current != nil || len(snapshot.Forecast) > 0) {
		if weatherJSON, err := json.Marshal(snapshot); err == nil {
			fmt.Fprintf(&b, "Weather context: %s\n", weatherJSON)
		}
	} else {
		b.WriteString("Weather context is unavailable today.\n")
	}

	if len(activities) > 0 {
		b.WriteString("Recent activities (most recent first):\n")
		for _, a := range activities {
			fmt.Fprintf(&b, "- [%s] %s %s\n", a.Status, a.ActivityType, a.Notes)
		}
	}
	if len(feedback) > 0 {
		b.WriteString("Recent farmer feedback (most recent first):\n")
		for _, f := range feedback {
			fmt.Fprintf(&b, "- [%s] %s\n", f.FeedbackType, f.Interpretation)
		}
	}

	b.WriteString("Produce today's briefing, recommendations and farm status.")
	return b.String()
}

func buildDiagnosisPrompt(farm *models.Farm, report models.IssueReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Crop: %s, growth stage: %s.\n", farm.Crop, farm.CurrentGrowthStage)
	fmt.Fprintf(&b, "Reported issue type: %s, severity: %s.\n", report.IssueType, report.Severity)
	if report.AffectedArea != "" {
		fmt.Fprintf(&b, "Affected area: %s.\n", report.AffectedArea)
	}
	fmt.Fprintf(&b, "Farmer's description: %s\n", report.Description)
	b.WriteString("Diagnose the issue.")
	return b.String()
}

// dailyPayload is the structured content expected back from the daily
// generation call.
type dailyPayload struct {
	Briefing        string                      `json:"briefing"`
	Recommendations []models.Recommendation     `json:"recommendations"`
	FarmStatus      models.FarmStatusAssessment `json:"farmStatus"`
}

func parseDailyPayload(raw string) (dailyPayload, bool) {
	var payload dailyPayload
	extracted, err := llm.ExtractJSON(raw)
	if err != nil {
		return payload, false
	}
	if err := json.Unmarshal(extracted, &payload); err != nil {
		return payload, false
	}
	if payload.Briefing == "" && len(payload.Recommendations) == 0 {
		return payload, false
	}
	return payload, true
}

// fallbackDailyPayload synthesises a minimal briefing from locally-known
// facts when a successful generation call returned unusable content.
func fallbackDailyPayload(farm *models.Farm, days int, stage string) dailyPayload {
	var briefing string
	if days < 0 {
		briefing = fmt.Sprintf("Planting day for %s on %s is %d day(s) away. Use the time to prepare the field and inputs.",
			farm.Crop, farm.Name, -days)
	} else {
		briefing = fmt.Sprintf("Day %d for the %s crop on %s, currently in the %s stage. Continue routine care and check back later for detailed guidance.",
			days, farm.Crop, farm.Name, stage)
	}
	return dailyPayload{
		Briefing:   briefing,
		FarmStatus: models.FarmStatusAssessment{OnTrack: true},
	}
}

type diagnosisPayload struct {
	Diagnosis         string `json:"diagnosis"`
	Urgency           string `json:"urgency"`
	RecommendedAction string `json:"recommended_action"`
}

func parseDiagnosisPayload(raw string) (diagnosisPayload, bool) {
	var payload diagnosisPayload
	extracted, err := llm.ExtractJSON(raw)
	if err != nil {
		return payload, false
	}
	if err := json.Unmarshal(extracted, &payload); err != nil {
		return payload, false
	}
	if payload.Diagnosis == "" {
		return payload, false
	}
	return payload, true
}
