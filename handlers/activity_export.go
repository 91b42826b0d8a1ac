package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"farmwise/config"
	"farmwise/models"
)

// ExportActivities downloads a farm's full activity log as an Excel file.
func ExportActivities(w http.ResponseWriter, r *http.Request) {
	farm, ok := loadOwnedFarm(w, r)
	if !ok {
		return
	}

	var activities []models.FarmActivity
	if err := config.DB.Where("farm_id = ?", farm.ID).
		Order("created_at ASC").Find(&activities).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "db error: "+err.Error())
		return
	}

	excelFile, err := createActivityWorkbook(farm, activities)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate Excel file")
		return
	}

	buffer, err := excelFile.WriteToBuffer()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to write Excel file")
		return
	}

	filename := fmt.Sprintf("%s_activities_%s.xlsx", sanitizeFilename(farm.Name), time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buffer.Len()))

	w.WriteHeader(http.StatusOK)
	w.Write(buffer.Bytes())
}

func createActivityWorkbook(farm *models.Farm, activities []models.FarmActivity) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "Activities"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, err
	}

	headers := []string{"Date", "Type", "Status", "Description", "Notes", "Cost", "Recommendation ID"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		f.SetRowStyle(sheet, 1, 1, headerStyle)
	}

	for row, a := range activities {
		date := a.CreatedAt
		if a.CompletionDate != nil {
			date = *a.CompletionDate
		}
		values := []interface{}{
			date.Format("2006-01-02"),
			a.ActivityType,
			a.Status,
			a.Description,
			a.Notes,
			a.Cost,
			a.RecommendationID,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	f.SetColWidth(sheet, "A", "A", 12)
	f.SetColWidth(sheet, "D", "E", 40)
	return f, nil
}

func sanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "farm"
	}
	return b.String()
}
