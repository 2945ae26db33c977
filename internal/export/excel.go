package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gameshelf/internal/domain"
	"gameshelf/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// ScheduleExporter renders the rental schedule as an XLSX grid: one row
// per game, one column per day of the period.
type ScheduleExporter struct {
	store  domain.Store
	path   string
	logger *zerolog.Logger
}

func NewScheduleExporter(store domain.Store, path string, logger *zerolog.Logger) *ScheduleExporter {
	return &ScheduleExporter{
		store:  store,
		path:   path,
		logger: logger,
	}
}

// ExportSchedule writes the grid for [startDate, endDate] and returns the
// file path.
func (e *ScheduleExporter) ExportSchedule(ctx context.Context, startDate, endDate time.Time) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	rentals, err := e.store.GetRentalsByDateRange(ctx, startDate, endDate)
	if err != nil {
		return "", fmt.Errorf("error getting rentals: %v", err)
	}

	games, err := e.store.GetActiveGames(ctx)
	if err != nil {
		return "", fmt.Errorf("error getting active games: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Schedule"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Period: %s - %s",
		models.FormatDate(startDate), models.FormatDate(endDate)))

	dateCols := e.writeDateHeaders(f, sheetName, startDate, endDate)
	e.writeGameHeaders(f, sheetName, games)
	e.writeRentalCells(f, sheetName, games, rentals, startDate, dateCols)

	_ = f.SetColWidth(sheetName, "A", "A", 25)
	for i := 'B'; i <= 'Z'; i++ {
		_ = f.SetColWidth(sheetName, string(i), string(i), 20)
	}

	lastCol, _ := excelize.ColumnNumberToName(dateCols + 1)
	_ = f.MergeCell(sheetName, "A1", lastCol+"1")

	style, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", style)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("schedule_%s_to_%s.xlsx",
		models.FormatDate(startDate),
		models.FormatDate(endDate))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("schedule export created")
	return filePath, nil
}

func (e *ScheduleExporter) writeDateHeaders(f *excelize.File, sheetName string, startDate, endDate time.Time) int {
	col := 2
	currentDate := models.Day(startDate)
	endDate = models.Day(endDate)

	for !currentDate.After(endDate) && col < 100 {
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		_ = f.SetCellValue(sheetName, cell, currentDate.Format("01-02"))

		style, _ := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
			Font:      &excelize.Font{Bold: true},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		})
		_ = f.SetCellStyle(sheetName, cell, cell, style)

		col++
		currentDate = currentDate.AddDate(0, 0, 1)
	}
	return col - 2
}

func (e *ScheduleExporter) writeGameHeaders(f *excelize.File, sheetName string, games []*models.Game) {
	row := 3
	for _, game := range games {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetCellValue(sheetName, cell, game.Name)

		style, _ := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
			Font: &excelize.Font{Bold: true},
		})
		_ = f.SetCellStyle(sheetName, cell, cell, style)

		row++
	}
}

func (e *ScheduleExporter) writeRentalCells(
	f *excelize.File, sheetName string,
	games []*models.Game,
	rentals []*models.Rental,
	startDate time.Time, dateCols int,
) {
	rentalsByGame := make(map[int64][]*models.Rental)
	for _, rental := range rentals {
		if rental.Status == models.StatusRejected {
			continue
		}
		rentalsByGame[rental.GameID] = append(rentalsByGame[rental.GameID], rental)
	}

	for rowIdx, game := range games {
		row := rowIdx + 3

		currentDate := models.Day(startDate)
		for col := 2; col < dateCols+2; col++ {
			day := models.DateRange{Start: currentDate, End: currentDate}

			var cellValue string
			var occupied *models.Rental
			for _, rental := range rentalsByGame[game.ID] {
				if rental.Range().Overlaps(day) {
					occupied = rental
					break
				}
			}

			cell, _ := excelize.CoordinatesToCellName(col, row)
			if occupied != nil {
				cellValue = fmt.Sprintf("[#%d] %s %s", occupied.ID, statusIcon(occupied.Status), occupied.UserEmail)
				_ = f.SetCellValue(sheetName, cell, cellValue)
				if styleID, err := e.cellStyle(f, occupied.Status); err == nil {
					_ = f.SetCellStyle(sheetName, cell, cell, styleID)
				}
			} else {
				_ = f.SetCellValue(sheetName, cell, "free")
			}

			currentDate = currentDate.AddDate(0, 0, 1)
		}
	}
}

func statusIcon(status models.RentalStatus) string {
	switch status {
	case models.StatusApproved, models.StatusRented:
		return "✅"
	case models.StatusPending:
		return "⏳"
	case models.StatusReturned:
		return "↩"
	case models.StatusRejected:
		return "❌"
	default:
		return "❓"
	}
}

func (e *ScheduleExporter) cellStyle(f *excelize.File, status models.RentalStatus) (int, error) {
	color := "#FFFFFF"
	switch status {
	case models.StatusApproved, models.StatusRented:
		color = "#FFC7CE"
	case models.StatusPending:
		color = "#FFEB9C"
	case models.StatusReturned:
		color = "#C6EFCE"
	}

	return f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "left",
			Vertical:   "top",
			WrapText:   true,
		},
	})
}

// ExportUsers writes all accounts to an XLSX file and returns the path.
func (e *ScheduleExporter) ExportUsers(ctx context.Context, users []*models.User) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Users"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"ID", "Email", "Display Name", "Admin", "Blocked", "Last Activity", "Created At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
	}

	for i, user := range users {
		row := i + 2
		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), user.ID)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), user.Email)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), user.DisplayName)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), yesNo(user.IsAdmin))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), yesNo(user.IsBlocked))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), user.LastActivity.Format("2006-01-02 15:04"))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), user.CreatedAt.Format("2006-01-02 15:04"))
	}

	_ = f.SetColWidth(sheetName, "A", "A", 10)
	_ = f.SetColWidth(sheetName, "B", "C", 25)
	_ = f.SetColWidth(sheetName, "D", "E", 10)
	_ = f.SetColWidth(sheetName, "F", "G", 20)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("users_export_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Msg("users export created")
	return filePath, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
