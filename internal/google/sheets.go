package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"gameshelf/internal/models"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ErrRowNotFound is returned when a rental row is absent from the roster.
var ErrRowNotFound = errors.New("rental row not found")

// Rentals sheet layout, columns A..K:
// ID, UID, User ID, User Email, Game ID, Game Name, Start, End, Status,
// Created At, Updated At.
type SheetsService struct {
	service       *sheets.Service
	spreadsheetID string
	rowCache      map[int64]int
	cacheMu       sync.RWMutex
}

func NewSheetsService(credentialsFile, spreadsheetID string) (*SheetsService, error) {
	ctx := context.Background()

	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %v", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %v", err)
	}

	client := config.Client(ctx)

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %v", err)
	}

	service := &SheetsService{
		service:       srv,
		spreadsheetID: spreadsheetID,
		rowCache:      make(map[int64]int),
	}

	// Warm up cache in background
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		service.WarmUpCache(ctx)
	}()

	// Periodic cache refresh every 1 hour
	go func() {
		ticker := time.NewTicker(time.Duration(models.SheetsCacheTTL) * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			service.WarmUpCache(ctx)
			cancel()
		}
	}()

	return service, nil
}

// TestConnection reads the first cell to verify access to the roster.
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, "Rentals!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %v", err)
	}
	return nil
}

// GetServiceAccountEmail returns the service account email from credentials.
func (s *SheetsService) GetServiceAccountEmail(credentialsFile string) (string, error) {
	file, err := os.ReadFile(credentialsFile)
	if err != nil {
		return "", err
	}

	var creds struct {
		ClientEmail string `json:"client_email"`
	}

	if err := json.Unmarshal(file, &creds); err != nil {
		return "", err
	}

	return creds.ClientEmail, nil
}

// WarmUpCache populates the row index cache by reading the entire ID column.
func (s *SheetsService) WarmUpCache(ctx context.Context) error {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, "Rentals!A:A").Context(ctx).Do()
	if err != nil {
		return err
	}

	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[int64]int)

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		var id int64
		switch v := row[0].(type) {
		case float64:
			id = int64(v)
		case string:
			fmt.Sscanf(v, "%d", &id)
		}
		if id > 0 {
			s.rowCache[id] = i + 1
		}
	}
	return nil
}

// AppendRental adds a new rental row to the roster.
func (s *SheetsService) AppendRental(ctx context.Context, rental *models.Rental) error {
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{rentalRowValues(rental)},
	}

	_, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, "Rentals!A:A", valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()

	return err
}

// UpsertRental updates an existing rental row or appends a new one if not found.
func (s *SheetsService) UpsertRental(ctx context.Context, rental *models.Rental) error {
	if rental == nil {
		return fmt.Errorf("rental is nil")
	}

	rowIdx, err := s.FindRentalRow(ctx, rental.ID)
	if err != nil {
		if errors.Is(err, ErrRowNotFound) {
			return s.AppendRental(ctx, rental)
		}
		return err
	}

	rangeData := fmt.Sprintf("Rentals!A%d:K%d", rowIdx, rowIdx)
	valueRange := &sheets.ValueRange{
		Values: [][]interface{}{rentalRowValues(rental)},
	}

	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

// UpdateRentalStatus updates status (and Updated At) for a rental row.
func (s *SheetsService) UpdateRentalStatus(ctx context.Context, rentalID int64, status string) error {
	rowIdx, err := s.FindRentalRow(ctx, rentalID)
	if err != nil {
		return err
	}

	now := time.Now().Format("2006-01-02 15:04:05")

	statusRange := fmt.Sprintf("Rentals!I%d:I%d", rowIdx, rowIdx)
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, statusRange, &sheets.ValueRange{
		Values: [][]interface{}{{status}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return err
	}

	updatedRange := fmt.Sprintf("Rentals!K%d:K%d", rowIdx, rowIdx)
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, updatedRange, &sheets.ValueRange{
		Values: [][]interface{}{{now}},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// ReplaceRentalsSheet rewrites the whole roster below the header row.
func (s *SheetsService) ReplaceRentalsSheet(ctx context.Context, rentals []*models.Rental) error {
	clearRange := "Rentals!A2:Z"
	_, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear rentals sheet: %v", err)
	}

	var values [][]interface{}
	for _, rental := range rentals {
		values = append(values, rentalRowValues(rental))
	}

	valueRange := &sheets.ValueRange{
		Values: values,
	}

	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, "Rentals!A2", valueRange).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		// The sheet was already cleared, so cached row indexes are stale.
		s.ClearCache()
		return fmt.Errorf("failed to update rentals sheet: %v", err)
	}

	// Re-populate cache
	s.cacheMu.Lock()
	s.rowCache = make(map[int64]int)
	for i, r := range rentals {
		s.rowCache[r.ID] = i + 2 // +2 because data starts at row 2
	}
	s.cacheMu.Unlock()

	return nil
}

// UpdateUsersSheet rewrites the users sheet from the stored accounts.
func (s *SheetsService) UpdateUsersSheet(ctx context.Context, users []*models.User) error {
	var values [][]interface{}

	headers := []interface{}{"ID", "Email", "Display Name", "Is Admin", "Is Blocked", "Last Activity", "Created At"}
	values = append(values, headers)

	for _, user := range users {
		row := []interface{}{
			user.ID,
			user.Email,
			user.DisplayName,
			user.IsAdmin,
			user.IsBlocked,
			user.LastActivity.Format("2006-01-02 15:04:05"),
			user.CreatedAt.Format("2006-01-02 15:04:05"),
		}
		values = append(values, row)
	}

	rangeData := "Users!A1:G" + fmt.Sprintf("%d", len(values))
	valueRange := &sheets.ValueRange{
		Values: values,
	}

	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()

	return err
}

// FindRentalRow locates row index (1-based) for rental id in column A with cache.
func (s *SheetsService) FindRentalRow(ctx context.Context, rentalID int64) (int, error) {
	if rentalID == 0 {
		return 0, fmt.Errorf("rental id is required")
	}

	if row, ok := s.getCachedRow(rentalID); ok {
		return row, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, "Rentals!A:A").Context(ctx).Do()
	if err != nil {
		return 0, err
	}

	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		switch v := row[0].(type) {
		case float64:
			if int64(v) == rentalID {
				rowIdx := i + 1 // Values are zero-based; sheet rows are 1-based
				s.setCachedRow(rentalID, rowIdx)
				return rowIdx, nil
			}
		case string:
			// if ID stored as string
			if v == fmt.Sprintf("%d", rentalID) {
				rowIdx := i + 1
				s.setCachedRow(rentalID, rowIdx)
				return rowIdx, nil
			}
		}
	}

	return 0, ErrRowNotFound
}

func (s *SheetsService) getCachedRow(id int64) (int, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	row, ok := s.rowCache[id]
	return row, ok
}

func (s *SheetsService) setCachedRow(id int64, row int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache[id] = row
}

// ClearCache clears the row index cache.
func (s *SheetsService) ClearCache() {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache = make(map[int64]int)
}

func rentalRowValues(rental *models.Rental) []interface{} {
	return []interface{}{
		rental.ID,
		rental.UID,
		rental.UserID,
		rental.UserEmail,
		rental.GameID,
		rental.GameName,
		models.FormatDate(rental.StartDate),
		models.FormatDate(rental.EndDate),
		string(rental.Status),
		rental.CreatedAt.Format("2006-01-02 15:04:05"),
		rental.UpdatedAt.Format("2006-01-02 15:04:05"),
	}
}
