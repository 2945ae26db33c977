package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"gameshelf/internal/config"
	"gameshelf/internal/database"
	"gameshelf/internal/export"
	"gameshelf/internal/metrics"
	"gameshelf/internal/models"
	"gameshelf/internal/service"

	"github.com/google/uuid"
)

// HTTPServer exposes the rental JSON API.
type HTTPServer struct {
	cfg       config.APIConfig
	rentalCfg config.RentalConfig
	rentals   *service.RentalService
	games     *service.GameService
	users     *service.UserService
	sessions  *service.SessionService
	exporter  *export.ScheduleExporter
	server    *http.Server
	auth      *HTTPAuth
}

func NewHTTPServer(
	cfg config.APIConfig,
	rentalCfg config.RentalConfig,
	rentals *service.RentalService,
	games *service.GameService,
	users *service.UserService,
	sessions *service.SessionService,
	exporter *export.ScheduleExporter,
) *HTTPServer {
	mux := http.NewServeMux()
	srv := &HTTPServer{
		cfg:       cfg,
		rentalCfg: rentalCfg,
		rentals:   rentals,
		games:     games,
		users:     users,
		sessions:  sessions,
		exporter:  exporter,
	}
	srv.auth = NewHTTPAuth(cfg)

	mux.HandleFunc("/api/v1/games", srv.handleGames)
	mux.HandleFunc("/api/v1/availability/", srv.handleAvailability)
	mux.HandleFunc("/api/v1/rentals", srv.handleRentals)
	mux.HandleFunc("/api/v1/rentals/", srv.handleRentalByID)
	mux.HandleFunc("/api/v1/exports/schedule", srv.handleExportSchedule)
	mux.HandleFunc("/api/v1/exports/users", srv.handleExportUsers)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	handler := requestIDMiddleware(loggingMiddleware(srv.auth.Wrap(mux)))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	log.Printf("HTTP API listening on %s", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// session resolves the caller identity into a stored user and session.
func (s *HTTPServer) session(r *http.Request) (*models.Session, error) {
	ident, err := s.auth.callerIdentity(r)
	if err != nil {
		return nil, err
	}

	user, err := s.users.EnsureUser(r.Context(), ident.Email, "")
	if err != nil {
		return nil, err
	}
	if user.IsBlocked {
		return nil, errPermissionDenied
	}
	_ = s.users.UpdateUserActivity(r.Context(), user.ID)

	return s.sessions.EnsureSession(r.Context(), user.ID, user.Email, user.IsAdmin)
}

func (s *HTTPServer) handleGames(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("games")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	games := s.games.GetGames()
	sort.Slice(games, func(i, j int) bool {
		if games[i].SortOrder == games[j].SortOrder {
			return games[i].ID < games[j].ID
		}
		return games[i].SortOrder < games[j].SortOrder
	})

	writeJSON(w, http.StatusOK, map[string]any{"games": games})
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("availability")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	const prefix = "/api/v1/availability/"
	rawID := strings.TrimPrefix(r.URL.Path, prefix)
	gameID, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil || gameID <= 0 {
		writeError(w, http.StatusBadRequest, "game id is required")
		return
	}

	rng, err := parseDateRangeQuery(r, "start", "end")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := s.games.GetGameByID(r.Context(), gameID); err != nil {
		s.writeServiceError(w, err)
		return
	}

	available, blocking, err := s.rentals.CheckAvailability(r.Context(), gameID, rng)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	intervals := make([]map[string]any, 0, len(blocking))
	for _, rental := range blocking {
		intervals = append(intervals, map[string]any{
			"rental_id": rental.ID,
			"start":     models.FormatDate(rental.StartDate),
			"end":       models.FormatDate(rental.EndDate),
			"status":    rental.Status,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"game_id":   gameID,
		"available": available,
		"blocking":  intervals,
	})
}

func (s *HTTPServer) handleRentals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSubmitRental(w, r)
	case http.MethodGet:
		s.handleListRentals(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *HTTPServer) handleSubmitRental(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("rentals_submit")

	session, err := s.session(r)
	if err != nil {
		s.writeAuthError(w, err)
		return
	}

	allowed, err := s.sessions.CheckRateLimit(r.Context(), session.UserID,
		s.rentalCfg.RateLimit, time.Duration(s.rentalCfg.RateWindow)*time.Second)
	if err == nil && !allowed {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	type request struct {
		GameID    int64  `json:"game_id"`
		StartDate string `json:"start_date"`
		EndDate   string `json:"end_date"`
	}

	var body request
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	start, err := parseOptionalDate(body.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_date; expected YYYY-MM-DD")
		return
	}
	end, err := parseOptionalDate(body.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end_date; expected YYYY-MM-DD")
		return
	}

	rental, err := s.rentals.Submit(r.Context(), session, body.GameID, start, end)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"rental": rental})
}

func (s *HTTPServer) handleListRentals(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("rentals_list")

	session, err := s.session(r)
	if err != nil {
		s.writeAuthError(w, err)
		return
	}

	userID := session.UserID
	if raw := strings.TrimSpace(r.URL.Query().Get("user_id")); raw != "" {
		requested, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || requested <= 0 {
			writeError(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		if requested != session.UserID && !session.IsAdmin {
			writeError(w, http.StatusForbidden, "permission denied")
			return
		}
		userID = requested
	}

	rentals, err := s.rentals.GetUserRentals(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"rentals": rentals})
}

func (s *HTTPServer) handleRentalByID(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/rentals/"
	rest := strings.TrimPrefix(r.URL.Path, prefix)
	parts := strings.Split(strings.Trim(rest, "/"), "/")

	rentalID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || rentalID <= 0 {
		writeError(w, http.StatusBadRequest, "rental id is required")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		s.handleGetRental(w, r, rentalID)
	case len(parts) == 2 && r.Method == http.MethodPost:
		s.handleRentalAction(w, r, rentalID, parts[1])
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *HTTPServer) handleGetRental(w http.ResponseWriter, r *http.Request, rentalID int64) {
	metrics.IncHTTP("rentals_get")

	session, err := s.session(r)
	if err != nil {
		s.writeAuthError(w, err)
		return
	}

	rental, err := s.rentals.GetRental(r.Context(), rentalID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if rental.UserID != session.UserID && !session.IsAdmin {
		writeError(w, http.StatusForbidden, "permission denied")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"rental": rental})
}

// handleRentalAction dispatches the lifecycle transitions. Decisions are
// admin-only; the handover actions are also open to the rental's owner.
func (s *HTTPServer) handleRentalAction(w http.ResponseWriter, r *http.Request, rentalID int64, action string) {
	metrics.IncHTTP("rentals_" + action)

	session, err := s.session(r)
	if err != nil {
		s.writeAuthError(w, err)
		return
	}
	if !session.IsAdmin {
		if action == "approve" || action == "reject" {
			writeError(w, http.StatusForbidden, "permission denied")
			return
		}
		rental, err := s.rentals.GetRental(r.Context(), rentalID)
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		if rental.UserID != session.UserID {
			writeError(w, http.StatusForbidden, "permission denied")
			return
		}
	}

	type request struct {
		Version int64  `json:"version"`
		Reason  string `json:"reason"`
	}
	var body request
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}

	switch action {
	case "approve":
		err = s.withVersion(r, rentalID, body.Version, func(version int64) error {
			return s.rentals.Approve(r.Context(), rentalID, version, session.UserID)
		})
	case "reject":
		err = s.withVersion(r, rentalID, body.Version, func(version int64) error {
			return s.rentals.Reject(r.Context(), rentalID, version, session.UserID, body.Reason)
		})
	case "start":
		err = s.rentals.Start(r.Context(), rentalID, session.UserID)
	case "return":
		err = s.rentals.Return(r.Context(), rentalID, session.UserID)
	default:
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	rental, err := s.rentals.GetRental(r.Context(), rentalID)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"rental": rental})
}

// withVersion fills in the current version when the caller did not send one.
func (s *HTTPServer) withVersion(r *http.Request, rentalID, version int64, fn func(version int64) error) error {
	if version == 0 {
		rental, err := s.rentals.GetRental(r.Context(), rentalID)
		if err != nil {
			return err
		}
		version = rental.Version
	}
	return fn(version)
}

func (s *HTTPServer) handleExportSchedule(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("export_schedule")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	session, err := s.session(r)
	if err != nil {
		s.writeAuthError(w, err)
		return
	}
	if !session.IsAdmin {
		writeError(w, http.StatusForbidden, "permission denied")
		return
	}
	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "exports are not configured")
		return
	}

	rng, err := parseDateRangeQuery(r, "start", "end")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	filePath, err := s.exporter.ExportSchedule(r.Context(), rng.Start, rng.End)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"file": filePath})
}

func (s *HTTPServer) handleExportUsers(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("export_users")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	session, err := s.session(r)
	if err != nil {
		s.writeAuthError(w, err)
		return
	}
	if !session.IsAdmin {
		writeError(w, http.StatusForbidden, "permission denied")
		return
	}
	if s.exporter == nil {
		writeError(w, http.StatusServiceUnavailable, "exports are not configured")
		return
	}

	users, err := s.users.GetAllUsers(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	filePath, err := s.exporter.ExportUsers(r.Context(), users)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"file": filePath})
}

func (s *HTTPServer) writeAuthError(w http.ResponseWriter, err error) {
	if err == errPermissionDenied {
		writeError(w, http.StatusForbidden, "permission denied")
		return
	}
	writeError(w, http.StatusUnauthorized, err.Error())
}

// writeServiceError maps domain errors to HTTP statuses.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		payload := map[string]any{
			"error": validationErr.Error(),
			"kind":  validationErr.Kind,
		}
		if validationErr.Field != "" {
			payload["field"] = validationErr.Field
		}

		statusCode := http.StatusBadRequest
		if validationErr.Kind == service.KindDateConflict {
			statusCode = http.StatusConflict
			if validationErr.Conflict != nil {
				payload["conflict"] = map[string]string{
					"start": models.FormatDate(validationErr.Conflict.Start),
					"end":   models.FormatDate(validationErr.Conflict.End),
				}
			}
		}
		writeJSON(w, statusCode, payload)
		return
	}

	switch {
	case errors.Is(err, database.ErrGameNotFound), errors.Is(err, database.ErrRentalNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrGameNotOfferable):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, database.ErrInvalidTransition),
		errors.Is(err, database.ErrConcurrentModification),
		errors.Is(err, database.ErrStartDateInFuture),
		errors.Is(err, database.ErrDateConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseOptionalDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	return models.ParseDate(raw)
}

func parseDateRangeQuery(r *http.Request, startKey, endKey string) (models.DateRange, error) {
	startStr := strings.TrimSpace(r.URL.Query().Get(startKey))
	endStr := strings.TrimSpace(r.URL.Query().Get(endKey))
	if startStr == "" || endStr == "" {
		return models.DateRange{}, fmt.Errorf("%s and %s are required", startKey, endKey)
	}

	start, err := models.ParseDate(startStr)
	if err != nil {
		return models.DateRange{}, fmt.Errorf("invalid %s; expected YYYY-MM-DD", startKey)
	}
	end, err := models.ParseDate(endStr)
	if err != nil {
		return models.DateRange{}, fmt.Errorf("invalid %s; expected YYYY-MM-DD", endKey)
	}
	if end.Before(start) {
		return models.DateRange{}, fmt.Errorf("%s must not be before %s", endKey, startKey)
	}

	return models.DateRange{Start: start, End: end}, nil
}

const requestIDHeader = "X-Request-Id"

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		dur := time.Since(start)
		log.Printf("http method=%s path=%s status=%d dur=%s", r.Method, r.URL.Path, recorder.status, dur)
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
