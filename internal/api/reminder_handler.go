package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/duecall/internal/api/shared"
	"github.com/phrazzld/duecall/internal/platform/logger"
	"github.com/phrazzld/duecall/internal/reminder"
)

// ReminderRunner is the dispatcher surface the handler needs.
type ReminderRunner interface {
	RunOnce(ctx context.Context, now time.Time) (reminder.RunSummary, error)
	Running() bool
}

// StatusResponse reports whether a run is active and when the next
// scheduled run fires.
type StatusResponse struct {
	Running bool       `json:"running"`
	NextRun *time.Time `json:"next_run,omitempty"`
}

// ReminderHandler serves the admin reminder endpoints.
type ReminderHandler struct {
	runner  ReminderRunner
	clock   func() time.Time
	nextRun func() time.Time
	logger  *slog.Logger
}

// NewReminderHandler creates a handler. nextRun may be nil when no schedule
// is armed.
func NewReminderHandler(runner ReminderRunner, clock func() time.Time, nextRun func() time.Time, log *slog.Logger) *ReminderHandler {
	if runner == nil {
		panic("runner cannot be nil")
	}
	if clock == nil {
		clock = time.Now
	}
	if log == nil {
		log = slog.Default()
	}

	return &ReminderHandler{
		runner:  runner,
		clock:   clock,
		nextRun: nextRun,
		logger:  log.With(slog.String("component", "reminder_handler")),
	}
}

// Run handles POST /api/reminders/run. It performs one run synchronously and
// responds with its summary.
func (h *ReminderHandler) Run(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	subject, _ := shared.GetSubject(r.Context())

	log.Info("manual reminder run requested", slog.String("subject", subject))

	summary, err := h.runner.RunOnce(r.Context(), h.clock())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, summary)
}

// Status handles GET /api/reminders/status.
func (h *ReminderHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Running: h.runner.Running()}
	if h.nextRun != nil {
		if next := h.nextRun(); !next.IsZero() {
			resp.NextRun = &next
		}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
