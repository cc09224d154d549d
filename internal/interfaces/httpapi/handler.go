package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/usecase"
)

type Handler struct {
	leaderboardService *usecase.LeaderboardService
	refreshService     *usecase.RefreshService
	logger             *slog.Logger
	validator          *validator.Validate
}

func NewHandler(
	leaderboardService *usecase.LeaderboardService,
	refreshService *usecase.RefreshService,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		leaderboardService: leaderboardService,
		refreshService:     refreshService,
		logger:             logger,
		validator:          validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeaderboard")
	defer span.End()

	entries, err := h.leaderboardService.Standings(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "get leaderboard failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, entries)
}

func (h *Handler) GetLeaderboardSummary(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeaderboardSummary")
	defer span.End()

	summary, err := h.leaderboardService.Summary(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "get leaderboard summary failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, summary)
}

func (h *Handler) ListStudents(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListStudents")
	defer span.End()

	students, err := h.leaderboardService.Students(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list students failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, students)
}

func (h *Handler) GetStudentProfiles(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetStudentProfiles")
	defer span.End()

	studentID := r.PathValue("studentID")
	detail, err := h.leaderboardService.StudentDetail(ctx, studentID)
	if err != nil {
		h.logger.WarnContext(ctx, "get student profiles failed", "student_id", studentID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, detail)
}
