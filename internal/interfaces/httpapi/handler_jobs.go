package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	sonic "github.com/bytedance/sonic"
	"github.com/nawalpathak-sudo/leetcode-sub000/internal/usecase"
)

type refreshJobRequest struct {
	StudentID  string `json:"student_id"`
	Platform   string `json:"platform" validate:"omitempty,oneof=leetcode codeforces"`
	MaxWorkers int    `json:"max_workers" validate:"gte=0,lte=64"`
	DryRun     bool   `json:"dry_run"`
}

func (h *Handler) RunRefreshJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRefreshJob")
	defer span.End()

	if h.refreshService == nil {
		writeError(ctx, w, fmt.Errorf("%w: refresh service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	req, err := h.decodeRefreshJobRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.refreshService.Refresh(ctx, usecase.RefreshInput{
		StudentID:  req.StudentID,
		Platform:   req.Platform,
		MaxWorkers: req.MaxWorkers,
		DryRun:     req.DryRun,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "run refresh job failed",
			"student_id", req.StudentID,
			"platform", req.Platform,
			"dry_run", req.DryRun,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

func (h *Handler) decodeRefreshJobRequest(r *http.Request) (refreshJobRequest, error) {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req refreshJobRequest
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return refreshJobRequest{}, nil
		}
		return refreshJobRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	if err := h.validator.Struct(req); err != nil {
		return refreshJobRequest{}, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}

	return req, nil
}
