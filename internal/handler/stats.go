// Package handler 提供API处理器
package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/paigong/paigong/internal/repository"
	apperrors "github.com/paigong/paigong/pkg/errors"
	"github.com/paigong/paigong/pkg/logger"
	"github.com/paigong/paigong/pkg/model"
	"github.com/paigong/paigong/pkg/stats"
)

// StatsHandler 统计API处理器
type StatsHandler struct {
	analyzer    *stats.UtilizationAnalyzer
	workers     *repository.WorkerRepository
	commitments *repository.CommitmentRepository
}

// NewStatsHandler 创建统计API处理器
func NewStatsHandler(analyzer *stats.UtilizationAnalyzer, workers *repository.WorkerRepository, commitments *repository.CommitmentRepository) *StatsHandler {
	return &StatsHandler{analyzer: analyzer, workers: workers, commitments: commitments}
}

// Utilization 返回班组本周的工时分布统计
// GET /api/v1/stats/utilization?team_id=<uuid>
func (h *StatsHandler) Utilization(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if h.workers == nil || h.commitments == nil {
		sendJSON(w, http.StatusServiceUnavailable, APIResponse{
			Success: false,
			Error:   "database is not available",
		})
		return
	}

	teamID, err := uuid.Parse(r.URL.Query().Get("team_id"))
	if err != nil {
		sendJSON(w, http.StatusBadRequest, APIResponse{
			Success: false,
			Error:   "team_id is required",
		})
		return
	}

	workers, err := h.workers.ListActive(r.Context(), teamID)
	if err != nil {
		logger.Error().Err(err).Str("team_id", teamID.String()).Msg("加载班组工人失败")
		sendError(w, apperrors.RepositoryUnavailable("workers", err))
		return
	}

	week := model.WeekOf(time.Now())
	dates := model.DateRange{
		StartDate: model.DateOf(week.Start),
		EndDate:   model.DateOf(week.End),
	}

	var all []*model.JobCommitment
	for _, worker := range workers {
		list, err := h.commitments.ListCommitments(r.Context(), worker.ID, dates)
		if err != nil {
			logger.Error().Err(err).Str("worker_id", worker.ID.String()).Msg("加载工单占用失败")
			sendError(w, apperrors.RepositoryUnavailable("commitments", err))
			return
		}
		all = append(all, list...)
	}

	metrics := h.analyzer.Analyze(workers, all)

	sendJSON(w, http.StatusOK, APIResponse{Success: true, Data: metrics})
}
