// Package handler 提供HTTP请求处理器
package handler

import (
	"net/http"

	"github.com/paike/paike/internal/metrics"
	"github.com/paike/paike/pkg/model"
	"github.com/paike/paike/pkg/stats"
)

// StatsRequest 统计分析请求
type StatsRequest struct {
	Catalog     *model.Catalog      `json:"catalog"`
	Assignments []*model.Assignment `json:"assignments"`
}

// StatsResponse 统计分析响应
type StatsResponse struct {
	Workload    *stats.WorkloadMetrics    `json:"workload"`
	Utilization *stats.UtilizationMetrics `json:"utilization"`
}

// Stats 计算课表统计指标
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	var req StatsRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := requireCatalog(req.Catalog); err != nil {
		respondError(w, err)
		return
	}

	workload := stats.NewWorkloadAnalyzer().Analyze(req.Assignments, req.Catalog.Faculty)
	utilization := stats.NewUtilizationAnalyzer(h.grid).Analyze(req.Assignments, req.Catalog.Rooms)

	metrics.SetWorkloadGini(workload.Gini)
	metrics.SetRoomUtilization(utilization.AvgUtilization)

	respondJSON(w, http.StatusOK, StatsResponse{
		Workload:    workload,
		Utilization: utilization,
	})
}
