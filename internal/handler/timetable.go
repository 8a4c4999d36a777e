// Package handler 提供HTTP请求处理器
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/paike/paike/internal/metrics"
	"github.com/paike/paike/pkg/engine/detector"
	"github.com/paike/paike/pkg/engine/optimizer"
	"github.com/paike/paike/pkg/engine/solver"
	"github.com/paike/paike/pkg/model"
)

// GenerateRequest 排课生成请求
// 未携带目录时按 program/semester 从目录仓储加载
type GenerateRequest struct {
	Catalog  *model.Catalog      `json:"catalog,omitempty"`
	Program  string              `json:"program,omitempty"`
	Semester int                 `json:"semester,omitempty"`
	Previous []*model.Assignment `json:"previous,omitempty"` // 上一版分配，Pinned 的保持不动
	Options  *GenerateOptions    `json:"options,omitempty"`
}

// GenerateOptions 生成选项
type GenerateOptions struct {
	TimeoutSeconds int  `json:"timeout_seconds,omitempty"`
	Optimize       bool `json:"optimize,omitempty"` // 生成后跑一轮局部搜索
}

// GenerateResponse 排课生成响应
type GenerateResponse struct {
	Version           int64                    `json:"version"`
	Assignments       []*model.Assignment      `json:"assignments"`
	Unplaced          []solver.UnplacedRequest `json:"unplaced"`
	Conflicts         []model.Conflict         `json:"conflicts"`
	OptimizationScore float64                  `json:"optimization_score"`
	Statistics        solver.Statistics        `json:"statistics"`
	Duration          string                   `json:"duration"`
}

// Generate 生成课表
// 部分失败不是错误：排不下的请求进入 unplaced，HTTP仍返回200
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	catalog, err := h.resolveCatalog(r, req.Catalog, req.Program, req.Semester)
	if err != nil {
		respondError(w, err)
		return
	}

	timeout := h.cfg.GenerateTimeout
	if req.Options != nil && req.Options.TimeoutSeconds > 0 {
		timeout = time.Duration(req.Options.TimeoutSeconds) * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	start := time.Now()
	result, err := solver.New(h.grid).Generate(ctx, catalog, req.Previous)
	if err != nil {
		metrics.RecordGeneration(false, 0, 0, time.Since(start))
		respondError(w, err)
		return
	}

	if req.Options != nil && req.Options.Optimize {
		cfg := optimizer.DefaultConfig()
		if h.cfg.OptimizerPasses > 0 {
			cfg.MaxPasses = h.cfg.OptimizerPasses
		}
		improved, report, optErr := optimizer.New(h.grid, cfg).Improve(ctx, catalog, result.Set)
		if optErr != nil {
			respondError(w, optErr)
			return
		}
		result.Set = improved
		result.OptimizationScore = report.ScoreAfter
	}

	duration := time.Since(start)
	metrics.RecordGeneration(true, len(result.Unplaced), result.OptimizationScore, duration)
	for _, c := range result.Set.Conflicts {
		metrics.RecordConflict(string(c.Type), string(c.Severity))
	}

	respondJSON(w, http.StatusOK, GenerateResponse{
		Version:           result.Set.Version,
		Assignments:       result.Set.Assignments,
		Unplaced:          result.Unplaced,
		Conflicts:         result.Set.Conflicts,
		OptimizationScore: result.OptimizationScore,
		Statistics:        result.Statistics,
		Duration:          duration.String(),
	})
}

// DetectRequest 冲突检测请求
// 未携带目录时按 program/semester 从目录仓储加载
type DetectRequest struct {
	Catalog     *model.Catalog      `json:"catalog,omitempty"`
	Program     string              `json:"program,omitempty"`
	Semester    int                 `json:"semester,omitempty"`
	Assignments []*model.Assignment `json:"assignments"`
	ChangedIDs  []string            `json:"changed_ids,omitempty"` // 非空时做增量检测
}

// DetectResponse 冲突检测响应
type DetectResponse struct {
	Conflicts []model.Conflict `json:"conflicts"`
	Total     int              `json:"total"`
}

// Detect 检测冲突
func (h *Handler) Detect(w http.ResponseWriter, r *http.Request) {
	var req DetectRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	catalog, err := h.resolveCatalog(r, req.Catalog, req.Program, req.Semester)
	if err != nil {
		respondError(w, err)
		return
	}

	det := detector.NewDetector(catalog)

	var conflicts []model.Conflict
	if len(req.ChangedIDs) > 0 {
		changed, err := parseUUIDSet(req.ChangedIDs)
		if err != nil {
			respondError(w, err)
			return
		}
		conflicts = det.DetectIncremental(req.Assignments, changed)
	} else {
		conflicts = det.Detect(req.Assignments)
	}

	for _, c := range conflicts {
		metrics.RecordConflict(string(c.Type), string(c.Severity))
	}

	respondJSON(w, http.StatusOK, DetectResponse{
		Conflicts: conflicts,
		Total:     len(conflicts),
	})
}

// OptimizeRequest 课表优化请求
type OptimizeRequest struct {
	Catalog   *model.Catalog      `json:"catalog"`
	Set       *model.TimetableSet `json:"set"`
	MaxPasses int                 `json:"max_passes,omitempty"`
}

// OptimizeResponse 课表优化响应
type OptimizeResponse struct {
	Set    *model.TimetableSet `json:"set"`
	Report *optimizer.Report   `json:"report"`
}

// Optimize 优化已有课表
func (h *Handler) Optimize(w http.ResponseWriter, r *http.Request) {
	var req OptimizeRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if err := requireCatalog(req.Catalog); err != nil {
		respondError(w, err)
		return
	}
	if req.Set == nil {
		respondError(w, invalidSet())
		return
	}

	cfg := optimizer.DefaultConfig()
	if req.MaxPasses > 0 {
		cfg.MaxPasses = req.MaxPasses
	} else if h.cfg.OptimizerPasses > 0 {
		cfg.MaxPasses = h.cfg.OptimizerPasses
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.GenerateTimeout)
	defer cancel()

	improved, report, err := optimizer.New(h.grid, cfg).Improve(ctx, req.Catalog, req.Set)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, OptimizeResponse{Set: improved, Report: report})
}
