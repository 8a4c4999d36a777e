// Package handler 提供HTTP请求处理器
package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/paike/paike/internal/metrics"
	"github.com/paike/paike/pkg/engine/advisor"
	"github.com/paike/paike/pkg/engine/session"
	"github.com/paike/paike/pkg/engine/suggest"
	"github.com/paike/paike/pkg/errors"
	"github.com/paike/paike/pkg/model"
)

// SuggestRequest 解决方案推荐请求
type SuggestRequest struct {
	Catalog    *model.Catalog      `json:"catalog"`
	Set        *model.TimetableSet `json:"set"`
	ConflictID string              `json:"conflict_id"`
	MaxResults int                 `json:"max_results,omitempty"`
}

// Suggest 为冲突推荐解决方案
func (h *Handler) Suggest(w http.ResponseWriter, r *http.Request) {
	var req SuggestRequest
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

	conflictID, err := uuid.Parse(req.ConflictID)
	if err != nil {
		respondError(w, errors.InvalidInput("conflict_id", "无效的ID格式"))
		return
	}

	var target *model.Conflict
	for i := range req.Set.Conflicts {
		if req.Set.Conflicts[i].ID == conflictID {
			target = &req.Set.Conflicts[i]
			break
		}
	}
	if target == nil {
		respondError(w, errors.NotFound("冲突", req.ConflictID))
		return
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = h.cfg.MaxSuggestions
	}

	suggestion := suggest.New(h.grid).Suggest(*target, req.Set, req.Catalog, maxResults)
	respondJSON(w, http.StatusOK, suggestion)
}

// EditRequest 手工编辑请求
type EditRequest struct {
	Catalog *model.Catalog      `json:"catalog"`
	Set     *model.TimetableSet `json:"set"`
	Edit    session.Edit        `json:"edit"`
}

// EditResponse 手工编辑响应
type EditResponse struct {
	Set   *model.TimetableSet `json:"set"`
	Delta *session.Delta      `json:"delta"`
}

// ApplyEdit 应用手工编辑
// 基准版本过期返回409，客户端应刷新后重试
func (h *Handler) ApplyEdit(w http.ResponseWriter, r *http.Request) {
	var req EditRequest
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

	newSet, delta, err := session.New(req.Catalog).ApplyEdit(req.Set, req.Edit)
	if err != nil {
		metrics.RecordEdit(false)
		respondError(w, err)
		return
	}

	metrics.RecordEdit(true)
	respondJSON(w, http.StatusOK, EditResponse{Set: newSet, Delta: delta})
}

// AdviseRequest 外部建议审查请求
type AdviseRequest struct {
	Catalog *model.Catalog      `json:"catalog"`
	Set     *model.TimetableSet `json:"set"`
	Text    string              `json:"text"`
}

// AdviseResponse 外部建议审查响应
type AdviseResponse struct {
	Resolution *model.Resolution `json:"resolution"`
}

// Advise 审查外部顾问的自由文本建议
// 建议永远不会被直接应用：验证通过的返回候选方案，由用户确认
func (h *Handler) Advise(w http.ResponseWriter, r *http.Request) {
	var req AdviseRequest
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
	if req.Text == "" {
		respondError(w, errors.InvalidInput("text", "建议文本不能为空"))
		return
	}

	resolution, err := advisor.New(h.grid).Review(req.Text, req.Set, req.Catalog)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, AdviseResponse{Resolution: resolution})
}
