// Package handler 提供HTTP请求处理器
package handler

import (
	"net/http"
	"strconv"

	"github.com/paike/paike/internal/repository"
	"github.com/paike/paike/pkg/errors"
	"github.com/paike/paike/pkg/model"
)

// WithStore 启用课表存档端点
func (h *Handler) WithStore(store *repository.TimetableRepository) *Handler {
	h.store = store
	return h
}

// SaveRequest 课表存档请求
type SaveRequest struct {
	Program           string              `json:"program"`
	Semester          int                 `json:"semester"`
	Set               *model.TimetableSet `json:"set"`
	OptimizationScore float64             `json:"optimization_score"`
	UnplacedCount     int                 `json:"unplaced_count"`
}

// Save 保存一个版本的课表
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, errors.New(errors.CodeInternal, "课表存档未启用"))
		return
	}

	var req SaveRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Program == "" || req.Semester <= 0 {
		respondError(w, errors.InvalidInput("program", "培养项目和学期不能为空"))
		return
	}
	if req.Set == nil {
		respondError(w, invalidSet())
		return
	}

	record, err := h.store.Save(r.Context(), req.Program, req.Semester,
		req.Set, req.OptimizationScore, req.UnplacedCount)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "保存课表失败"))
		return
	}

	respondJSON(w, http.StatusOK, record)
}

// Versions 列出课表的版本历史
func (h *Handler) Versions(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, errors.New(errors.CodeInternal, "课表存档未启用"))
		return
	}
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}

	program := r.URL.Query().Get("program")
	semester, _ := strconv.Atoi(r.URL.Query().Get("semester"))
	if program == "" || semester <= 0 {
		respondError(w, errors.InvalidInput("program", "培养项目和学期不能为空"))
		return
	}

	records, err := h.store.ListVersions(r.Context(), program, semester)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "查询课表版本失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"versions": records,
		"total":    len(records),
	})
}

// PublishRequest 课表发布请求
type PublishRequest struct {
	Program  string `json:"program"`
	Semester int    `json:"semester"`
	Version  int64  `json:"version"`
}

// Publish 发布指定版本的课表
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, errors.New(errors.CodeInternal, "课表存档未启用"))
		return
	}

	var req PublishRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, err)
		return
	}
	if req.Program == "" || req.Semester <= 0 || req.Version <= 0 {
		respondError(w, errors.InvalidInput("version", "培养项目、学期和版本号不能为空"))
		return
	}

	if err := h.store.Publish(r.Context(), req.Program, req.Semester, req.Version); err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "发布课表失败"))
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"published": req.Version})
}
