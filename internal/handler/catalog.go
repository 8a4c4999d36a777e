// Package handler 提供HTTP请求处理器
package handler

import (
	"net/http"
	"strconv"

	"github.com/paike/paike/internal/repository"
	"github.com/paike/paike/pkg/errors"
)

// WithCatalogSource 启用数据库目录加载
// 配置后 /api/v1/catalog 可用，排课请求允许省略目录改由仓储加载
func (h *Handler) WithCatalogSource(catalogs *repository.CatalogRepository) *Handler {
	h.catalogs = catalogs
	return h
}

// CatalogResponse 目录查询响应
type CatalogResponse struct {
	Catalog      interface{} `json:"catalog"`
	CourseCount  int         `json:"course_count"`
	FacultyCount int         `json:"faculty_count"`
	RoomCount    int         `json:"room_count"`
}

// Catalog 按培养项目和学期加载完整目录
func (h *Handler) Catalog(w http.ResponseWriter, r *http.Request) {
	if h.catalogs == nil {
		respondError(w, errors.New(errors.CodeInternal, "目录仓储未启用"))
		return
	}
	if r.Method != http.MethodGet {
		respondError(w, errors.New(errors.CodeInvalidInput, "仅支持GET方法"))
		return
	}

	program := r.URL.Query().Get("program")
	semester, _ := strconv.Atoi(r.URL.Query().Get("semester"))

	catalog, err := h.catalogs.LoadCatalog(r.Context(), program, semester)
	if err != nil {
		respondError(w, errors.Wrap(err, errors.CodeDatabaseError, "加载课程目录失败"))
		return
	}

	respondJSON(w, http.StatusOK, CatalogResponse{
		Catalog:      catalog,
		CourseCount:  len(catalog.Courses),
		FacultyCount: len(catalog.Faculty),
		RoomCount:    len(catalog.Rooms),
	})
}
