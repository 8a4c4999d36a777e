// Package handler 提供HTTP请求处理器
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/paike/paike/internal/config"
	"github.com/paike/paike/internal/repository"
	"github.com/paike/paike/pkg/errors"
	"github.com/paike/paike/pkg/model"
)

// Handler 排课处理器
// 引擎是纯函数：目录和分配全部随请求传入，处理器不持有可变状态；
// 可选的存档仓储只用于保存和读取版本化的结果集，
// 可选的目录仓储在请求未携带目录时按培养项目和学期加载
type Handler struct {
	grid     model.SlotGrid
	cfg      config.EngineConfig
	store    *repository.TimetableRepository
	catalogs *repository.CatalogRepository
}

// New 创建排课处理器
func New(cfg *config.Config) *Handler {
	grid := model.DefaultGrid()
	if cfg.Grid.DayStart != "" {
		grid.DayStart = cfg.Grid.DayStart
	}
	if cfg.Grid.DayEnd != "" {
		grid.DayEnd = cfg.Grid.DayEnd
	}
	if cfg.Grid.SlotMinutes > 0 {
		grid.SlotMinutes = cfg.Grid.SlotMinutes
	}
	return &Handler{grid: grid, cfg: cfg.Engine}
}

// decodeJSON 解析请求体
func decodeJSON(r *http.Request, dst interface{}) *errors.AppError {
	if r.Method != http.MethodPost {
		return errors.New(errors.CodeInvalidInput, "仅支持POST方法")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return errors.Wrap(err, errors.CodeInvalidInput, "解析请求失败")
	}
	return nil
}

// respondJSON 返回JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError 返回错误响应
func respondError(w http.ResponseWriter, err error) {
	appErr, ok := err.(*errors.AppError)
	if !ok {
		appErr = errors.Wrap(err, errors.CodeInternal, "内部错误")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.HTTPStatus)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error":   true,
		"code":    appErr.Code,
		"message": appErr.Message,
		"details": appErr.Details,
		"fields":  appErr.Fields,
	})
}

// requireCatalog 校验请求携带了目录
func requireCatalog(catalog *model.Catalog) *errors.AppError {
	if catalog == nil || len(catalog.Courses) == 0 {
		return errors.InvalidInput("catalog", "课程目录不能为空")
	}
	return nil
}

// resolveCatalog 取请求携带的目录，缺失时回退到目录仓储
func (h *Handler) resolveCatalog(r *http.Request, catalog *model.Catalog, program string, semester int) (*model.Catalog, error) {
	if catalog != nil {
		if err := requireCatalog(catalog); err != nil {
			return nil, err
		}
		return catalog, nil
	}
	if h.catalogs == nil {
		return nil, requireCatalog(nil)
	}

	loaded, err := h.catalogs.LoadCatalog(r.Context(), program, semester)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeDatabaseError, "加载课程目录失败")
	}
	if err := requireCatalog(loaded); err != nil {
		return nil, err
	}
	return loaded, nil
}

// invalidSet 缺少课表集合的请求错误
func invalidSet() *errors.AppError {
	return errors.InvalidInput("set", "课表结果集不能为空")
}

// parseUUIDSet 解析ID列表
func parseUUIDSet(raw []string) ([]uuid.UUID, *errors.AppError) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, errors.InvalidInput("changed_ids", "无效的ID格式: "+s)
		}
		out = append(out, id)
	}
	return out, nil
}
