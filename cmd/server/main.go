// PaiKe 排课引擎服务
// 主程序入口

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/paike/paike/internal/config"
	"github.com/paike/paike/internal/database"
	"github.com/paike/paike/internal/handler"
	"github.com/paike/paike/internal/metrics"
	"github.com/paike/paike/internal/middleware"
	"github.com/paike/paike/internal/repository"
	"github.com/paike/paike/pkg/logger"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: "console",
	})

	// 打印版本信息
	fmt.Printf("PaiKe 排课引擎 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	h := handler.New(cfg)

	// 数据库可选：连不上时目录加载和存档端点不可用，纯函数端点照常工作
	db, err := database.New(&cfg.Database)
	if err != nil {
		logger.Warn().Err(err).Msg("数据库不可用，目录加载和课表存档端点已禁用")
	} else {
		defer db.Close()
		h = h.WithStore(repository.NewTimetableRepository(db)).
			WithCatalogSource(repository.NewCatalogRepository(db))
	}

	// 创建 HTTP 服务器
	mux := http.NewServeMux()

	// ========================================
	// 系统端点
	// ========================================

	// 健康检查端点
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"paike"}`))
	})

	// 版本信息端点
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	// ========================================
	// API v1 端点
	// ========================================

	// API 根路由
	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"message": "PaiKe 排课引擎 API v1",
			"endpoints": {
				"timetable": {
					"generate": "POST /api/v1/timetable/generate",
					"detect": "POST /api/v1/timetable/detect",
					"optimize": "POST /api/v1/timetable/optimize",
					"suggest": "POST /api/v1/timetable/suggest",
					"edit": "POST /api/v1/timetable/edit",
					"advise": "POST /api/v1/timetable/advise",
					"save": "POST /api/v1/timetable/save",
					"versions": "GET /api/v1/timetable/versions",
					"publish": "POST /api/v1/timetable/publish"
				},
				"catalog": {
					"get": "GET /api/v1/catalog"
				},
				"constraints": {
					"library": "GET /api/v1/constraints/library"
				},
				"stats": {
					"summary": "POST /api/v1/stats"
				}
			}
		}`))
	})

	// 排课生成 API
	mux.HandleFunc("/api/v1/timetable/generate", h.Generate)

	// 冲突检测 API
	mux.HandleFunc("/api/v1/timetable/detect", h.Detect)

	// 课表优化 API
	mux.HandleFunc("/api/v1/timetable/optimize", h.Optimize)

	// 解决方案推荐 API
	mux.HandleFunc("/api/v1/timetable/suggest", h.Suggest)

	// 手工编辑 API
	mux.HandleFunc("/api/v1/timetable/edit", h.ApplyEdit)

	// 外部建议审查 API
	mux.HandleFunc("/api/v1/timetable/advise", h.Advise)

	// 课表存档 API
	mux.HandleFunc("/api/v1/timetable/save", h.Save)
	mux.HandleFunc("/api/v1/timetable/versions", h.Versions)
	mux.HandleFunc("/api/v1/timetable/publish", h.Publish)

	// 目录查询 API
	mux.HandleFunc("/api/v1/catalog", h.Catalog)

	// 约束库 API - 返回引擎支持的所有约束及参数定义
	mux.HandleFunc("/api/v1/constraints/library", handleConstraintLibrary)

	// 统计分析 API
	mux.HandleFunc("/api/v1/stats", h.Stats)

	// ========================================
	// 监控端点
	// ========================================

	// Prometheus 指标端点
	if cfg.Metrics.Enabled {
		mux.Handle(cfg.Metrics.Path, metrics.Handler())
	}

	// ========================================
	// 中间件
	// ========================================

	// 中间件执行顺序：requestID -> recovery -> rateLimit -> cors -> logging -> handler
	limiter := middleware.NewRateLimiter(100)
	root := middleware.RequestID(
		middleware.Recovery(
			middleware.RateLimit(limiter)(
				middleware.CORS(
					middleware.Logging(mux)))))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      root,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 启动服务器（非阻塞）
	go func() {
		logger.Info().
			Int("port", cfg.App.Port).
			Str("version", Version).
			Str("url", fmt.Sprintf("http://localhost:%d", cfg.App.Port)).
			Str("api_docs", fmt.Sprintf("http://localhost:%d/api/v1/", cfg.App.Port)).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		os.Exit(1)
	}

	logger.Info().Msg("服务器已关闭")
}

// ConstraintParam 约束参数定义
type ConstraintParam struct {
	Name        string `json:"name"`          // 参数名称
	Type        string `json:"type"`          // 参数类型: int, float, bool
	Description string `json:"description"`   // 参数描述
	Default     string `json:"default"`       // 默认值
	Min         string `json:"min,omitempty"` // 最小值(可选)
	Max         string `json:"max,omitempty"` // 最大值(可选)
}

// ConstraintDefinition 约束定义（约束库中的完整定义）
type ConstraintDefinition struct {
	Name        string            `json:"name"`         // 约束唯一标识
	DisplayName string            `json:"display_name"` // 显示名称
	Type        string            `json:"type"`         // hard/soft
	Category    string            `json:"category"`     // 分类
	Description string            `json:"description"`  // 详细描述
	Params      []ConstraintParam `json:"params"`       // 可配置参数
}

// ConstraintLibraryResponse 约束库响应
type ConstraintLibraryResponse struct {
	Library []ConstraintDefinition `json:"library"`
}

// handleConstraintLibrary 处理约束库请求 - 返回引擎实际支持的所有约束定义
func handleConstraintLibrary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	library := []ConstraintDefinition{
		// ========================================
		// 硬约束（始终启用）
		// ========================================
		{
			Name:        "respect_availability",
			DisplayName: "教师可用时间",
			Type:        "hard",
			Category:    "时间限制",
			Description: "课程只能安排在教师声明的可用时间段内。",
			Params:      []ConstraintParam{},
		},
		{
			Name:        "respect_capacity",
			DisplayName: "教室容量",
			Type:        "hard",
			Category:    "资源限制",
			Description: "选课人数不能超过教室容量；启用超员溢出软约束后允许不超过10%的超员。",
			Params:      []ConstraintParam{},
		},
		{
			Name:        "max_hours_per_day",
			DisplayName: "每日最大课时",
			Type:        "hard",
			Category:    "工作量限制",
			Description: "限制教师每天的授课时长，教师个人上限优先于全局默认值。",
			Params: []ConstraintParam{
				{Name: "max_hours", Type: "int", Description: "最大课时(小时)", Default: "6", Min: "1", Max: "10"},
			},
		},
		{
			Name:        "max_consecutive_hours",
			DisplayName: "最大连续课时",
			Type:        "hard",
			Category:    "工作量限制",
			Description: "限制教师连续授课的时长，中间有空档即重新计算。",
			Params: []ConstraintParam{
				{Name: "max_hours", Type: "int", Description: "最大连续课时(小时)", Default: "3", Min: "1", Max: "6"},
			},
		},
		{
			Name:        "respect_prerequisites",
			DisplayName: "先修课程",
			Type:        "hard",
			Category:    "课程依赖",
			Description: "先修课未在目录中出现时不能安排后续课程。",
			Params:      []ConstraintParam{},
		},
		{
			Name:        "subject_match",
			DisplayName: "授课资质匹配",
			Type:        "hard",
			Category:    "资质要求",
			Description: "教师只能讲授其资质列表中的课程，列表为空表示不限。",
			Params:      []ConstraintParam{},
		},
		{
			Name:        "room_type_match",
			DisplayName: "教室类型匹配",
			Type:        "hard",
			Category:    "资源限制",
			Description: "实践课必须安排在实验室或实习学校，项目课优先研讨室。",
			Params:      []ConstraintParam{},
		},
		// ========================================
		// 软约束（按配置启用）
		// ========================================
		{
			Name:        "workload_balance",
			DisplayName: "工作量均衡",
			Type:        "soft",
			Category:    "公平性",
			Description: "尽量使教师之间的授课时长分布均匀。",
			Params: []ConstraintParam{
				{Name: "weight", Type: "int", Description: "优化权重", Default: "10", Min: "0", Max: "100"},
			},
		},
		{
			Name:        "group_electives",
			DisplayName: "选修课集中",
			Type:        "soft",
			Category:    "课表质量",
			Description: "同一届学生的选修课尽量集中安排，避免零散分布。",
			Params: []ConstraintParam{
				{Name: "weight", Type: "int", Description: "优化权重", Default: "10", Min: "0", Max: "100"},
			},
		},
		{
			Name:        "avoid_back_to_back_heavy",
			DisplayName: "避免高学分课连排",
			Type:        "soft",
			Category:    "课表质量",
			Description: "同一届学生避免两门高学分课程背靠背安排。",
			Params: []ConstraintParam{
				{Name: "weight", Type: "int", Description: "优化权重", Default: "10", Min: "0", Max: "100"},
			},
		},
		{
			Name:        "prefer_specialized_rooms",
			DisplayName: "专用教室优先",
			Type:        "soft",
			Category:    "资源利用",
			Description: "实践课优先实验室，项目课优先研讨室。",
			Params: []ConstraintParam{
				{Name: "weight", Type: "int", Description: "优化权重", Default: "10", Min: "0", Max: "100"},
			},
		},
		{
			Name:        "allow_overflow",
			DisplayName: "容量溢出",
			Type:        "soft",
			Category:    "资源利用",
			Description: "允许不超过10%的超员，超员仍会作为低严重度冲突报告。",
			Params: []ConstraintParam{
				{Name: "weight", Type: "int", Description: "优化权重", Default: "10", Min: "0", Max: "100"},
			},
		},
		{
			Name:        "minimize_room_changes",
			DisplayName: "减少教室切换",
			Type:        "soft",
			Category:    "课表质量",
			Description: "同一届学生相邻课程尽量安排在同一教室。",
			Params: []ConstraintParam{
				{Name: "weight", Type: "int", Description: "优化权重", Default: "10", Min: "0", Max: "100"},
			},
		},
	}

	response := ConstraintLibraryResponse{Library: library}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
