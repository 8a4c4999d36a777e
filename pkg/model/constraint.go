// Package model 定义排课引擎的核心数据模型
package model

// Constraint 约束配置记录
// 由外部目录提供，引擎据此构建约束集合；未知类型会被忽略并告警
type Constraint struct {
	Type    string                 `json:"type" validate:"required"` // respect_availability / max_hours_per_day / ...
	Kind    ConstraintKind         `json:"kind" validate:"oneof=hard soft"`
	Weight  int                    `json:"weight,omitempty"`  // 软约束权重，缺省 10
	Enabled bool                   `json:"enabled"`
	Params  map[string]interface{} `json:"params,omitempty"` // 如 {"max_hours": 6}
}

// ParamInt 读取整数参数
func (c *Constraint) ParamInt(key string, defaultVal int) int {
	if v, ok := c.Params[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		}
	}
	return defaultVal
}

// ParamFloat 读取浮点参数
func (c *Constraint) ParamFloat(key string, defaultVal float64) float64 {
	if v, ok := c.Params[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return defaultVal
}

// ParamBool 读取布尔参数
func (c *Constraint) ParamBool(key string, defaultVal bool) bool {
	if v, ok := c.Params[key].(bool); ok {
		return v
	}
	return defaultVal
}
