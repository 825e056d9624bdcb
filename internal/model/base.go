package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ── 周次映射 JSON 列类型 ──

// Scan 将数据库中的 JSON 文本解析为 WeekMap，实现 GORM / database/sql Scanner 接口。
func (m *WeekMap) Scan(src interface{}) error {
	if src == nil {
		*m = WeekMap{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("WeekMap.Scan: unsupported type %T", src)
	}
	if len(raw) == 0 {
		*m = WeekMap{}
		return nil
	}
	parsed := WeekMap{}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("WeekMap.Scan: invalid json: %w", err)
	}
	*m = parsed
	return nil
}

// Value 将 WeekMap 序列化为 JSON 文本（键为周次字符串）。
func (m WeekMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// BaseModel 通用审计字段（所有业务模型嵌入）
type BaseModel struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// VersionedModel 支持乐观锁的模型：周次映射整体写回时校验版本
type VersionedModel struct {
	BaseModel
	Version int `gorm:"not null;default:1" json:"version"`
}
