package models

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// FoundItem 落し物投稿，只追加不修改
type FoundItem struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string    `gorm:"type:varchar(100);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Latitude    Degree    `gorm:"not null" json:"latitude"`
	Longitude   Degree    `gorm:"not null" json:"longitude"`
	CreatedAt   time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;index" json:"created_at"`
}

func (FoundItem) TableName() string {
	return "found_items"
}

// Degree 经纬度（度）。各数据库都落成双精度浮点列，
// postgres 用 udt 名 float8，已有的 FLOAT 列迁移时不会被改写
type Degree float64

func (Degree) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "postgres":
		return "float8"
	case "mysql":
		return "double"
	case "sqlite":
		return "real"
	}
	return ""
}

// NewItem 表单提交的字段，坐标用指针区分"未填写"和 0
type NewItem struct {
	Title       string   `json:"title" form:"title" validate:"required,max=100"`
	Description string   `json:"description" form:"description"`
	Latitude    *float64 `json:"latitude" form:"latitude" validate:"required"`
	Longitude   *float64 `json:"longitude" form:"longitude" validate:"required"`
}
