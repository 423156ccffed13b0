package model

import "time"

// Timestamps 通用时间戳字段
type Timestamps struct {
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// VersionedTimestamps 支持乐观锁的时间戳字段
type VersionedTimestamps struct {
	Timestamps
	Version int `gorm:"not null;default:1" json:"version"`
}
