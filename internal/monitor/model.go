package monitor

import "time"

// ChainHead 每条链最近一次探测到的链头
type ChainHead struct {
	ID              uint      `gorm:"primaryKey" json:"-"`
	Chain           string    `gorm:"type:varchar(32);uniqueIndex;not null" json:"chain"`
	Height          uint64    `gorm:"default:0" json:"height"`
	BlockTimeMillis uint64    `gorm:"default:0" json:"block_time_millis"`
	LatencyMillis   int64     `gorm:"default:0" json:"latency_millis"`
	Healthy         bool      `gorm:"default:false" json:"healthy"`
	Error           string    `gorm:"type:text" json:"error,omitempty"`
	ObservedAt      time.Time `json:"observed_at"`
	UpdatedAt       time.Time `json:"-"`
}

// TableName 表名
func (ChainHead) TableName() string {
	return "chain_heads"
}
