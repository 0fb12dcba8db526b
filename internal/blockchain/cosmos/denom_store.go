package cosmos

import (
	"context"
	"errors"
	"time"

	"chain-gateway/internal/blockchain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// IBCDenomTrace 已解析的 IBC 溯源记录
type IBCDenomTrace struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Chain     string    `gorm:"size:32;uniqueIndex:idx_denom_trace_chain_hash" json:"chain"`
	Hash      string    `gorm:"size:128;uniqueIndex:idx_denom_trace_chain_hash" json:"hash"`
	Path      string    `gorm:"size:255" json:"path"`
	BaseDenom string    `gorm:"size:255" json:"base_denom"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName 表名
func (IBCDenomTrace) TableName() string {
	return "ibc_denom_traces"
}

var _ DenomTraceStore = (*denomTraceRepository)(nil)

type denomTraceRepository struct {
	db *gorm.DB
}

// NewDenomTraceRepository 创建 gorm 溯源仓储
func NewDenomTraceRepository(db *gorm.DB) DenomTraceStore {
	return &denomTraceRepository{db: db}
}

// Get 未找到返回 nil, nil
func (r *denomTraceRepository) Get(ctx context.Context, chain blockchain.Chain, hash string) (*blockchain.IbcDenomTrace, error) {
	var rec IBCDenomTrace
	err := r.db.WithContext(ctx).
		Where("chain = ? AND hash = ?", chain.String(), hash).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &blockchain.IbcDenomTrace{Path: rec.Path, BaseDenom: rec.BaseDenom}, nil
}

// Save 已存在时忽略
func (r *denomTraceRepository) Save(ctx context.Context, chain blockchain.Chain, hash string, trace blockchain.IbcDenomTrace) error {
	rec := &IBCDenomTrace{
		Chain:     chain.String(),
		Hash:      hash,
		Path:      trace.Path,
		BaseDenom: trace.BaseDenom,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rec).Error
}
