package monitor

import (
	"context"
	"errors"
	"sort"

	"github.com/puzpuzpuz/xsync"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository 链头存储
type Repository interface {
	SaveHead(ctx context.Context, head *ChainHead) error
	GetHead(ctx context.Context, chain string) (*ChainHead, error)
	ListHeads(ctx context.Context) ([]*ChainHead, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository 创建 gorm 链头仓储
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// SaveHead 按链覆盖写入. 探测失败时保留上一次成功的高度.
func (r *repository) SaveHead(ctx context.Context, head *ChainHead) error {
	columns := []string{"healthy", "error", "latency_millis", "observed_at", "updated_at"}
	if head.Healthy {
		columns = append(columns, "height", "block_time_millis")
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chain"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}).Create(head).Error
}

// GetHead 获取某条链的链头, 不存在返回 nil
func (r *repository) GetHead(ctx context.Context, chain string) (*ChainHead, error) {
	var head ChainHead
	if err := r.db.WithContext(ctx).Where("chain = ?", chain).First(&head).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &head, nil
}

// ListHeads 全部链头
func (r *repository) ListHeads(ctx context.Context) ([]*ChainHead, error) {
	var heads []*ChainHead
	if err := r.db.WithContext(ctx).Order("chain").Find(&heads).Error; err != nil {
		return nil, err
	}
	return heads, nil
}

type memoryRepository struct {
	heads *xsync.MapOf[string, ChainHead]
}

// NewMemoryRepository 不启用数据库时使用的内存仓储
func NewMemoryRepository() Repository {
	return &memoryRepository{heads: xsync.NewMapOf[ChainHead]()}
}

func (r *memoryRepository) SaveHead(_ context.Context, head *ChainHead) error {
	next := *head
	if prev, ok := r.heads.Load(head.Chain); ok && !head.Healthy {
		next.Height = prev.Height
		next.BlockTimeMillis = prev.BlockTimeMillis
	}
	r.heads.Store(head.Chain, next)
	return nil
}

func (r *memoryRepository) GetHead(_ context.Context, chain string) (*ChainHead, error) {
	head, ok := r.heads.Load(chain)
	if !ok {
		return nil, nil
	}
	return &head, nil
}

func (r *memoryRepository) ListHeads(_ context.Context) ([]*ChainHead, error) {
	heads := []*ChainHead{}
	r.heads.Range(func(_ string, head ChainHead) bool {
		h := head
		heads = append(heads, &h)
		return true
	})
	sort.Slice(heads, func(i, j int) bool { return heads[i].Chain < heads[j].Chain })
	return heads, nil
}
