package repository

import (
	"cinema_booking/model"
	"context"
	"time"

	"gorm.io/gorm"
)

type PromotionRepository struct {
	db *gorm.DB
}

func NewPromotionRepository(db *gorm.DB) *PromotionRepository {
	return &PromotionRepository{db: db}
}

func (r *PromotionRepository) FindByCode(ctx context.Context, code string) (*model.Promotion, error) {
	var promo model.Promotion
	err := r.db.WithContext(ctx).Preload("Items").
		Where("code = ?", code).First(&promo).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &promo, nil
}

// IncrementUsage tăng used_count bằng 1 câu UPDATE có điều kiện, DB đảm bảo
// không vượt usage_limit dù nhiều booking confirm cùng lúc.
func (r *PromotionRepository) IncrementUsage(ctx context.Context, code string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Promotion{}).
		Where("code = ? AND status = ? AND (usage_limit = 0 OR used_count < usage_limit)",
			code, "active").
		UpdateColumn("used_count", gorm.Expr("used_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *PromotionRepository) RecordUsage(ctx context.Context, usage *model.PromotionUsage) error {
	return r.db.WithContext(ctx).Create(usage).Error
}

func (r *PromotionRepository) Create(ctx context.Context, promo *model.Promotion) error {
	return r.db.WithContext(ctx).Create(promo).Error
}

func (r *PromotionRepository) List(ctx context.Context, activeOnly bool) ([]model.Promotion, error) {
	var promos []model.Promotion
	q := r.db.WithContext(ctx).Preload("Items").Order("created_at DESC")
	if activeOnly {
		now := time.Now()
		q = q.Where("status = ? AND start_date <= ? AND end_date >= ?", "active", now, now)
	}
	err := q.Find(&promos).Error
	return promos, err
}
