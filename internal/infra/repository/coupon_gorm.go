package repository

import (
	"context"

	"cupcake/internal/domain/model"
	repo "cupcake/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CouponGormRepository struct {
	db *gorm.DB
}

func NewCouponGormRepository(db *gorm.DB) *CouponGormRepository {
	return &CouponGormRepository{db: db}
}

func (r *CouponGormRepository) FindByCode(ctx context.Context, code string) (model.Coupon, error) {
	var c model.Coupon
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&c).Error; err != nil {
		return model.Coupon{}, mapErr(err)
	}
	return c, nil
}

// 行ロック。同じコードの利用はここで直列化される
func (r *CouponGormRepository) FindByCodeForUpdate(ctx context.Context, code string) (model.Coupon, error) {
	var c model.Coupon
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("code = ?", code).
		First(&c).Error
	if err != nil {
		return model.Coupon{}, mapErr(err)
	}
	return c, nil
}

// 上限に達していれば更新しない（ロック無しで呼ばれても超過しない）
func (r *CouponGormRepository) IncrementUsage(ctx context.Context, couponID string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Coupon{}).
		Where("id = ? AND (max_usage IS NULL OR current_usage < max_usage)", couponID).
		Update("current_usage", gorm.Expr("current_usage + 1"))

	if res.Error != nil {
		return mapErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrConflict
	}
	return nil
}

func (r *CouponGormRepository) Create(ctx context.Context, c model.Coupon) (model.Coupon, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(&c).Error; err != nil {
		return model.Coupon{}, mapErr(err)
	}
	return c, nil
}
