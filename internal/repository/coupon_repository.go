package repository

import (
	"context"

	"cupcake/internal/domain/model"
)

type CouponRepository interface {
	// codeは正規化済み（大文字）で渡す
	FindByCode(ctx context.Context, code string) (model.Coupon, error)
	// SELECT ... FOR UPDATE。WithinTxの中で使う
	FindByCodeForUpdate(ctx context.Context, code string) (model.Coupon, error)
	// 上限未満のときだけ+1。上限に達していればErrConflict
	IncrementUsage(ctx context.Context, couponID string) error
	Create(ctx context.Context, c model.Coupon) (model.Coupon, error)
}
