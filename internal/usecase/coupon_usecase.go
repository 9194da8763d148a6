package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cupcake/internal/domain/model"
	repo "cupcake/internal/repository"
)

type couponFinder func(ctx context.Context, code string) (model.Coupon, error)

// lookupCoupon はコードを正規化して引き、状態を確認する。
// 順番: empty -> not found -> inactive -> expired -> exhausted
func lookupCoupon(ctx context.Context, find couponFinder, code string, now time.Time) (model.Coupon, error) {
	code = model.NormalizeCouponCode(code)
	if code == "" {
		return model.Coupon{}, model.ErrCouponEmptyCode
	}
	c, err := find(ctx, code)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Coupon{}, model.ErrCouponNotFound
	}
	if err != nil {
		return model.Coupon{}, fmt.Errorf("find coupon: %w", err)
	}
	if err := c.Validate(now); err != nil {
		return model.Coupon{}, err
	}
	return c, nil
}

func invalidCouponError(err error) *HTTPError {
	return newKindError(http.StatusBadRequest, KindInvalidCoupon, err.Error())
}

type CouponUsecase struct {
	coupons repo.CouponRepository
	tx      repo.TransactionManager
	clock   Clock
}

func NewCouponUsecase(coupons repo.CouponRepository, tx repo.TransactionManager, clock Clock) *CouponUsecase {
	if clock == nil {
		clock = SystemClock{}
	}
	return &CouponUsecase{coupons: coupons, tx: tx, clock: clock}
}

type CouponValidationOutput struct {
	Valid    bool   `json:"valid"`
	Code     string `json:"code"`
	Discount int    `json:"discount"`
	Message  string `json:"message"`
}

// 使えるクーポンなら割引率を返す。使えなければInvalidCoupon(400)
func (u *CouponUsecase) Validate(ctx context.Context, code string) (CouponValidationOutput, error) {
	c, err := lookupCoupon(ctx, u.coupons.FindByCode, code, u.clock.Now())
	if model.IsCouponError(err) {
		return CouponValidationOutput{}, invalidCouponError(err)
	}
	if err != nil {
		return CouponValidationOutput{}, errDB()
	}
	return CouponValidationOutput{
		Valid:    true,
		Code:     c.Code,
		Discount: c.DiscountPercentage,
		Message:  fmt.Sprintf("coupon applied: %d%% off", c.DiscountPercentage),
	}, nil
}

type CreateCouponInput struct {
	Code               string
	DiscountPercentage int
	MaxUsage           *int
	IsActive           *bool
	ExpiresAt          *time.Time
}

// 管理者のクーポン作成。監査ログも同じTxで残す
func (u *CouponUsecase) AdminCreate(ctx context.Context, actorUserID string, in CreateCouponInput) (model.Coupon, error) {
	if actorUserID == "" {
		return model.Coupon{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	code := model.NormalizeCouponCode(in.Code)
	if code == "" || len(code) > 64 {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, "invalid code")
	}
	if in.DiscountPercentage < 0 || in.DiscountPercentage > 100 {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, "discountPercentage must be between 0 and 100")
	}
	if in.MaxUsage != nil && *in.MaxUsage < 0 {
		return model.Coupon{}, NewHTTPError(http.StatusBadRequest, "maxUsage must be >= 0")
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	var created model.Coupon
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		c, err := r.Coupons().Create(ctx, model.Coupon{
			Code:               code,
			DiscountPercentage: in.DiscountPercentage,
			MaxUsage:           in.MaxUsage,
			IsActive:           active,
			ExpiresAt:          in.ExpiresAt,
			CreatedAt:          u.clock.Now(),
		})
		if errors.Is(err, repo.ErrConflict) {
			return NewHTTPError(http.StatusConflict, "coupon code already exists")
		}
		if err != nil {
			return errDB()
		}

		after, err := auditSnapshot(c)
		if err != nil {
			return err
		}
		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorUserID,
			Action:       model.AuditActionCreateCoupon,
			ResourceType: model.AuditResourceCoupon,
			ResourceID:   c.ID,
			AfterJSON:    after,
			CreatedAt:    u.clock.Now(),
		}); err != nil {
			return errDB()
		}

		created = c
		return nil
	})
	if err != nil {
		return model.Coupon{}, err
	}
	return created, nil
}
