package model

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrCouponEmptyCode = errors.New("coupon code is required")
	ErrCouponNotFound  = errors.New("coupon not found")
	ErrCouponInactive  = errors.New("coupon is not active")
	ErrCouponExpired   = errors.New("coupon has expired")
	ErrCouponExhausted = errors.New("coupon usage limit reached")
)

// クーポン。codeは大文字で保存する。
// current_usage <= max_usage はDBのCHECK制約でも守る。
type Coupon struct {
	ID                 string     `gorm:"type:uuid;primaryKey" json:"id"`
	Code               string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"code"`
	DiscountPercentage int        `gorm:"not null" json:"discountPercentage"`
	MaxUsage           *int       `json:"maxUsage"`
	CurrentUsage       int        `gorm:"not null;default:0" json:"currentUsage"`
	IsActive           bool       `gorm:"not null" json:"isActive"`
	ExpiresAt          *time.Time `json:"expiresAt"`
	CreatedAt          time.Time  `gorm:"not null;autoCreateTime" json:"createdAt"`
}

func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// 見つかったクーポンの状態チェック。順番は inactive -> expired -> exhausted。
func (c *Coupon) Validate(now time.Time) error {
	if !c.IsActive {
		return ErrCouponInactive
	}
	if c.ExpiresAt != nil && c.ExpiresAt.Before(now) {
		return ErrCouponExpired
	}
	if c.MaxUsage != nil && c.CurrentUsage >= *c.MaxUsage {
		return ErrCouponExhausted
	}
	return nil
}

func IsCouponError(err error) bool {
	return errors.Is(err, ErrCouponEmptyCode) ||
		errors.Is(err, ErrCouponNotFound) ||
		errors.Is(err, ErrCouponInactive) ||
		errors.Is(err, ErrCouponExpired) ||
		errors.Is(err, ErrCouponExhausted)
}
