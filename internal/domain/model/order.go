package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReady, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// 利用者自身がキャンセルできるのは確定前まで。
func (s OrderStatus) CanUserCancel() bool {
	return s == OrderStatusPending || s == OrderStatusConfirmed
}

// 管理者の通常遷移表。ここにない遷移はforce指定が必要。
var adminTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusPreparing, OrderStatusCancelled},
	OrderStatusPreparing: {OrderStatusReady},
	OrderStatusReady:     {OrderStatusDelivered},
}

func CanAdminTransition(from, to OrderStatus) bool {
	for _, s := range adminTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// 支払い方法
type PaymentMethod string

const (
	PaymentInstant    PaymentMethod = "instant"
	PaymentOnDelivery PaymentMethod = "on-delivery"
)

// 旧クライアントの値(pix/cod)も受ける。空はon-delivery。
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "on-delivery", "cod", "cash":
		return PaymentOnDelivery, true
	case "instant", "pix":
		return PaymentInstant, true
	}
	return "", false
}

// 即時決済は確定済み、代引きは保留で作る。
func (p PaymentMethod) InitialStatus() OrderStatus {
	if p == PaymentInstant {
		return OrderStatusConfirmed
	}
	return OrderStatusPending
}

type Order struct {
	ID                string          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            string          `gorm:"not null;index" json:"userId"`
	Status            OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	Total             decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total"`
	DeliveryAddress   string          `gorm:"type:text;not null" json:"deliveryAddress"`
	PaymentMethod     PaymentMethod   `gorm:"type:varchar(20);not null" json:"paymentMethod"`
	AppliedCouponCode *string         `gorm:"type:varchar(64)" json:"appliedCouponCode"`
	DiscountAmount    decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"discountAmount"`
	IdempotencyKey    *string         `gorm:"type:varchar(255)" json:"-"`
	CreatedAt         time.Time       `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt         time.Time       `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}
