// Package pricing は注文金額の計算。金額はすべて整数セントで扱う。
package pricing

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/shopspring/decimal"
)

const (
	// 配送料は固定5.00。割引の対象外。
	DeliveryFeeCents int64 = 500

	// 1明細あたりの数量上限（カートも同じ）
	MaxItemQuantity int64 = 1000

	// numeric(10,2) に入る上限 99999999.99
	MaxAmountCents int64 = 9_999_999_999
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product unavailable")
	ErrInvalidDiscount    = errors.New("discount percentage must be between 0 and 100")
	ErrInvalidQuantity    = errors.New("quantity out of range")
	ErrAmountTooLarge     = errors.New("amount too large")
)

type Line struct {
	ProductID string
	Quantity  int64
}

// カタログ上の正の価格
type CatalogEntry struct {
	PriceCents int64
	Available  bool
}

type LineTotal struct {
	ProductID      string
	Quantity       int64
	UnitPriceCents int64
	TotalCents     int64
}

type Totals struct {
	Lines                   []LineTotal
	SubtotalCents           int64
	DiscountCents           int64
	DiscountedSubtotalCents int64
	DeliveryFeeCents        int64
	TotalCents              int64
}

// Compute は明細とカタログから合計を出す。discountPct は 0..100。
func Compute(lines []Line, catalog map[string]CatalogEntry, discountPct int) (Totals, error) {
	if discountPct < 0 || discountPct > 100 {
		return Totals{}, ErrInvalidDiscount
	}

	t := Totals{Lines: make([]LineTotal, 0, len(lines))}
	for _, l := range lines {
		entry, ok := catalog[l.ProductID]
		if !ok {
			return Totals{}, fmt.Errorf("%w: %s", ErrProductNotFound, l.ProductID)
		}
		if !entry.Available {
			return Totals{}, fmt.Errorf("%w: %s", ErrProductUnavailable, l.ProductID)
		}
		if l.Quantity < 1 || l.Quantity > MaxItemQuantity {
			return Totals{}, fmt.Errorf("%w: %s", ErrInvalidQuantity, l.ProductID)
		}
		lineCents, ok := mulCents(entry.PriceCents, l.Quantity)
		if !ok {
			return Totals{}, fmt.Errorf("%w: %s", ErrAmountTooLarge, l.ProductID)
		}
		lt := LineTotal{
			ProductID:      l.ProductID,
			Quantity:       l.Quantity,
			UnitPriceCents: entry.PriceCents,
			TotalCents:     lineCents,
		}
		t.Lines = append(t.Lines, lt)
		// 両方 MaxAmountCents 以下なので和はint64に収まる
		t.SubtotalCents += lt.TotalCents
		if t.SubtotalCents > MaxAmountCents {
			return Totals{}, ErrAmountTooLarge
		}
	}

	t.DiscountCents = DiscountCents(t.SubtotalCents, discountPct)
	t.DiscountedSubtotalCents = t.SubtotalCents - t.DiscountCents
	if t.SubtotalCents > 0 {
		t.DeliveryFeeCents = DeliveryFeeCents
	}
	t.TotalCents = t.DiscountedSubtotalCents + t.DeliveryFeeCents
	if t.TotalCents > MaxAmountCents {
		return Totals{}, ErrAmountTooLarge
	}
	return t, nil
}

// price*qty を桁あふれ無しで計算する。MaxAmountCents を超えたら ok=false
func mulCents(priceCents, qty int64) (int64, bool) {
	if priceCents < 0 || qty < 0 {
		return 0, false
	}
	hi, lo := bits.Mul64(uint64(priceCents), uint64(qty))
	if hi != 0 || lo > uint64(MaxAmountCents) {
		return 0, false
	}
	return int64(lo), true
}

// round(subtotal * pct / 100)。半分は切り上げ。
func DiscountCents(subtotalCents int64, pct int) int64 {
	if subtotalCents <= 0 || pct <= 0 {
		return 0
	}
	return (subtotalCents*int64(pct) + 50) / 100
}

// numeric(10,2) の値をセントにする。3桁目以降は四捨五入。
func ToCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func FromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

// "29.70" のような2桁固定の文字列
func Format(c int64) string {
	return FromCents(c).StringFixed(2)
}
