package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cupcake/internal/domain/pricing"
	repo "cupcake/internal/repository"
)

// CartUsecase は /api/cart の業務ロジックです。
type CartUsecase struct {
	cartRepo    repo.CartRepository
	productRepo repo.ProductRepository
}

func NewCartUsecase(cartRepo repo.CartRepository, productRepo repo.ProductRepository) *CartUsecase {
	return &CartUsecase{cartRepo: cartRepo, productRepo: productRepo}
}

type CartProductResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	ImageURL    string `json:"imageUrl"`
	IsAvailable bool   `json:"isAvailable"`
}

// price は現在のカタログ価格（注文時に改めて確定する）
type CartItemResponse struct {
	ID        string              `json:"id"`
	ProductID string              `json:"productId"`
	Quantity  int64               `json:"quantity"`
	Product   CartProductResponse `json:"product"`
}

type CartResponse struct {
	Items       []CartItemResponse `json:"items"`
	Subtotal    string             `json:"subtotal"`
	DeliveryFee string             `json:"deliveryFee"`
	Total       string             `json:"total"`
}

type AddCartInput struct {
	ProductID string
	Quantity  int64
}

type UpdateCartItemInput struct {
	Quantity int64
}

func (u *CartUsecase) GetCart(ctx context.Context, userID string) (CartResponse, error) {
	if userID == "" {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return u.buildCartResponse(ctx, userID)
}

// AddToCart はカートに追加（同一商品は数量加算）。
func (u *CartUsecase) AddToCart(ctx context.Context, userID string, in AddCartInput) (CartResponse, error) {
	if userID == "" {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	productID := strings.TrimSpace(in.ProductID)
	if productID == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid productId")
	}
	if in.Quantity < 1 || in.Quantity > pricing.MaxItemQuantity {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	p, err := u.productRepo.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return CartResponse{}, errDB()
	}
	if !p.IsAvailable {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "product is unavailable")
	}

	_, err = u.cartRepo.Upsert(ctx, userID, productID, in.Quantity)
	if errors.Is(err, repo.ErrConflict) {
		// 加算後に上限(CHECK制約)を超えた
		return CartResponse{}, quantityLimitError()
	}
	if err != nil {
		return CartResponse{}, errDB()
	}
	return u.buildCartResponse(ctx, userID)
}

// 数量の上書き（1以上）。本人の明細だけ
func (u *CartUsecase) UpdateItem(ctx context.Context, userID string, itemID string, in UpdateCartItemInput) (CartResponse, error) {
	if userID == "" {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(itemID) == "" {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.Quantity < 1 || in.Quantity > pricing.MaxItemQuantity {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	_, err := u.cartRepo.UpdateQuantity(ctx, userID, itemID, in.Quantity)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return CartResponse{}, errDB()
	}
	return u.buildCartResponse(ctx, userID)
}

func quantityLimitError() error {
	return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("quantity must be at most %d", pricing.MaxItemQuantity))
}

func (u *CartUsecase) RemoveItem(ctx context.Context, userID string, itemID string) error {
	if userID == "" {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	err := u.cartRepo.DeleteByID(ctx, userID, itemID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return errDB()
	}
	return nil
}

func (u *CartUsecase) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := u.cartRepo.ClearByUserID(ctx, userID); err != nil {
		return errDB()
	}
	return nil
}

// 表示用の合計。販売停止中の商品は合計に入れない
func (u *CartUsecase) buildCartResponse(ctx context.Context, userID string) (CartResponse, error) {
	lines, err := u.cartRepo.ListByUserID(ctx, userID)
	if err != nil {
		return CartResponse{}, errDB()
	}

	items := make([]CartItemResponse, 0, len(lines))
	priced := make([]pricing.Line, 0, len(lines))
	catalog := make(map[string]pricing.CatalogEntry, len(lines))
	for _, l := range lines {
		items = append(items, CartItemResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Product: CartProductResponse{
				ID:          l.Product.ID,
				Name:        l.Product.Name,
				Price:       l.Product.Price.StringFixed(2),
				ImageURL:    l.Product.ImageURL,
				IsAvailable: l.Product.IsAvailable,
			},
		})
		if l.Product.ID == "" || !l.Product.IsAvailable {
			continue
		}
		priced = append(priced, pricing.Line{ProductID: l.ProductID, Quantity: l.Quantity})
		catalog[l.ProductID] = pricing.CatalogEntry{PriceCents: pricing.ToCents(l.Product.Price), Available: true}
	}

	totals, err := pricing.Compute(priced, catalog, 0)
	if err != nil {
		return CartResponse{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	return CartResponse{
		Items:       items,
		Subtotal:    pricing.Format(totals.SubtotalCents),
		DeliveryFee: pricing.Format(totals.DeliveryFeeCents),
		Total:       pricing.Format(totals.TotalCents),
	}, nil
}
