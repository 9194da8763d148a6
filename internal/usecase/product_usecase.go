package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"cupcake/internal/domain/model"
	repo "cupcake/internal/repository"
)

// 商品・カテゴリの参照だけ（管理は別システム）
type ProductUsecase struct {
	productRepo  repo.ProductRepository
	categoryRepo repo.CategoryRepository
}

// DI
func NewProductUsecase(productRepo repo.ProductRepository, categoryRepo repo.CategoryRepository) *ProductUsecase {
	return &ProductUsecase{productRepo: productRepo, categoryRepo: categoryRepo}
}

type ListProductsInput struct {
	CategoryID   string
	FeaturedOnly bool
}

type ProductOutput struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       string    `json:"price"`
	ImageURL    string    `json:"imageUrl"`
	CategoryID  *string   `json:"categoryId"`
	IsAvailable bool      `json:"isAvailable"`
	IsFeatured  bool      `json:"isFeatured"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (u *ProductUsecase) ListProducts(ctx context.Context, in ListProductsInput) ([]ProductOutput, error) {
	if len(in.CategoryID) > 64 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid category")
	}
	items, err := u.productRepo.ListAvailable(ctx, repo.ProductListQuery{
		CategoryID:   strings.TrimSpace(in.CategoryID),
		FeaturedOnly: in.FeaturedOnly,
	})
	if err != nil {
		return nil, errDB()
	}

	out := make([]ProductOutput, 0, len(items))
	for _, p := range items {
		out = append(out, toProductOutput(p))
	}
	return out, nil
}

func (u *ProductUsecase) GetProduct(ctx context.Context, id string) (ProductOutput, error) {
	if strings.TrimSpace(id) == "" {
		return ProductOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := u.productRepo.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ProductOutput{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return ProductOutput{}, errDB()
	}
	return toProductOutput(p), nil
}

func (u *ProductUsecase) ListCategories(ctx context.Context) ([]model.Category, error) {
	list, err := u.categoryRepo.List(ctx)
	if err != nil {
		return nil, errDB()
	}
	return list, nil
}

func toProductOutput(p model.Product) ProductOutput {
	return ProductOutput{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		ImageURL:    p.ImageURL,
		CategoryID:  p.CategoryID,
		IsAvailable: p.IsAvailable,
		IsFeatured:  p.IsFeatured,
		CreatedAt:   p.CreatedAt,
	}
}
