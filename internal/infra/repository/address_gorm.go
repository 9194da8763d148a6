package repository

import (
	"context"
	"time"

	"cupcake/internal/domain/model"
	repo "cupcake/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type addressGormRepository struct {
	db *gorm.DB
}

// DI
func NewAddressGormRepository(db *gorm.DB) repo.AddressRepository {
	return &addressGormRepository{db: db}
}

// 住所を作成
func (r *addressGormRepository) Create(ctx context.Context, address model.Address) (model.Address, error) {
	if address.ID == "" {
		address.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(&address).Error; err != nil {
		return model.Address{}, mapErr(err)
	}
	return address, nil
}

// ユーザーの住所一覧を返す
func (r *addressGormRepository) ListByUserID(ctx context.Context, userID string) ([]model.Address, error) {
	var list []model.Address
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("is_default DESC, created_at ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// 他人の住所は見つからない扱い
func (r *addressGormRepository) FindByUserAndID(ctx context.Context, userID, addressID string) (model.Address, error) {
	var a model.Address
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		First(&a).Error; err != nil {
		return model.Address{}, mapErr(err)
	}
	return a, nil
}

// 住所を更新（デフォルトフラグは別操作）
func (r *addressGormRepository) Update(ctx context.Context, address model.Address) error {
	result := r.db.WithContext(ctx).
		Model(&model.Address{}).
		Where("id = ? AND user_id = ?", address.ID, address.UserID).
		Select(
			"name",
			"cep",
			"street",
			"number",
			"complement",
			"neighborhood",
			"city",
			"state",
			"updated_at",
		).
		Updates(model.Address{
			Name:         address.Name,
			CEP:          address.CEP,
			Street:       address.Street,
			Number:       address.Number,
			Complement:   address.Complement,
			Neighborhood: address.Neighborhood,
			City:         address.City,
			State:        address.State,
			UpdatedAt:    time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 住所を削除
func (r *addressGormRepository) Delete(ctx context.Context, userID, addressID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", addressID, userID).
		Delete(&model.Address{})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// そのユーザーのdefaultを全て false
func (r *addressGormRepository) ClearDefault(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Model(&model.Address{}).
		Where("user_id = ? AND is_default = TRUE", userID).
		Update("is_default", false).Error
}

// 指定住所だけ true
func (r *addressGormRepository) MarkDefault(ctx context.Context, userID, addressID string) error {
	result := r.db.WithContext(ctx).
		Model(&model.Address{}).
		Where("id = ? AND user_id = ?", addressID, userID).
		Update("is_default", true)

	if result.Error != nil {
		return mapErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
