package repository

import (
	"context"
	"time"

	"cupcake/internal/domain/model"
	domainrepo "cupcake/internal/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userGormRepository struct {
	db *gorm.DB
}

// DI
// main.goでこれをnewしてmiddleware/usecaseに注入します。
func NewUserGormRepository(db *gorm.DB) domainrepo.UserRepository {
	return &userGormRepository{db: db}
}

// IdPのsubをキーに作成/更新
func (r *userGormRepository) Upsert(ctx context.Context, user model.User) (model.User, error) {
	if user.Role == "" {
		user.Role = model.RoleUser
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	err := r.db.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns: []clause.Column{{Name: "id"}},
				DoUpdates: clause.Assignments(map[string]any{
					"email":      user.Email,
					"first_name": user.FirstName,
					"last_name":  user.LastName,
					"role":       user.Role,
					"updated_at": now,
				}),
			},
			clause.Returning{},
		).
		Create(&user).Error
	if err != nil {
		return model.User{}, mapErr(err)
	}
	return user, nil
}

func (r *userGormRepository) FindByID(ctx context.Context, userID string) (model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).Where("id = ?", userID).First(&u).Error; err != nil {
		return model.User{}, mapErr(err)
	}
	return u, nil
}

func (r *userGormRepository) FindByIDs(ctx context.Context, userIDs []string) (map[string]model.User, error) {
	out := make(map[string]model.User, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	var users []model.User
	if err := r.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}
