package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"cupcake/internal/domain/model"
	repo "cupcake/internal/repository"
)

// 認証は外部IdP。ここではトークンのクレームをusersに反映するだけ
type UserUsecase struct {
	users repo.UserRepository
}

func NewUserUsecase(users repo.UserRepository) *UserUsecase {
	return &UserUsecase{users: users}
}

type IdentityClaims struct {
	Subject   string
	Email     string
	FirstName string
	LastName  string
	Role      string
}

func (u *UserUsecase) SyncFromClaims(ctx context.Context, c IdentityClaims) (model.User, error) {
	if strings.TrimSpace(c.Subject) == "" {
		return model.User{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	role := model.RoleUser
	if strings.EqualFold(c.Role, string(model.RoleAdmin)) {
		role = model.RoleAdmin
	}
	usr, err := u.users.Upsert(ctx, model.User{
		ID:        c.Subject,
		Email:     strings.TrimSpace(c.Email),
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Role:      role,
	})
	if err != nil {
		return model.User{}, errDB()
	}
	return usr, nil
}

func (u *UserUsecase) Me(ctx context.Context, userID string) (model.User, error) {
	if userID == "" {
		return model.User{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	usr, err := u.users.FindByID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.User{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.User{}, errDB()
	}
	return usr, nil
}
