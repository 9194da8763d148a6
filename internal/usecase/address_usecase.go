package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"cupcake/internal/domain/delivery"
	"cupcake/internal/domain/model"
	repo "cupcake/internal/repository"
)

type AddressInput struct {
	Name         string
	CEP          string
	Street       string
	Number       string
	Complement   string
	Neighborhood string
	City         string
	State        string
	IsDefault    bool
}

type AddressUsecase struct {
	tx        repo.TransactionManager
	addresses repo.AddressRepository
}

func NewAddressUsecase(tx repo.TransactionManager, addresses repo.AddressRepository) *AddressUsecase {
	return &AddressUsecase{tx: tx, addresses: addresses}
}

func (u *AddressUsecase) List(ctx context.Context, userID string) ([]model.Address, error) {
	if userID == "" {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	list, err := u.addresses.ListByUserID(ctx, userID)
	if err != nil {
		return nil, errDB()
	}
	return list, nil
}

// 最初の住所、またはisDefault指定の住所がデフォルトになる
func (u *AddressUsecase) Create(ctx context.Context, userID string, in AddressInput) (model.Address, error) {
	if userID == "" {
		return model.Address{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	a, herr := normalizeAddress(in)
	if herr != nil {
		return model.Address{}, herr
	}
	a.UserID = userID

	var created model.Address
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		existing, err := r.Addresses().ListByUserID(ctx, userID)
		if err != nil {
			return errDB()
		}
		makeDefault := in.IsDefault || len(existing) == 0
		if makeDefault {
			if err := r.Addresses().ClearDefault(ctx, userID); err != nil {
				return errDB()
			}
		}
		a.IsDefault = makeDefault

		c, err := r.Addresses().Create(ctx, a)
		if err != nil {
			return errDB()
		}
		created = c
		return nil
	})
	if err != nil {
		return model.Address{}, err
	}
	return created, nil
}

func (u *AddressUsecase) Update(ctx context.Context, userID string, addressID string, in AddressInput) (model.Address, error) {
	if userID == "" {
		return model.Address{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	a, herr := normalizeAddress(in)
	if herr != nil {
		return model.Address{}, herr
	}

	var updated model.Address
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//所有チェック（他人の住所は404）
		cur, err := r.Addresses().FindByUserAndID(ctx, userID, addressID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return errDB()
		}

		a.ID = cur.ID
		a.UserID = userID
		if err := r.Addresses().Update(ctx, a); err != nil {
			return errDB()
		}

		a.IsDefault = cur.IsDefault
		if in.IsDefault && !cur.IsDefault {
			if err := setDefault(ctx, r, userID, cur.ID); err != nil {
				return err
			}
			a.IsDefault = true
		}
		a.CreatedAt = cur.CreatedAt
		updated = a
		return nil
	})
	if err != nil {
		return model.Address{}, err
	}
	return updated, nil
}

func (u *AddressUsecase) Delete(ctx context.Context, userID string, addressID string) error {
	if userID == "" {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	err := u.addresses.Delete(ctx, userID, addressID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return errDB()
	}
	return nil
}

// デフォルトの切り替え。全部falseにしてから1件だけtrue（同じTx）
func (u *AddressUsecase) SetDefault(ctx context.Context, userID string, addressID string) (model.Address, error) {
	if userID == "" {
		return model.Address{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var out model.Address
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cur, err := r.Addresses().FindByUserAndID(ctx, userID, addressID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return errDB()
		}
		if err := setDefault(ctx, r, userID, cur.ID); err != nil {
			return err
		}
		cur.IsDefault = true
		out = cur
		return nil
	})
	if err != nil {
		return model.Address{}, err
	}
	return out, nil
}

func setDefault(ctx context.Context, r repo.TxRepos, userID, addressID string) error {
	if err := r.Addresses().ClearDefault(ctx, userID); err != nil {
		return errDB()
	}
	err := r.Addresses().MarkDefault(ctx, userID, addressID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return errDB()
	}
	return nil
}

func normalizeAddress(in AddressInput) (model.Address, error) {
	cep, ok := delivery.CleanPostalCode(in.CEP)
	if !ok {
		return model.Address{}, newKindError(http.StatusBadRequest, KindInvalidPostalCode, "cep must have 8 digits")
	}
	state := strings.ToUpper(strings.TrimSpace(in.State))
	if len(state) != 2 {
		return model.Address{}, NewHTTPError(http.StatusBadRequest, "state must have 2 letters")
	}

	a := model.Address{
		Name:         strings.TrimSpace(in.Name),
		CEP:          cep,
		Street:       strings.TrimSpace(in.Street),
		Number:       strings.TrimSpace(in.Number),
		Complement:   strings.TrimSpace(in.Complement),
		Neighborhood: strings.TrimSpace(in.Neighborhood),
		City:         strings.TrimSpace(in.City),
		State:        state,
	}
	if a.Name == "" || a.Street == "" || a.Number == "" || a.Neighborhood == "" || a.City == "" {
		return model.Address{}, NewHTTPError(http.StatusBadRequest, "name, street, number, neighborhood and city are required")
	}
	return a, nil
}
