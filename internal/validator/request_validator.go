package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"cupcake/internal/domain/delivery"

	"github.com/go-playground/validator/v10"
)

// RequestValidator は echo.Validator の実装。
// 標準タグに加えて notblank と cep を使える。
type RequestValidator struct {
	v *validator.Validate
}

func New() *RequestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	//エラーのフィールド名はjsonタグに合わせる
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	//"58000-000" / "58000000"
	_ = v.RegisterValidation("cep", func(fl validator.FieldLevel) bool {
		_, ok := delivery.CleanPostalCode(fl.Field().String())
		return ok
	})
	return &RequestValidator{v: v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	err := rv.v.Struct(i)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	// 最初の1件だけ返す
	fe := verrs[0]
	return &FieldError{Field: fe.Field(), Tag: fe.Tag()}
}

type FieldError struct {
	Field string
	Tag   string
}

func (e *FieldError) Error() string {
	switch e.Tag {
	case "required", "notblank":
		return fmt.Sprintf("%s is required", e.Field)
	case "cep":
		return fmt.Sprintf("%s must have 8 digits", e.Field)
	}
	return fmt.Sprintf("%s is invalid", e.Field)
}
