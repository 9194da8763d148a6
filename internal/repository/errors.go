package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// 一意制約違反・条件付き更新の不成立
	ErrConflict = errors.New("conflict")
)
