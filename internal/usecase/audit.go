package usecase

import (
	"encoding/json"
	"fmt"
)

// 監査ログに保存するJSON文字列を作る
func auditSnapshot(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("audit snapshot: %w", err)
	}
	return string(b), nil
}
