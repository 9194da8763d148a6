package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditSnapshot(t *testing.T) {
	got, err := auditSnapshot(statusAudit{Status: "ready", Forced: true})
	require.NoError(t, err)
	assert.Equal(t, `{"status":"ready","forced":true}`, got)

	_, err = auditSnapshot(make(chan int))
	assert.Error(t, err)
}
