package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/jury-scheduler-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest map[string]any
	assert.ErrorIs(t, repo.Get(ctx, "jury:summary:dept-1", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "jury:summary:dept-1", map[string]int{"total": 1}, time.Minute))

	ok, err := repo.AcquireLock(ctx, "jury:lock:dept-1", "run-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, repo.ReleaseLock(ctx, "jury:lock:dept-1", "run-1"))
}
