package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-results-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest map[string]string
	assert.ErrorIs(t, repo.Get(ctx, "results:student:24-1001", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "results:student:24-1001", map[string]string{"a": "b"}, time.Minute))

	removed, err := repo.DeleteByPattern(ctx, "results:*")
	require.NoError(t, err)
	assert.Zero(t, removed)

	generation, err := repo.Incr(ctx, "results-generation")
	require.NoError(t, err)
	assert.Zero(t, generation)
	assert.NoError(t, repo.Ping(ctx))
	assert.NoError(t, repo.Close())
}
