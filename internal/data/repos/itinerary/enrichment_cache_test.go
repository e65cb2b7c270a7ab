package itinerary

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/yungbote/itinerary-backend/internal/data/repos/testutil"
	types "github.com/yungbote/itinerary-backend/internal/domain/itinerary"
	"github.com/yungbote/itinerary-backend/internal/pkg/dbctx"
)

func TestEnrichmentCacheRepoUpsert(t *testing.T) {
	tx := testutil.DB(t)
	repo := NewEnrichmentCacheRepo(tx, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	now := time.Now().UTC()
	require.NoError(t, repo.Upsert(dbc, []*types.EnrichmentCacheEntry{
		{PromptKey: "MoMA", Record: datatypes.JSON(`{"name":"MoMA"}`), UpdatedAt: now},
		{PromptKey: "Katz's", Record: datatypes.JSON(`{"name":"Katz's"}`), UpdatedAt: now},
	}))
	require.NoError(t, repo.Upsert(dbc, []*types.EnrichmentCacheEntry{
		{PromptKey: "MoMA", Record: datatypes.JSON(`{"name":"Museum of Modern Art"}`), UpdatedAt: now},
	}))
	require.NoError(t, repo.Upsert(dbc, nil))

	got, err := repo.GetByKeys(dbc, []string{"MoMA", "missing"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.JSONEq(t, `{"name":"Museum of Modern Art"}`, string(got[0].Record))

	got, err = repo.GetByKeys(dbc, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEnrichmentCacheRepoManyKeys(t *testing.T) {
	tx := testutil.DB(t)
	repo := NewEnrichmentCacheRepo(tx, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	var entries []*types.EnrichmentCacheEntry
	var keys []string
	for i := 0; i < 1200; i++ {
		k := fmt.Sprintf("place %d", i)
		keys = append(keys, k)
		entries = append(entries, &types.EnrichmentCacheEntry{PromptKey: k, Record: datatypes.JSON(`{}`), UpdatedAt: time.Now().UTC()})
	}
	require.NoError(t, repo.Upsert(dbc, entries))
	got, err := repo.GetByKeys(dbc, keys)
	require.NoError(t, err)
	assert.Len(t, got, 1200)
}
