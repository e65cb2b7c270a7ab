package itinerary

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/yungbote/itinerary-backend/internal/data/repos/testutil"
	types "github.com/yungbote/itinerary-backend/internal/domain/itinerary"
	"github.com/yungbote/itinerary-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/itinerary-backend/internal/pkg/errors"
)

func TestTripDocumentRepoSaveAndGet(t *testing.T) {
	tx := testutil.DB(t)
	repo := NewTripDocumentRepo(tx, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	got, err := repo.GetByTripKey(dbc, "nyc")
	require.NoError(t, err)
	assert.Nil(t, got)

	row := &types.TripDocument{TripKey: "nyc", Document: datatypes.JSON(`{"days":[]}`), Outline: "# Notes\n- a\n"}
	saved, err := repo.Save(dbc, row, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, saved.Version)

	row.Outline = "# Notes\n- b\n"
	saved, err = repo.Save(dbc, row, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Version)

	got, err = repo.GetByTripKey(dbc, "nyc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Version)
	assert.Equal(t, "# Notes\n- b\n", got.Outline)
	assert.JSONEq(t, `{"days":[]}`, string(got.Document))
}

func TestTripDocumentRepoVersionConflict(t *testing.T) {
	tx := testutil.DB(t)
	repo := NewTripDocumentRepo(tx, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	row := &types.TripDocument{TripKey: "nyc", Document: datatypes.JSON(`{}`)}
	_, err := repo.Save(dbc, row, 3)
	assert.True(t, errors.Is(err, pkgerrors.ErrConflict))

	_, err = repo.Save(dbc, row, 0)
	require.NoError(t, err)
	_, err = repo.Save(dbc, row, 0)
	assert.True(t, errors.Is(err, pkgerrors.ErrConflict))

	_, err = repo.Save(dbc, &types.TripDocument{}, 0)
	assert.True(t, errors.Is(err, pkgerrors.ErrInvalidArgument))
}
