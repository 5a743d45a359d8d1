package iostore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gnames/gn"
	"github.com/gnames/gnvision/internal/iostore"
	"github.com/gnames/gnvision/pkg/errcode"
	"github.com/gnames/gnvision/pkg/record"
	"github.com/gnames/gnvision/pkg/store"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var taxonCols = []string{
	"id", "ancestry", "rank", "rank_level", "name",
	"observations_count", "iconic_taxon_id",
}

func newMock(t *testing.T) (pgxmock.PgxPoolIface, store.Store) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, iostore.NewPostgres(mock, nil)
}

func TestPostgresTaxaRange(t *testing.T) {
	assert := assert.New(t)
	mock, st := newMock(t)

	mock.ExpectQuery(`WHERE id > \$1 AND id <= \$2`).
		WithArgs(0, 1000).
		WillReturnRows(pgxmock.NewRows(taxonCols).
			AddRow(1, "", "kingdom", 70.0, "Animalia", 500, 1).
			AddRow(2, "1", "species", 10.0, "Aus bus", 60, 1))

	res, err := st.TaxaRange(context.Background(), 0, 1000)
	require.NoError(t, err)
	assert.Len(res, 2)
	assert.Equal(record.TaxonRow{
		ID: 2, Ancestry: "1", Rank: "species", RankLevel: 10, Name: "Aus bus",
		ObservationsCount: 60, IconicTaxonID: 1,
	}, res[1])
	assert.NoError(mock.ExpectationsWereMet())
}

func TestPostgresMaxTaxonID(t *testing.T) {
	mock, st := newMock(t)

	mock.ExpectQuery(`MAX\(id\)`).
		WillReturnRows(pgxmock.NewRows([]string{"max"}).AddRow(4321))

	res, err := st.MaxTaxonID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4321, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresTaxonIDs(t *testing.T) {
	mock, st := newMock(t)

	mock.ExpectQuery(`ancestry LIKE \$3`).
		WithArgs(3, "1/2/3", "1/2/3/%").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(3).AddRow(7))

	res, err := st.TaxonIDs(context.Background(), 3, "1/2/3")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 7}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresObservations(t *testing.T) {
	assert := assert.New(t)
	mock, st := newMock(t)

	lat, lng := 45.5, -73.6
	acc := 30
	date := time.Date(2020, 5, 17, 0, 0, 0, 0, time.UTC)
	cols := []string{
		"id", "lat", "lng", "positional_accuracy", "observed_on",
		"taxon_id", "community_taxon_id",
	}
	mock.ExpectQuery(`o.community_taxon_id = ANY\(\$1\)`).
		WithArgs([]int{3, 7}, 200).
		WillReturnRows(pgxmock.NewRows(cols).
			AddRow(10, &lat, &lng, &acc, date, 3, 3).
			AddRow(11, nil, &lng, nil, nil, 7, 7))

	q := store.ObservationQuery{
		TaxonIDs: []int{3, 7}, Tier: record.Community, Limit: 200,
	}
	res, err := st.Observations(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, res, 2)

	assert.True(res[0].HasCoords)
	assert.Equal(45.5, res[0].Latitude)
	assert.Equal(-73.6, res[0].Longitude)
	require.NotNil(t, res[0].PositionalAccuracy)
	assert.Equal(30, *res[0].PositionalAccuracy)
	assert.Equal(date, res[0].ObservedOn)
	assert.Equal(3, res[0].CommunityTaxonID)

	assert.False(res[1].HasCoords)
	assert.Nil(res[1].PositionalAccuracy)
	assert.True(res[1].ObservedOn.IsZero())
	assert.NoError(mock.ExpectationsWereMet())
}

func TestPostgresUncuratedObservations(t *testing.T) {
	mock, st := newMock(t)

	mock.ExpectQuery(`o.taxon_id = ANY\(\$1\).+community_taxon_id IS NULL`).
		WithArgs([]int{3}, []int{3}).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "lat", "lng", "positional_accuracy", "observed_on",
			"taxon_id", "community_taxon_id",
		}).AddRow(12, nil, nil, nil, "2021-01-02", 3, 0))

	q := store.ObservationQuery{TaxonIDs: []int{3}, Tier: record.Uncurated}
	res, err := st.Observations(context.Background(), q)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, 0, res[0].CommunityTaxonID)
	assert.Equal(t, time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC), res[0].ObservedOn)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFlags(t *testing.T) {
	mock, st := newMock(t)

	mock.ExpectQuery(`FROM flags`).
		WithArgs(record.FlagPhoto, []int{101, 102, 103}).
		WillReturnRows(pgxmock.NewRows([]string{"flaggable_id"}).AddRow(102))

	res, err := st.UnresolvedFlags(
		context.Background(), record.FlagPhoto, []int{101, 102, 103},
	)
	require.NoError(t, err)
	assert.Equal(t, []int{102}, res)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPhotos(t *testing.T) {
	assert := assert.New(t)
	mock, st := newMock(t)

	mock.ExpectQuery(`COALESCE\(position, photo_id\)`).
		WithArgs([]int{10}).
		WillReturnRows(pgxmock.NewRows([]string{"photo_id", "observation_id", "pos"}).
			AddRow(101, 10, 0).
			AddRow(102, 10, 102))
	mock.ExpectQuery(`FROM photos`).
		WithArgs([]int{101, 102}).
		WillReturnRows(pgxmock.NewRows([]string{"id", "medium_url"}).
			AddRow(101, "https://example.org/101.jpg"))

	ops, err := st.ObservationPhotos(context.Background(), []int{10})
	require.NoError(t, err)
	assert.Equal([]record.ObservationPhoto{
		{PhotoID: 101, ObservationID: 10, Position: 0},
		{PhotoID: 102, ObservationID: 10, Position: 102},
	}, ops)

	urls, err := st.PhotoURLs(context.Background(), []int{101, 102})
	require.NoError(t, err)
	assert.Equal(map[int]string{101: "https://example.org/101.jpg"}, urls)
	assert.NoError(mock.ExpectationsWereMet())
}

func TestPostgresEmptyIDs(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	mock, st := newMock(t)

	taxa, err := st.TaxaByIDs(ctx, nil)
	assert.NoError(err)
	assert.Empty(taxa)

	obs, err := st.Observations(ctx, store.ObservationQuery{})
	assert.NoError(err)
	assert.Empty(obs)

	urls, err := st.PhotoURLs(ctx, nil)
	assert.NoError(err)
	assert.Empty(urls)

	assert.NoError(mock.ExpectationsWereMet())
}

func TestPostgresErrors(t *testing.T) {
	tests := []struct {
		msg  string
		rows *pgxmock.Rows
		err  error
		code gn.ErrorCode
	}{
		{
			msg:  "query",
			err:  errors.New("connection reset"),
			code: errcode.DBQueryError,
		},
		{
			msg:  "scan",
			rows: pgxmock.NewRows([]string{"id"}).AddRow("not a number"),
			code: errcode.DBScanError,
		},
	}

	for _, v := range tests {
		t.Run(v.msg, func(t *testing.T) {
			mock, st := newMock(t)
			exp := mock.ExpectQuery(`FROM conservation_statuses`).WithArgs(70)
			if v.err != nil {
				exp.WillReturnError(v.err)
			} else {
				exp.WillReturnRows(v.rows)
			}

			_, err := st.ExtinctTaxonIDs(context.Background())
			require.Error(t, err)
			var gnErr *gn.Error
			require.True(t, errors.As(err, &gnErr))
			assert.Equal(t, v.code, gnErr.Code)
		})
	}
}
