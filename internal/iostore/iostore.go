// Package iostore reads the observation database. It implements
// store.Store for PostgreSQL through pgx and for SQLite snapshots through
// database/sql with a pure Go driver. Both share the queries in dialect.go.
package iostore

import (
	"context"
	"log/slog"
	"time"

	"github.com/gnames/gnvision/internal/iodb"
	"github.com/gnames/gnvision/pkg/config"
	"github.com/gnames/gnvision/pkg/record"
	"github.com/gnames/gnvision/pkg/store"
)

// rows is the part of pgx.Rows used by the store.
type rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// conn runs queries of one database.
type conn interface {
	query(ctx context.Context, sql string, args ...any) (rows, error)
	close() error
}

type dbStore struct {
	c conn
	d dialect
}

// Open returns a SQLite store if the configuration names a snapshot,
// otherwise it connects to PostgreSQL.
func Open(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Export.SQLitePath != "" {
		slog.Info("Reading SQLite snapshot", "path", cfg.Export.SQLitePath)
		return NewSQLite(cfg.Export.SQLitePath)
	}

	op := iodb.NewPgxOperator()
	if err := op.Connect(ctx, &cfg.Database); err != nil {
		return nil, err
	}
	slog.Info("Connected to PostgreSQL",
		"host", cfg.Database.Host,
		"database", cfg.Database.Database,
	)
	return NewPostgres(op.Pool(), func() { _ = op.Close() }), nil
}

func (s *dbStore) Close() error {
	return s.c.close()
}

func (s *dbStore) MaxTaxonID(ctx context.Context) (int, error) {
	ids, err := s.ints(ctx, "max taxon id", maxTaxonIDSQL())
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	return ids[0], nil
}

func (s *dbStore) TaxaRange(
	ctx context.Context,
	start, end int,
) ([]record.TaxonRow, error) {
	return s.taxa(ctx, taxaRangeSQL(s.d), start, end)
}

func (s *dbStore) TaxaByIDs(
	ctx context.Context,
	ids []int,
) ([]record.TaxonRow, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	list, err := s.d.list(ids)
	if err != nil {
		return nil, QueryError("taxa", err)
	}
	return s.taxa(ctx, taxaByIDsSQL(s.d), list)
}

func (s *dbStore) ExtinctTaxonIDs(ctx context.Context) ([]int, error) {
	return s.ints(ctx, "conservation statuses", extinctSQL(s.d), extinctArgs()...)
}

func (s *dbStore) TaxonIDs(
	ctx context.Context,
	id int,
	ancestry string,
) ([]int, error) {
	return s.ints(ctx, "clade taxa", cladeSQL(s.d), cladeArgs(id, ancestry)...)
}

func (s *dbStore) Observations(
	ctx context.Context,
	q store.ObservationQuery,
) ([]record.Observation, error) {
	if len(q.TaxonIDs) == 0 {
		return nil, nil
	}
	args, err := observationsArgs(s.d, q)
	if err != nil {
		return nil, QueryError("observations", err)
	}

	rs, err := s.c.query(ctx, observationsSQL(s.d, q), args...)
	if err != nil {
		return nil, QueryError("observations", err)
	}
	defer rs.Close()

	var res []record.Observation
	for rs.Next() {
		var o record.Observation
		var lat, lng *float64
		var acc *int
		var date any
		err = rs.Scan(
			&o.ID, &lat, &lng, &acc, &date, &o.TaxonID, &o.CommunityTaxonID,
		)
		if err != nil {
			return nil, ScanError("observations", err)
		}
		if lat != nil && lng != nil {
			o.Latitude, o.Longitude, o.HasCoords = *lat, *lng, true
		}
		o.PositionalAccuracy = acc
		o.ObservedOn = toDate(date)
		res = append(res, o)
	}
	if err = rs.Err(); err != nil {
		return nil, ScanError("observations", err)
	}
	return res, nil
}

func (s *dbStore) QualityMetrics(
	ctx context.Context,
	obsIDs []int,
) ([]record.QualityVote, error) {
	if len(obsIDs) == 0 {
		return nil, nil
	}
	list, err := s.d.list(obsIDs)
	if err != nil {
		return nil, QueryError("quality metrics", err)
	}

	rs, err := s.c.query(ctx, qualityMetricsSQL(s.d), list)
	if err != nil {
		return nil, QueryError("quality metrics", err)
	}
	defer rs.Close()

	var res []record.QualityVote
	for rs.Next() {
		var v record.QualityVote
		if err = rs.Scan(&v.ObservationID, &v.Metric, &v.Agree); err != nil {
			return nil, ScanError("quality metrics", err)
		}
		res = append(res, v)
	}
	if err = rs.Err(); err != nil {
		return nil, ScanError("quality metrics", err)
	}
	return res, nil
}

func (s *dbStore) UnresolvedFlags(
	ctx context.Context,
	flaggable string,
	ids []int,
) ([]int, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	list, err := s.d.list(ids)
	if err != nil {
		return nil, QueryError("flags", err)
	}
	return s.ints(ctx, "flags", flagsSQL(s.d), flaggable, list)
}

func (s *dbStore) ObservationPhotos(
	ctx context.Context,
	obsIDs []int,
) ([]record.ObservationPhoto, error) {
	if len(obsIDs) == 0 {
		return nil, nil
	}
	list, err := s.d.list(obsIDs)
	if err != nil {
		return nil, QueryError("observation photos", err)
	}

	rs, err := s.c.query(ctx, observationPhotosSQL(s.d), list)
	if err != nil {
		return nil, QueryError("observation photos", err)
	}
	defer rs.Close()

	var res []record.ObservationPhoto
	for rs.Next() {
		var p record.ObservationPhoto
		if err = rs.Scan(&p.PhotoID, &p.ObservationID, &p.Position); err != nil {
			return nil, ScanError("observation photos", err)
		}
		res = append(res, p)
	}
	if err = rs.Err(); err != nil {
		return nil, ScanError("observation photos", err)
	}
	return res, nil
}

func (s *dbStore) PhotoURLs(
	ctx context.Context,
	photoIDs []int,
) (map[int]string, error) {
	res := make(map[int]string)
	if len(photoIDs) == 0 {
		return res, nil
	}
	list, err := s.d.list(photoIDs)
	if err != nil {
		return nil, QueryError("photos", err)
	}

	rs, err := s.c.query(ctx, photoURLsSQL(s.d), list)
	if err != nil {
		return nil, QueryError("photos", err)
	}
	defer rs.Close()

	for rs.Next() {
		var id int
		var url string
		if err = rs.Scan(&id, &url); err != nil {
			return nil, ScanError("photos", err)
		}
		res[id] = url
	}
	if err = rs.Err(); err != nil {
		return nil, ScanError("photos", err)
	}
	return res, nil
}

func (s *dbStore) taxa(
	ctx context.Context,
	sql string,
	args ...any,
) ([]record.TaxonRow, error) {
	rs, err := s.c.query(ctx, sql, args...)
	if err != nil {
		return nil, QueryError("taxa", err)
	}
	defer rs.Close()

	var res []record.TaxonRow
	for rs.Next() {
		var t record.TaxonRow
		err = rs.Scan(
			&t.ID, &t.Ancestry, &t.Rank, &t.RankLevel, &t.Name,
			&t.ObservationsCount, &t.IconicTaxonID,
		)
		if err != nil {
			return nil, ScanError("taxa", err)
		}
		res = append(res, t)
	}
	if err = rs.Err(); err != nil {
		return nil, ScanError("taxa", err)
	}
	return res, nil
}

// ints reads a single integer column.
func (s *dbStore) ints(
	ctx context.Context,
	what, sql string,
	args ...any,
) ([]int, error) {
	rs, err := s.c.query(ctx, sql, args...)
	if err != nil {
		return nil, QueryError(what, err)
	}
	defer rs.Close()

	var res []int
	for rs.Next() {
		var id int
		if err = rs.Scan(&id); err != nil {
			return nil, ScanError(what, err)
		}
		res = append(res, id)
	}
	if err = rs.Err(); err != nil {
		return nil, ScanError(what, err)
	}
	return res, nil
}

// toDate converts DATE values of both drivers, unknown values become zero
// time.
func toDate(v any) time.Time {
	switch d := v.(type) {
	case time.Time:
		return d
	case string:
		return parseDate(d)
	case []byte:
		return parseDate(string(d))
	default:
		return time.Time{}
	}
}

func parseDate(s string) time.Time {
	if len(s) > len(time.DateOnly) {
		s = s[:len(time.DateOnly)]
	}
	res, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}
	}
	return res
}
