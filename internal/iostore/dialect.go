package iostore

import (
	"fmt"
	"strings"

	"github.com/gnames/gnfmt"
	"github.com/gnames/gnvision/pkg/record"
	"github.com/gnames/gnvision/pkg/schema"
	"github.com/gnames/gnvision/pkg/store"
)

// dialect renders parameters of the two supported databases.
type dialect interface {
	// param returns the placeholder of the n-th parameter, 1-based.
	param(n int) string
	// in returns a membership test of a column in a list parameter.
	in(col string, n int) string
	// list converts ids to a list parameter.
	list(ids []int) (any, error)
}

type pgDialect struct{}

func (pgDialect) param(n int) string {
	return fmt.Sprintf("$%d", n)
}

func (pgDialect) in(col string, n int) string {
	return fmt.Sprintf("%s = ANY($%d)", col, n)
}

func (pgDialect) list(ids []int) (any, error) {
	return ids, nil
}

// sqliteDialect passes lists as JSON arrays, so the number of ids is not
// limited by the maximum number of SQLite variables.
type sqliteDialect struct{}

func (sqliteDialect) param(int) string {
	return "?"
}

func (sqliteDialect) in(col string, _ int) string {
	return col + " IN (SELECT value FROM json_each(?))"
}

func (sqliteDialect) list(ids []int) (any, error) {
	if ids == nil {
		ids = []int{}
	}
	res, err := gnfmt.GNjson{}.Encode(ids)
	if err != nil {
		return nil, err
	}
	return string(res), nil
}

const taxonColumns = `id, COALESCE(ancestry, ''), COALESCE(rank, ''),
	COALESCE(rank_level, 0), COALESCE(name, ''), COALESCE(observations_count, 0),
	COALESCE(iconic_taxon_id, 0)`

func maxTaxonIDSQL() string {
	return "SELECT COALESCE(MAX(id), 0) FROM taxa"
}

func taxaRangeSQL(d dialect) string {
	return fmt.Sprintf(`
SELECT %s
  FROM taxa
  WHERE id > %s AND id <= %s
    AND is_active
    AND observations_count >= 50
    AND rank_level >= 10
    AND rank NOT IN ('hybrid', 'genushybrid')
  ORDER BY id`, taxonColumns, d.param(1), d.param(2))
}

func taxaByIDsSQL(d dialect) string {
	return fmt.Sprintf(`
SELECT %s
  FROM taxa
  WHERE %s
  ORDER BY id`, taxonColumns, d.in("id", 1))
}

func extinctSQL(d dialect) string {
	return fmt.Sprintf(`
SELECT DISTINCT taxon_id
  FROM conservation_statuses
  WHERE iucn = %s AND place_id IS NULL
  ORDER BY taxon_id`, d.param(1))
}

func extinctArgs() []any {
	return []any{schema.IUCNExtinct}
}

func cladeSQL(d dialect) string {
	return fmt.Sprintf(`
SELECT id
  FROM taxa
  WHERE is_active
    AND (id = %s OR ancestry = %s OR ancestry LIKE %s)
  ORDER BY id`, d.param(1), d.param(2), d.param(3))
}

func cladeArgs(id int, ancestry string) []any {
	return []any{id, ancestry, ancestry + "/%"}
}

func observationsSQL(d dialect, q store.ObservationQuery) string {
	var cond string
	switch q.Tier {
	case record.Community:
		cond = d.in("o.community_taxon_id", 1)
	default:
		cond = fmt.Sprintf(
			"%s AND (o.community_taxon_id IS NULL OR NOT (%s))",
			d.in("o.taxon_id", 1), d.in("o.community_taxon_id", 2),
		)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `
SELECT o.id,
    COALESCE(o.private_latitude, o.latitude),
    COALESCE(o.private_longitude, o.longitude),
    o.positional_accuracy, o.observed_on,
    COALESCE(o.taxon_id, 0), COALESCE(o.community_taxon_id, 0)
  FROM observations o
  WHERE o.observation_photos_count > 0
    AND %s
  ORDER BY o.id`, cond)
	if q.Limit > 0 {
		n := 2
		if q.Tier != record.Community {
			n = 3
		}
		fmt.Fprintf(&sb, "\n  LIMIT %s", d.param(n))
	}
	return sb.String()
}

func observationsArgs(d dialect, q store.ObservationQuery) ([]any, error) {
	ids, err := d.list(q.TaxonIDs)
	if err != nil {
		return nil, err
	}
	res := []any{ids}
	if q.Tier != record.Community {
		res = append(res, ids)
	}
	if q.Limit > 0 {
		res = append(res, q.Limit)
	}
	return res, nil
}

func qualityMetricsSQL(d dialect) string {
	return fmt.Sprintf(`
SELECT observation_id, metric, agree
  FROM quality_metrics
  WHERE %s
  ORDER BY id`, d.in("observation_id", 1))
}

func flagsSQL(d dialect) string {
	return fmt.Sprintf(`
SELECT DISTINCT flaggable_id
  FROM flags
  WHERE flaggable_type = %s
    AND resolved = false
    AND %s
  ORDER BY flaggable_id`, d.param(1), d.in("flaggable_id", 2))
}

func observationPhotosSQL(d dialect) string {
	return fmt.Sprintf(`
SELECT photo_id, observation_id, COALESCE(position, photo_id) AS pos
  FROM observation_photos
  WHERE %s
  ORDER BY observation_id, pos, photo_id`, d.in("observation_id", 1))
}

func photoURLsSQL(d dialect) string {
	return fmt.Sprintf(`
SELECT id, medium_url
  FROM photos
  WHERE %s
    AND medium_url IS NOT NULL AND medium_url <> ''`, d.in("id", 1))
}
