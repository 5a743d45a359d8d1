package schema

import (
	"fmt"
	"reflect"
	"strings"
)

// generateDDL creates a CREATE TABLE statement from struct tags.
func generateDDL(model any, tableName string) string {
	v := reflect.ValueOf(model)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	t := v.Type()

	var columns []string

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		dbTag := field.Tag.Get("db")
		ddlTag := field.Tag.Get("ddl")

		if dbTag != "" && ddlTag != "" {
			columns = append(columns, fmt.Sprintf("    %s %s", dbTag, ddlTag))
		}
	}

	ddl := fmt.Sprintf("CREATE TABLE %s (\n%s\n);",
		tableName,
		strings.Join(columns, ",\n"))

	return ddl
}

// Generators returns DDL generators of all tables.
func Generators() []DDLGenerator {
	return []DDLGenerator{
		Taxon{},
		Observation{},
		ObservationPhoto{},
		Photo{},
		QualityMetric{},
		Flag{},
		ConservationStatus{},
	}
}

// DDL returns CREATE TABLE and CREATE INDEX statements of all tables.
func DDL() []string {
	var res []string
	for _, g := range Generators() {
		res = append(res, g.TableDDL())
		res = append(res, g.IndexDDL()...)
	}
	return res
}

// Taxon DDL methods
func (t Taxon) TableDDL() string {
	return generateDDL(t, "taxa")
}

func (t Taxon) IndexDDL() []string {
	return []string{
		"CREATE INDEX idx_taxa_ancestry ON taxa(ancestry);",
	}
}

func (t Taxon) TableName() string {
	return "taxa"
}

// Observation DDL methods
func (o Observation) TableDDL() string {
	return generateDDL(o, "observations")
}

func (o Observation) IndexDDL() []string {
	return []string{
		"CREATE INDEX idx_observations_taxon ON observations(taxon_id);",
		"CREATE INDEX idx_observations_community_taxon ON observations(community_taxon_id);",
	}
}

func (o Observation) TableName() string {
	return "observations"
}

// ObservationPhoto DDL methods
func (op ObservationPhoto) TableDDL() string {
	return generateDDL(op, "observation_photos")
}

func (op ObservationPhoto) IndexDDL() []string {
	return []string{
		"CREATE INDEX idx_observation_photos_observation ON observation_photos(observation_id);",
	}
}

func (op ObservationPhoto) TableName() string {
	return "observation_photos"
}

// Photo DDL methods
func (p Photo) TableDDL() string {
	return generateDDL(p, "photos")
}

func (p Photo) IndexDDL() []string {
	return []string{}
}

func (p Photo) TableName() string {
	return "photos"
}

// QualityMetric DDL methods
func (qm QualityMetric) TableDDL() string {
	return generateDDL(qm, "quality_metrics")
}

func (qm QualityMetric) IndexDDL() []string {
	return []string{
		"CREATE INDEX idx_quality_metrics_observation ON quality_metrics(observation_id);",
	}
}

func (qm QualityMetric) TableName() string {
	return "quality_metrics"
}

// Flag DDL methods
func (f Flag) TableDDL() string {
	return generateDDL(f, "flags")
}

func (f Flag) IndexDDL() []string {
	return []string{
		"CREATE INDEX idx_flags_flaggable ON flags(flaggable_type, flaggable_id);",
	}
}

func (f Flag) TableName() string {
	return "flags"
}

// ConservationStatus DDL methods
func (cs ConservationStatus) TableDDL() string {
	return generateDDL(cs, "conservation_statuses")
}

func (cs ConservationStatus) IndexDDL() []string {
	return []string{}
}

func (cs ConservationStatus) TableName() string {
	return "conservation_statuses"
}
