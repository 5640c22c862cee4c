package db

import (
	"context"
	"fmt"
	"strings"
)

type Column struct {
	Name          string
	Type          string // INTEGER, REAL, TEXT, BOOLEAN
	PrimaryKey    bool
	AutoIncrement bool
	NotNull       bool
	Unique        bool
	Default       string // SQL expression, used verbatim
	References    *ForeignKey
}

type ForeignKey struct {
	Table  string
	Column string
}

type Table struct {
	Name    string
	Columns []Column
	// Indexes are column lists; each becomes a non-unique index.
	Indexes [][]string
}

func (t Table) CreateSQL() string {
	defs := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		defs = append(defs, c.definition())
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", t.Name, strings.Join(defs, ",\n\t"))
}

func (t Table) IndexSQL() []string {
	out := make([]string, 0, len(t.Indexes))
	for _, cols := range t.Indexes {
		name := fmt.Sprintf("idx_%s_%s", t.Name, strings.Join(cols, "_"))
		out = append(out, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", name, t.Name, strings.Join(cols, ", ")))
	}
	return out
}

// InsertSQL renders a positional insert for cols. It panics on a column the
// table does not declare, since that is a programming error.
func (t Table) InsertSQL(cols ...string) string {
	for _, name := range cols {
		if !t.has(name) {
			panic(fmt.Sprintf("db: table %s has no column %q", t.Name, name))
		}
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", t.Name, strings.Join(cols, ", "), marks)
}

func (t Table) has(name string) bool {
	for _, c := range t.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

func (c Column) definition() string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteString(" ")
	b.WriteString(c.Type)
	if c.PrimaryKey {
		b.WriteString(" PRIMARY KEY")
		if c.AutoIncrement {
			b.WriteString(" AUTOINCREMENT")
		}
	}
	if c.NotNull {
		b.WriteString(" NOT NULL")
	}
	if c.Unique {
		b.WriteString(" UNIQUE")
	}
	if c.Default != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(c.Default)
	}
	if c.References != nil {
		fmt.Fprintf(&b, " REFERENCES %s(%s)", c.References.Table, c.References.Column)
	}
	return b.String()
}

var SensorTable = Table{
	Name: "sensor",
	Columns: []Column{
		{Name: "id", Type: "INTEGER", PrimaryKey: true},
		{Name: "name", Type: "TEXT", NotNull: true, Unique: true},
		{Name: "active", Type: "BOOLEAN", NotNull: true, Default: "1"},
		{Name: "created_date", Type: "TEXT", NotNull: true, Default: "CURRENT_TIMESTAMP"},
	},
}

func measurementTable(name, valueColumn string) Table {
	return Table{
		Name: name,
		Columns: []Column{
			{Name: "id", Type: "INTEGER", PrimaryKey: true, AutoIncrement: true},
			{Name: "sensor_id", Type: "INTEGER", NotNull: true, References: &ForeignKey{Table: SensorTable.Name, Column: "id"}},
			{Name: valueColumn, Type: "REAL", NotNull: true},
			{Name: "date_time", Type: "TEXT", NotNull: true},
			{Name: "created_date", Type: "TEXT", NotNull: true, Default: "CURRENT_TIMESTAMP"},
		},
		// Serves the sensor filter and the three-way join of latest-readings.sql.
		Indexes: [][]string{{"sensor_id", "date_time"}},
	}
}

var (
	TemperatureTable = measurementTable("house_temperature", "temperature")
	PressureTable    = measurementTable("house_pressure", "pressure")
	HumidityTable    = measurementTable("house_humidity", "humidity")
)

// Tables lists every table in creation order; referenced tables come first.
var Tables = []Table{SensorTable, TemperatureTable, PressureTable, HumidityTable}

// EnsureSchema creates any missing tables and indexes. Safe to run on every start.
func EnsureSchema(ctx context.Context, w *Writer) error {
	for _, t := range Tables {
		if _, err := w.Exec(ctx, t.CreateSQL()); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}
		for _, stmt := range t.IndexSQL() {
			if _, err := w.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("create index on %s: %w", t.Name, err)
			}
		}
	}
	return nil
}
