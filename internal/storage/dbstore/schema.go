package dbstore

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hbnb/hbnb/internal/models"
	"github.com/samber/lo"
)

type columnKind int

const (
	kindID columnKind = iota
	kindText
	kindLongText
	kindInt
	kindFloat
	kindTime
	kindList
)

type column struct {
	name    string
	kind    columnKind
	notNull bool
}

type foreignKey struct {
	column string
	table  string
}

type table struct {
	class       string
	name        string
	columns     []column
	foreignKeys []foreignKey
}

func (t *table) columnNames() []string {
	return lo.Map(t.columns, func(c column, _ int) string { return c.name })
}

//nolint:gochecknoglobals // static schema
var attributeColumns = map[string][]column{
	models.ClassUser: {
		{name: "email", kind: kindText, notNull: true},
		{name: "password", kind: kindText, notNull: true},
		{name: "first_name", kind: kindText, notNull: false},
		{name: "last_name", kind: kindText, notNull: false},
	},
	models.ClassState: {
		{name: "name", kind: kindText, notNull: true},
	},
	models.ClassCity: {
		{name: "state_id", kind: kindID, notNull: true},
		{name: "name", kind: kindText, notNull: true},
	},
	models.ClassAmenity: {
		{name: "name", kind: kindText, notNull: true},
	},
	models.ClassPlace: {
		{name: "city_id", kind: kindID, notNull: true},
		{name: "user_id", kind: kindID, notNull: true},
		{name: "name", kind: kindText, notNull: true},
		{name: "description", kind: kindLongText, notNull: false},
		{name: "number_rooms", kind: kindInt, notNull: true},
		{name: "number_bathrooms", kind: kindInt, notNull: true},
		{name: "max_guest", kind: kindInt, notNull: true},
		{name: "price_by_night", kind: kindInt, notNull: true},
		{name: "latitude", kind: kindFloat, notNull: false},
		{name: "longitude", kind: kindFloat, notNull: false},
		{name: "amenity_ids", kind: kindList, notNull: false},
	},
	models.ClassReview: {
		{name: "place_id", kind: kindID, notNull: true},
		{name: "user_id", kind: kindID, notNull: true},
		{name: "text", kind: kindLongText, notNull: true},
	},
}

//nolint:gochecknoglobals // static schema
var tableNames = map[string]string{
	models.ClassUser:    "users",
	models.ClassState:   "states",
	models.ClassCity:    "cities",
	models.ClassAmenity: "amenities",
	models.ClassPlace:   "places",
	models.ClassReview:  "reviews",
}

// schema holds one table per class, parents before children.
type schema struct {
	tables  []*table
	byClass map[string]*table
}

func newSchema() *schema {
	s := &schema{
		tables:  nil,
		byClass: make(map[string]*table),
	}

	for _, class := range models.Classes() {
		t := &table{
			class: class,
			name:  tableNames[class],
			columns: append([]column{
				{name: "id", kind: kindID, notNull: true},
				{name: "created_at", kind: kindTime, notNull: true},
				{name: "updated_at", kind: kindTime, notNull: true},
			}, attributeColumns[class]...),
			foreignKeys: lo.Map(models.RelationsTo(class), func(r models.Relation, _ int) foreignKey {
				return foreignKey{column: r.ForeignKey, table: tableNames[r.Parent]}
			}),
		}

		s.tables = append(s.tables, t)
		s.byClass[class] = t
	}

	return s
}

func (s *schema) table(class string) (*table, bool) {
	t, ok := s.byClass[class]
	return t, ok
}

func (s *schema) createStatements(d Dialect) []string {
	return lo.Map(s.tables, func(t *table, _ int) string {
		lines := lo.Map(t.columns, func(c column, _ int) string {
			line := d.quote(c.name) + " " + d.columnType(c.kind)
			if c.notNull {
				line += " NOT NULL"
			}
			if c.name == "id" {
				line += " PRIMARY KEY"
			}
			return line
		})

		for _, fk := range t.foreignKeys {
			lines = append(lines, fmt.Sprintf(
				"FOREIGN KEY (%s) REFERENCES %s(%s) ON DELETE CASCADE",
				d.quote(fk.column), d.quote(fk.table), d.quote("id"),
			))
		}

		return fmt.Sprintf(
			"CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)%s",
			d.quote(t.name), strings.Join(lines, ",\n\t"), d.tableOptions(),
		)
	})
}

// dropStatements drops children before the tables they reference.
func (s *schema) dropStatements(d Dialect) []string {
	statements := make([]string, 0, len(s.tables))
	for i := len(s.tables) - 1; i >= 0; i-- {
		statements = append(statements, "DROP TABLE IF EXISTS "+d.quote(s.tables[i].name))
	}

	return statements
}

func (s *schema) selectColumns(d Dialect, t *table, alias string) string {
	return strings.Join(lo.Map(t.columnNames(), func(name string, _ int) string {
		return alias + "." + d.quote(name)
	}), ", ")
}

// values returns the column values of e in table order.
func (t *table) values(e models.Entity) ([]any, error) {
	record := models.ToMap(e)

	values := make([]any, 0, len(t.columns))
	for _, c := range t.columns {
		value := record[c.name]
		if c.kind == kindList {
			encoded, err := json.Marshal(value)
			if err != nil {
				return nil, fmt.Errorf("failed to encode %s.%s: %w", t.name, c.name, err)
			}
			value = string(encoded)
		}
		values = append(values, value)
	}

	return values, nil
}
