package statrecord

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/statlink/internal/domain/crosswalk"
)

var ErrMissingColumns = errors.New("required columns missing")

// Column maps provider column names onto a field. Names lists the current
// name first followed by older aliases the provider has used.
type Column struct {
	Field    Field
	Names    []string
	Required bool
}

// Schema describes one provider table.
type Schema struct {
	Provider crosswalk.Provider
	Category Category
	// IDColumns, NameColumns, SeasonColumns and DateColumns are candidate
	// names; the first one present in the header is used.
	IDColumns     []string
	NameColumns   []string
	SeasonColumns []string
	DateColumns   []string
	Columns       []Column
	// Dropped columns are known and discarded without a warning.
	Dropped []string
}

type boundColumn struct {
	field Field
	index int
}

// Binding is a schema resolved against one header row.
type Binding struct {
	schema  Schema
	id      int
	name    int
	season  int
	date    int
	columns []boundColumn
	unknown []string
}

// Bind matches header against s. Header names are compared case
// insensitively with surrounding whitespace removed.
func (s Schema) Bind(header []string) (*Binding, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		key := normalizeColumn(h)
		if _, dup := pos[key]; !dup {
			pos[key] = i
		}
	}
	find := func(names []string) int {
		for _, n := range names {
			if i, ok := pos[normalizeColumn(n)]; ok {
				return i
			}
		}
		return -1
	}

	b := &Binding{
		schema: s,
		id:     find(s.IDColumns),
		name:   find(s.NameColumns),
		season: find(s.SeasonColumns),
		date:   find(s.DateColumns),
	}

	var missing []string
	if b.id < 0 && len(s.IDColumns) > 0 {
		missing = append(missing, s.IDColumns[0])
	}
	used := map[int]struct{}{b.id: {}, b.name: {}, b.season: {}, b.date: {}}
	for _, col := range s.Columns {
		i := find(col.Names)
		if i < 0 {
			if col.Required {
				missing = append(missing, col.Names[0])
			}
			continue
		}
		used[i] = struct{}{}
		b.columns = append(b.columns, boundColumn{field: col.Field, index: i})
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s %s: %s", ErrMissingColumns, s.Provider, s.Category, strings.Join(missing, ","))
	}

	dropped := make(map[string]struct{}, len(s.Dropped))
	for _, d := range s.Dropped {
		dropped[normalizeColumn(d)] = struct{}{}
	}
	for i, h := range header {
		if _, ok := used[i]; ok {
			continue
		}
		if _, ok := dropped[normalizeColumn(h)]; ok {
			continue
		}
		if strings.TrimSpace(h) == "" {
			continue
		}
		b.unknown = append(b.unknown, h)
	}
	return b, nil
}

// Unknown lists header columns the schema does not know.
func (b *Binding) Unknown() []string {
	return b.unknown
}

// HasDate reports whether rows carry a date column.
func (b *Binding) HasDate() bool {
	return b.date >= 0
}

// Decode converts one row. Cells that cannot be parsed are left out of the
// record and counted in bad.
func (b *Binding) Decode(cells []string) (rec Record, bad int) {
	cell := func(i int) string {
		if i < 0 || i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}

	rec = Record{
		Provider:   b.schema.Provider,
		Category:   b.schema.Category,
		NativeID:   cell(b.id),
		PlayerName: NormalizeName(cell(b.name)),
		Stats:      make(map[Field]float64, len(b.columns)),
	}
	if v := cell(b.season); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			rec.Season = n
		} else {
			bad++
		}
	}
	if v := cell(b.date); v != "" {
		if d, err := ParseDate(v); err == nil {
			rec.Date = d
			if rec.Season == 0 {
				rec.Season = d.Year()
			}
		} else {
			bad++
		}
	}

	for _, col := range b.columns {
		v := cell(col.index)
		if isMissing(v) {
			continue
		}
		if col.field.Kind() == KindLabel {
			if rec.Labels == nil {
				rec.Labels = make(map[Field]string, 4)
			}
			rec.Labels[col.field] = v
			continue
		}
		f, err := ParseNumber(v)
		if err != nil {
			bad++
			continue
		}
		rec.Stats[col.field] = f
	}
	return rec, bad
}

// ParseNumber accepts plain numbers plus the "45.2%", "1,234" and ".312"
// forms used by stats sites.
func ParseNumber(v string) (float64, error) {
	v = strings.TrimSpace(v)
	v = strings.TrimSuffix(v, "%")
	v = strings.ReplaceAll(v, ",", "")
	return strconv.ParseFloat(v, 64)
}

// ParseDate accepts a date or a date-time.
func ParseDate(v string) (time.Time, error) {
	if len(v) > len(dateLayout) {
		v = v[:len(dateLayout)]
	}
	return time.ParseInLocation(dateLayout, v, time.UTC)
}

// NormalizeName turns "Last, First" into "First Last" and strips the
// handedness and hall-of-fame markers some tables append.
func NormalizeName(v string) string {
	v = strings.TrimRight(strings.TrimSpace(v), "*#+")
	if last, first, ok := strings.Cut(v, ","); ok {
		v = strings.TrimSpace(first) + " " + strings.TrimSpace(last)
	}
	return strings.Join(strings.Fields(v), " ")
}

func isMissing(v string) bool {
	switch strings.ToLower(v) {
	case "", "null", "na", "nan", "none", "--":
		return true
	default:
		return false
	}
}

func normalizeColumn(v string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(v, "\ufeff")))
}
