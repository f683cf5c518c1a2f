package crosswalk

import (
	"fmt"
	"strconv"
	"strings"
)

const bom = "\ufeff"

// RequiredColumns must be present in every persisted or upstream snapshot.
var RequiredColumns = []string{
	ColumnKey,
	string(SchemeMLBAM),
	string(SchemeRetro),
	string(SchemeBRef),
	string(SchemeBRefMinors),
	string(SchemeFanGraphs),
	ColumnNameFirst,
	ColumnNameLast,
	ColumnPlayedFirst,
	ColumnPlayedLast,
}

// Header is the column order used when writing a snapshot.
func Header() []string {
	return append([]string(nil), RequiredColumns...)
}

// Layout maps a snapshot header to column positions. Columns outside
// RequiredColumns are tolerated and ignored so newer upstream files remain
// readable.
type Layout struct {
	index map[string]int
	extra []string
}

func NewLayout(header []string) (Layout, error) {
	l := Layout{index: make(map[string]int, len(header))}
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, bom))
		if _, dup := l.index[name]; dup {
			return Layout{}, fmt.Errorf("%w: duplicate column %q", ErrMalformedRow, name)
		}
		l.index[name] = i
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := l.index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return Layout{}, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ","))
	}

	required := make(map[string]struct{}, len(RequiredColumns))
	for _, col := range RequiredColumns {
		required[col] = struct{}{}
	}
	for _, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, bom))
		if _, ok := required[name]; !ok {
			l.extra = append(l.extra, name)
		}
	}

	return l, nil
}

// Extra lists header columns that were ignored.
func (l Layout) Extra() []string {
	return l.extra
}

// Decode converts one row. line is used in error messages only.
func (l Layout) Decode(row []string, line int) (Record, error) {
	cell := func(col string) string {
		i := l.index[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	r := Record{
		Key:       CanonicalKey(cell(ColumnKey)),
		NameFirst: cell(ColumnNameFirst),
		NameLast:  cell(ColumnNameLast),
		IDs:       make(map[Scheme]string, len(Schemes)),
	}
	if r.Key == "" {
		return Record{}, fmt.Errorf("%w: line %d has an empty %s", ErrMalformedRow, line, ColumnKey)
	}

	var err error
	if r.MLBFirst, err = parseSeason(cell(ColumnPlayedFirst)); err != nil {
		return Record{}, fmt.Errorf("%w: line %d %s: %v", ErrMalformedRow, line, ColumnPlayedFirst, err)
	}
	if r.MLBLast, err = parseSeason(cell(ColumnPlayedLast)); err != nil {
		return Record{}, fmt.Errorf("%w: line %d %s: %v", ErrMalformedRow, line, ColumnPlayedLast, err)
	}

	for _, s := range Schemes {
		if v := cell(string(s)); v != "" {
			r.IDs[s] = v
		}
	}
	return r, nil
}

// Encode writes r in Header order.
func Encode(r Record) []string {
	return []string{
		string(r.Key),
		r.IDs[SchemeMLBAM],
		r.IDs[SchemeRetro],
		r.IDs[SchemeBRef],
		r.IDs[SchemeBRefMinors],
		r.IDs[SchemeFanGraphs],
		r.NameFirst,
		r.NameLast,
		formatSeason(r.MLBFirst),
		formatSeason(r.MLBLast),
	}
}

// parseSeason accepts "", "2019" and the "2019.0" form pandas-written files use.
func parseSeason(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	v = strings.TrimSuffix(v, ".0")
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid season %q", v)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid season %q", v)
	}
	return n, nil
}

func formatSeason(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}
