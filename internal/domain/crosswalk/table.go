package crosswalk

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"
	"time"
)

var (
	ErrEmptyTable     = errors.New("crosswalk table is empty")
	ErrMissingColumns = errors.New("crosswalk columns missing")
	ErrMalformedRow   = errors.New("crosswalk row malformed")
	ErrDuplicateKey   = errors.New("duplicate canonical key")
	ErrIDCollision    = errors.New("provider id maps to more than one canonical key")
)

// Meta describes where a table came from.
type Meta struct {
	FetchedAt time.Time
	Source    string
	// ExtraColumns lists ignored columns of the source file.
	ExtraColumns []string
}

// Table is an immutable crosswalk snapshot plus the indexes derived from it.
// Replace a table by building a new one; never mutate the records it holds.
type Table struct {
	meta    Meta
	records []Record
	byKey   map[CanonicalKey]int
	byID    map[Provider]map[string]CanonicalKey

	namesOnce sync.Once
	byFirst   map[string][]int
	byLast    map[string][]int
	byFull    map[string][]int
}

// NewTable validates records and builds the lookup index. It takes
// ownership of records. Validation fails on an empty set, empty or duplicate
// canonical keys, and any native id that maps to two different keys.
func NewTable(records []Record, meta Meta) (*Table, error) {
	if len(records) == 0 {
		return nil, ErrEmptyTable
	}

	t := &Table{
		meta:    meta,
		records: records,
		byKey:   make(map[CanonicalKey]int, len(records)),
		byID:    make(map[Provider]map[string]CanonicalKey, len(Providers)),
	}
	for _, p := range Providers {
		t.byID[p] = make(map[string]CanonicalKey, len(records)/2)
	}

	for i, r := range records {
		if r.Key == "" {
			return nil, fmt.Errorf("%w: row %d has an empty %s", ErrMalformedRow, i+1, ColumnKey)
		}
		if _, dup := t.byKey[r.Key]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateKey, r.Key)
		}
		t.byKey[r.Key] = i

		for scheme, nativeID := range r.IDs {
			if nativeID == "" {
				continue
			}
			p := scheme.Provider()
			if p == "" {
				return nil, fmt.Errorf("%w: row %d has unknown scheme %q", ErrMalformedRow, i+1, scheme)
			}
			if owner, taken := t.byID[p][nativeID]; taken && owner != r.Key {
				return nil, fmt.Errorf("%w: provider=%s id=%s keys=%s,%s", ErrIDCollision, p, nativeID, owner, r.Key)
			}
			t.byID[p][nativeID] = r.Key
		}
	}

	return t, nil
}

func (t *Table) Meta() Meta {
	return t.meta
}

func (t *Table) FetchedAt() time.Time {
	return t.meta.FetchedAt
}

func (t *Table) Source() string {
	return t.meta.Source
}

func (t *Table) Len() int {
	return len(t.records)
}

// Age returns how old the snapshot is at now.
func (t *Table) Age(now time.Time) time.Duration {
	return now.Sub(t.meta.FetchedAt)
}

// All iterates records in file order.
func (t *Table) All() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for _, r := range t.records {
			if !yield(r) {
				return
			}
		}
	}
}

// Lookup maps a native id to its canonical key.
func (t *Table) Lookup(p Provider, nativeID string) (CanonicalKey, bool) {
	ids, ok := t.byID[p]
	if !ok {
		return "", false
	}
	key, ok := ids[strings.TrimSpace(nativeID)]
	return key, ok
}

// ReverseLookup returns the primary native id of key in provider p.
func (t *Table) ReverseLookup(key CanonicalKey, p Provider) (string, bool) {
	r, ok := t.Record(key)
	if !ok {
		return "", false
	}
	return r.PrimaryID(p)
}

// NativeIDs returns every native id of key in provider p.
func (t *Table) NativeIDs(key CanonicalKey, p Provider) []string {
	r, ok := t.Record(key)
	if !ok {
		return nil
	}
	return r.NativeIDs(p)
}

func (t *Table) Record(key CanonicalKey) (Record, bool) {
	i, ok := t.byKey[key]
	if !ok {
		return Record{}, false
	}
	return t.records[i], true
}

// LookupAny finds records holding nativeID in any provider namespace. The
// same string can be a valid id in two providers, e.g. numeric MLBAM and
// FanGraphs ids, so more than one record may match.
func (t *Table) LookupAny(nativeID string) []Record {
	nativeID = strings.TrimSpace(nativeID)
	seen := make(map[CanonicalKey]struct{}, 2)
	var out []Record
	for _, p := range Providers {
		key, ok := t.byID[p][nativeID]
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t.records[t.byKey[key]])
	}
	return out
}

// FindByName matches case-insensitively. A single token matches first or
// last name; several tokens match the whole "first last" name, so both
// "Ronald Acuna Jr." and "J. D. Martinez" resolve.
func (t *Table) FindByName(name string) []Record {
	tokens := strings.Fields(strings.ToLower(name))
	if len(tokens) == 0 {
		return nil
	}
	t.namesOnce.Do(t.indexNames)

	var idx []int
	if len(tokens) == 1 {
		seen := make(map[int]struct{})
		for _, i := range append(append([]int(nil), t.byFirst[tokens[0]]...), t.byLast[tokens[0]]...) {
			if _, dup := seen[i]; dup {
				continue
			}
			seen[i] = struct{}{}
			idx = append(idx, i)
		}
		slices.Sort(idx)
	} else {
		idx = t.byFull[strings.Join(tokens, " ")]
	}

	out := make([]Record, 0, len(idx))
	for _, i := range idx {
		out = append(out, t.records[i])
	}
	return out
}

func (t *Table) indexNames() {
	t.byFirst = make(map[string][]int, len(t.records))
	t.byLast = make(map[string][]int, len(t.records))
	t.byFull = make(map[string][]int, len(t.records))
	for i, r := range t.records {
		if first := normalizeName(r.NameFirst); first != "" {
			t.byFirst[first] = append(t.byFirst[first], i)
		}
		if last := normalizeName(r.NameLast); last != "" {
			t.byLast[last] = append(t.byLast[last], i)
		}
		if full := normalizeName(r.FullName()); full != "" {
			t.byFull[full] = append(t.byFull[full], i)
		}
	}
}

func normalizeName(v string) string {
	return strings.Join(strings.Fields(strings.ToLower(v)), " ")
}
