package crosswalk

import (
	"errors"
	"testing"
	"time"
)

func sampleRecords() []Record {
	return []Record{
		{
			Key: "K1", NameFirst: "Mike", NameLast: "Trout", MLBFirst: 2011, MLBLast: 2024,
			IDs: map[Scheme]string{SchemeMLBAM: "545361", SchemeFanGraphs: "10155", SchemeBRef: "troutmi01", SchemeRetro: "troum001"},
		},
		{
			Key: "K2", NameFirst: "Shohei", NameLast: "Ohtani", MLBFirst: 2018, MLBLast: 2024,
			IDs: map[Scheme]string{SchemeMLBAM: "660271", SchemeFanGraphs: "19755", SchemeBRef: "ohtansh01", SchemeBRefMinors: "ohtani000sho"},
		},
		{
			Key: "K3", NameFirst: "Prospect", NameLast: "Trout",
			IDs: map[Scheme]string{SchemeBRefMinors: "trout-001pro", SchemeFanGraphs: "sa3011"},
		},
	}
}

func mustTable(t *testing.T, records []Record) *Table {
	t.Helper()
	table, err := NewTable(records, Meta{FetchedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Source: "test"})
	if err != nil {
		t.Fatalf("new table: %v", err)
	}
	return table
}

func TestTable_LookupAndReverseAreInverse(t *testing.T) {
	t.Parallel()

	table := mustTable(t, sampleRecords())
	for r := range table.All() {
		for _, p := range Providers {
			for _, nativeID := range r.NativeIDs(p) {
				key, ok := table.Lookup(p, nativeID)
				if !ok || key != r.Key {
					t.Fatalf("lookup %s/%s: got=%q ok=%v want=%q", p, nativeID, key, ok, r.Key)
				}
			}
			if primary, ok := table.ReverseLookup(r.Key, p); ok {
				key, found := table.Lookup(p, primary)
				if !found || key != r.Key {
					t.Fatalf("reverse then lookup %s/%s: got=%q", p, r.Key, key)
				}
			}
		}
	}
}

func TestTable_Lookup(t *testing.T) {
	t.Parallel()

	table := mustTable(t, sampleRecords())

	if key, ok := table.Lookup(ProviderStatcast, " 545361 "); !ok || key != "K1" {
		t.Fatalf("expected K1, got=%q ok=%v", key, ok)
	}
	if key, ok := table.Lookup(ProviderBRef, "ohtani000sho"); !ok || key != "K2" {
		t.Fatalf("expected minors id to resolve to K2, got=%q ok=%v", key, ok)
	}
	if _, ok := table.Lookup(ProviderFanGraphs, "zzz"); ok {
		t.Fatalf("expected unknown id to miss")
	}
	if _, ok := table.Lookup(Provider("espn"), "545361"); ok {
		t.Fatalf("expected unknown provider to miss")
	}
}

func TestTable_ReverseLookup(t *testing.T) {
	t.Parallel()

	table := mustTable(t, sampleRecords())

	if id, ok := table.ReverseLookup("K2", ProviderBRef); !ok || id != "ohtansh01" {
		t.Fatalf("expected major league bref id, got=%q ok=%v", id, ok)
	}
	if id, ok := table.ReverseLookup("K3", ProviderBRef); !ok || id != "trout-001pro" {
		t.Fatalf("expected minors fallback, got=%q ok=%v", id, ok)
	}
	if _, ok := table.ReverseLookup("K3", ProviderStatcast); ok {
		t.Fatalf("expected K3 to have no statcast id")
	}
	if _, ok := table.ReverseLookup("missing", ProviderStatcast); ok {
		t.Fatalf("expected unknown key to miss")
	}
	if got := table.NativeIDs("K2", ProviderBRef); len(got) != 2 {
		t.Fatalf("expected two bref ids, got=%v", got)
	}
}

func TestNewTable_RejectsInvalidSnapshots(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		records []Record
		want    error
	}{
		{name: "empty", records: nil, want: ErrEmptyTable},
		{
			name:    "empty key",
			records: []Record{{Key: "", IDs: map[Scheme]string{SchemeMLBAM: "1"}}},
			want:    ErrMalformedRow,
		},
		{
			name: "duplicate key",
			records: []Record{
				{Key: "K1", IDs: map[Scheme]string{SchemeMLBAM: "1"}},
				{Key: "K1", IDs: map[Scheme]string{SchemeMLBAM: "2"}},
			},
			want: ErrDuplicateKey,
		},
		{
			name: "id collision",
			records: []Record{
				{Key: "K1", IDs: map[Scheme]string{SchemeFanGraphs: "10155"}},
				{Key: "K2", IDs: map[Scheme]string{SchemeFanGraphs: "10155"}},
			},
			want: ErrIDCollision,
		},
		{
			name: "collision across bref schemes",
			records: []Record{
				{Key: "K1", IDs: map[Scheme]string{SchemeBRef: "abc"}},
				{Key: "K2", IDs: map[Scheme]string{SchemeBRefMinors: "abc"}},
			},
			want: ErrIDCollision,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewTable(tc.records, Meta{})
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestNewTable_SameIDInDifferentProvidersIsAllowed(t *testing.T) {
	t.Parallel()

	table := mustTable(t, []Record{
		{Key: "K1", IDs: map[Scheme]string{SchemeMLBAM: "1000"}},
		{Key: "K2", IDs: map[Scheme]string{SchemeFanGraphs: "1000"}},
	})

	got := table.LookupAny("1000")
	if len(got) != 2 {
		t.Fatalf("expected two matches, got=%d", len(got))
	}
	if got[0].Key != "K1" || got[1].Key != "K2" {
		t.Fatalf("unexpected order: %s,%s", got[0].Key, got[1].Key)
	}
}

func TestTable_FindByName(t *testing.T) {
	t.Parallel()

	table := mustTable(t, sampleRecords())

	got := table.FindByName("trout")
	if len(got) != 2 || got[0].Key != "K1" || got[1].Key != "K3" {
		t.Fatalf("unexpected single token matches: %+v", got)
	}
	got = table.FindByName("  MIKE   trout ")
	if len(got) != 1 || got[0].Key != "K1" {
		t.Fatalf("unexpected full name matches: %+v", got)
	}
	if got := table.FindByName("nobody here"); len(got) != 0 {
		t.Fatalf("expected no match, got=%d", len(got))
	}
	if got := table.FindByName("   "); got != nil {
		t.Fatalf("expected nil for blank name")
	}

	table = mustTable(t, append(sampleRecords(),
		Record{Key: "K4", NameFirst: "J. D.", NameLast: "Martinez", MLBFirst: 2011, MLBLast: 2024,
			IDs: map[Scheme]string{SchemeMLBAM: "502110", SchemeBRef: "martijd02"}},
		Record{Key: "K5", NameFirst: "Ronald", NameLast: "Acuna Jr.", MLBFirst: 2018, MLBLast: 2024,
			IDs: map[Scheme]string{SchemeMLBAM: "660670"}},
	))
	got = table.FindByName("j. d.  martinez")
	if len(got) != 1 || got[0].Key != "K4" {
		t.Fatalf("expected multi-token first name to match, got=%+v", got)
	}
	got = table.FindByName("Ronald Acuna Jr.")
	if len(got) != 1 || got[0].Key != "K5" {
		t.Fatalf("expected multi-token last name to match, got=%+v", got)
	}
	got = table.FindByName("martinez")
	if len(got) != 1 || got[0].Key != "K4" {
		t.Fatalf("expected last name alone to match, got=%+v", got)
	}
	if got := table.FindByName("d. martinez"); len(got) != 0 {
		t.Fatalf("expected partial first name to miss, got=%+v", got)
	}
}

func TestTable_Age(t *testing.T) {
	t.Parallel()

	table := mustTable(t, sampleRecords())
	now := table.FetchedAt().Add(36 * time.Hour)
	if got := table.Age(now); got != 36*time.Hour {
		t.Fatalf("unexpected age: %s", got)
	}
}
