package crosswalk

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestCSV_RoundTripKeepsLookups(t *testing.T) {
	t.Parallel()

	table := mustTable(t, sampleRecords())

	var buf bytes.Buffer
	if err := WriteCSV(&buf, table); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	records, _, err := ReadCSV(&buf)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	loaded := mustTable(t, records)

	if loaded.Len() != table.Len() {
		t.Fatalf("expected %d rows, got=%d", table.Len(), loaded.Len())
	}
	for r := range table.All() {
		for _, p := range Providers {
			for _, nativeID := range r.NativeIDs(p) {
				if key, ok := loaded.Lookup(p, nativeID); !ok || key != r.Key {
					t.Fatalf("lookup %s/%s after round trip: got=%q", p, nativeID, key)
				}
			}
		}
	}
}

func TestReadCSV_Errors(t *testing.T) {
	t.Parallel()

	if _, _, err := ReadCSV(strings.NewReader("")); !errors.Is(err, ErrEmptyTable) {
		t.Fatalf("expected ErrEmptyTable, got %v", err)
	}
	if _, _, err := ReadCSV(strings.NewReader("key_person,name_first\nabc,Bob\n")); !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("expected ErrMissingColumns, got %v", err)
	}
	bad := strings.Join(Header(), ",") + "\nk1,1,,,,,A,B,\"unterminated\n"
	if _, _, err := ReadCSV(strings.NewReader(bad)); !errors.Is(err, ErrMalformedRow) {
		t.Fatalf("expected ErrMalformedRow, got %v", err)
	}
}
