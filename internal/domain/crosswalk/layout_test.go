package crosswalk

import (
	"errors"
	"strings"
	"testing"
)

func TestNewLayout_MissingColumns(t *testing.T) {
	t.Parallel()

	_, err := NewLayout([]string{ColumnKey, "key_mlbam", "name_first"})
	if !errors.Is(err, ErrMissingColumns) {
		t.Fatalf("expected ErrMissingColumns, got %v", err)
	}
	if !strings.Contains(err.Error(), "key_fangraphs") {
		t.Fatalf("expected missing column names in error, got %v", err)
	}
}

func TestLayout_DecodeToleratesExtraColumnsAndOrder(t *testing.T) {
	t.Parallel()

	header := append([]string{"key_uuid", "pro_played_first"}, Header()...)
	header[2] = "\ufeff" + header[2]
	l, err := NewLayout(header)
	if err != nil {
		t.Fatalf("new layout: %v", err)
	}
	if len(l.Extra()) != 2 {
		t.Fatalf("expected two extra columns, got=%v", l.Extra())
	}

	row := append([]string{"uuid-1", "2009"}, "abcd1234", "545361", "troum001", "troutmi01", "", "10155", "Mike", "Trout", "2011.0", "")
	r, err := l.Decode(row, 2)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.Key != "abcd1234" || r.MLBFirst != 2011 || r.MLBLast != 0 {
		t.Fatalf("unexpected record: %+v", r)
	}
	if _, ok := r.IDs[SchemeBRefMinors]; ok {
		t.Fatalf("expected empty ids to be omitted")
	}
	if got := Encode(r); got[0] != "abcd1234" || got[8] != "2011" || got[9] != "" {
		t.Fatalf("unexpected encoding: %v", got)
	}
}

func TestLayout_DecodeRejectsBadSeason(t *testing.T) {
	t.Parallel()

	l, err := NewLayout(Header())
	if err != nil {
		t.Fatalf("new layout: %v", err)
	}
	_, err = l.Decode([]string{"k", "", "", "", "", "", "", "", "soon", ""}, 7)
	if !errors.Is(err, ErrMalformedRow) {
		t.Fatalf("expected ErrMalformedRow, got %v", err)
	}
	if !strings.Contains(err.Error(), "line 7") {
		t.Fatalf("expected line number, got %v", err)
	}
}
