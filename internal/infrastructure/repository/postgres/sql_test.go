package postgres

import (
	"database/sql"
	"fmt"
	"testing"
)

func TestIsNotFound(t *testing.T) {
	if !isNotFound(sql.ErrNoRows) {
		t.Fatalf("expected true for sql.ErrNoRows")
	}
	if !isNotFound(fmt.Errorf("select latest snapshot: %w", sql.ErrNoRows)) {
		t.Fatalf("expected true for wrapped sql.ErrNoRows")
	}
	if isNotFound(fakeErr("pq: relation crosswalk_ids does not exist")) {
		t.Fatalf("expected false for unrelated error")
	}
}

func TestNullableSeason(t *testing.T) {
	if got := nullableSeason(0); got != nil {
		t.Fatalf("expected nil for unknown season, got %d", *got)
	}
	if got := nullableSeason(2011); got == nil || *got != 2011 {
		t.Fatalf("expected 2011, got %v", got)
	}
	if got := nullableString(""); got != nil {
		t.Fatalf("expected nil for empty name")
	}
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
