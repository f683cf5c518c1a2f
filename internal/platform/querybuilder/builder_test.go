package querybuilder

import "testing"

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("key_person").
		From("crosswalk_ids").
		Where(Eq("provider", "fangraphs"), Eq("native_id", "10155")).
		OrderBy("key_person").
		Limit(1).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT key_person FROM crosswalk_ids WHERE provider = $1 AND native_id = $2 ORDER BY key_person LIMIT 1"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "fangraphs" || args[1] != "10155" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertBuilder_MultipleRows(t *testing.T) {
	query, args, err := InsertInto("crosswalk_players").
		Columns("key_person", "name_last").
		Values("k1", "Trout").
		Values("k2", "Ohtani").
		ToSQL()
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO crosswalk_players (key_person, name_last) VALUES ($1, $2), ($3, $4)"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 4 || args[2] != "k2" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestDeleteBuilder(t *testing.T) {
	query, args, err := DeleteFrom("crosswalk_ids").ToSQL()
	if err != nil {
		t.Fatalf("build delete query: %v", err)
	}
	if query != "DELETE FROM crosswalk_ids" || len(args) != 0 {
		t.Fatalf("unexpected query: %s", query)
	}

	query, args, err = DeleteFrom("crosswalk_ids").Where(Eq("provider", "bref")).ToSQL()
	if err != nil {
		t.Fatalf("build delete query: %v", err)
	}
	if query != "DELETE FROM crosswalk_ids WHERE provider = $1" || len(args) != 1 {
		t.Fatalf("unexpected query: %s", query)
	}
}

type idRow struct {
	Scheme   string `db:"scheme"`
	NativeID string `db:"native_id"`
	ignored  string
}

func TestInsertModels_SplitsAtParameterLimit(t *testing.T) {
	rows := make([]idRow, MaxParams/2+1)
	for i := range rows {
		rows[i] = idRow{Scheme: "key_mlbam", NativeID: "1"}
	}

	queries, argSets, err := InsertModels("crosswalk_ids", rows)
	if err != nil {
		t.Fatalf("build insert models: %v", err)
	}
	if len(queries) != 2 {
		t.Fatalf("expected 2 statements, got=%d", len(queries))
	}
	if len(argSets[0]) != (MaxParams/2)*2 || len(argSets[1]) != 2 {
		t.Fatalf("unexpected batch sizes: %d %d", len(argSets[0]), len(argSets[1]))
	}
	_ = rows[0].ignored
}
