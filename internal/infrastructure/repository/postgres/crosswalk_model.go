package postgres

import "time"

type crosswalkPlayerInsertModel struct {
	KeyPerson      string  `db:"key_person"`
	NameFirst      *string `db:"name_first"`
	NameLast       *string `db:"name_last"`
	MLBPlayedFirst *int    `db:"mlb_played_first"`
	MLBPlayedLast  *int    `db:"mlb_played_last"`
}

type crosswalkIDInsertModel struct {
	Provider  string `db:"provider"`
	Scheme    string `db:"scheme"`
	NativeID  string `db:"native_id"`
	KeyPerson string `db:"key_person"`
}

type crosswalkSnapshotInsertModel struct {
	PublicID  string    `db:"public_id"`
	Source    string    `db:"source"`
	FetchedAt time.Time `db:"fetched_at"`
	RowCount  int       `db:"row_count"`
}

type crosswalkSnapshotTableModel struct {
	PublicID   string    `db:"public_id"`
	Source     string    `db:"source"`
	FetchedAt  time.Time `db:"fetched_at"`
	RowCount   int       `db:"row_count"`
	MirroredAt time.Time `db:"mirrored_at"`
}
