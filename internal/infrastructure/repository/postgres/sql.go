package postgres

import (
	"database/sql"
	"errors"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func nullableString(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func nullableSeason(v int) *int {
	if v <= 0 {
		return nil
	}
	return &v
}
