package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/statlink/internal/domain/crosswalk"
	"github.com/riskibarqy/statlink/internal/platform/id"
	qb "github.com/riskibarqy/statlink/internal/platform/querybuilder"
)

const (
	crosswalkPlayersTable   = "crosswalk_players"
	crosswalkIDsTable       = "crosswalk_ids"
	crosswalkSnapshotsTable = "crosswalk_snapshots"
)

// CrosswalkRepository mirrors the active crosswalk snapshot into Postgres so
// other services can join against it with SQL.
type CrosswalkRepository struct {
	db  *sqlx.DB
	ids id.Generator
}

func NewCrosswalkRepository(db *sqlx.DB, ids id.Generator) *CrosswalkRepository {
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	return &CrosswalkRepository{db: db, ids: ids}
}

// Replace swaps the mirrored snapshot inside one transaction. Readers see
// either the previous snapshot or the new one.
func (r *CrosswalkRepository) Replace(ctx context.Context, table *crosswalk.Table) error {
	if table == nil || table.Len() == 0 {
		return crosswalk.ErrEmptyTable
	}

	publicID, err := r.ids.NewID()
	if err != nil {
		return fmt.Errorf("generate snapshot id: %w", err)
	}

	players := make([]crosswalkPlayerInsertModel, 0, table.Len())
	ids := make([]crosswalkIDInsertModel, 0, table.Len()*3)
	// A provider id is stored once. A row may repeat one id under two
	// schemes of the same provider (key_bbref and key_bbref_minors).
	type providerID struct{ provider, nativeID string }
	seen := make(map[providerID]struct{}, table.Len()*3)
	for rec := range table.All() {
		players = append(players, crosswalkPlayerInsertModel{
			KeyPerson:      string(rec.Key),
			NameFirst:      nullableString(rec.NameFirst),
			NameLast:       nullableString(rec.NameLast),
			MLBPlayedFirst: nullableSeason(rec.MLBFirst),
			MLBPlayedLast:  nullableSeason(rec.MLBLast),
		})
		for _, scheme := range crosswalk.Schemes {
			nativeID := rec.IDs[scheme]
			if nativeID == "" {
				continue
			}
			pid := providerID{provider: string(scheme.Provider()), nativeID: nativeID}
			if _, dup := seen[pid]; dup {
				continue
			}
			seen[pid] = struct{}{}
			ids = append(ids, crosswalkIDInsertModel{
				Provider:  pid.provider,
				Scheme:    string(scheme),
				NativeID:  nativeID,
				KeyPerson: string(rec.Key),
			})
		}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx replace crosswalk: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, tableName := range []string{crosswalkIDsTable, crosswalkPlayersTable} {
		query, args, err := qb.DeleteFrom(tableName).ToSQL()
		if err != nil {
			return fmt.Errorf("build delete %s query: %w", tableName, err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("clear %s: %w", tableName, err)
		}
	}

	if err := execInsertModels(ctx, tx, crosswalkPlayersTable, players); err != nil {
		return err
	}
	if err := execInsertModels(ctx, tx, crosswalkIDsTable, ids); err != nil {
		return err
	}

	snapshot := crosswalkSnapshotInsertModel{
		PublicID:  publicID,
		Source:    table.Source(),
		FetchedAt: table.FetchedAt().UTC(),
		RowCount:  table.Len(),
	}
	if err := execInsertModels(ctx, tx, crosswalkSnapshotsTable, []crosswalkSnapshotInsertModel{snapshot}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace crosswalk tx: %w", err)
	}
	return nil
}

func (r *CrosswalkRepository) Latest(ctx context.Context) (crosswalk.SnapshotInfo, bool, error) {
	query, args, err := qb.Select("public_id", "source", "fetched_at", "row_count", "mirrored_at").
		From(crosswalkSnapshotsTable).
		OrderBy("id DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return crosswalk.SnapshotInfo{}, false, fmt.Errorf("build latest snapshot query: %w", err)
	}

	var row crosswalkSnapshotTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return crosswalk.SnapshotInfo{}, false, nil
		}
		return crosswalk.SnapshotInfo{}, false, fmt.Errorf("select latest snapshot: %w", err)
	}

	return crosswalk.SnapshotInfo{
		Source:     row.Source,
		FetchedAt:  row.FetchedAt.UTC(),
		Rows:       row.RowCount,
		MirroredAt: row.MirroredAt.UTC(),
	}, true, nil
}

func (r *CrosswalkRepository) Lookup(ctx context.Context, p crosswalk.Provider, nativeID string) (crosswalk.CanonicalKey, bool, error) {
	query, args, err := qb.Select("key_person").
		From(crosswalkIDsTable).
		Where(
			qb.Eq("provider", string(p)),
			qb.Eq("native_id", nativeID),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return "", false, fmt.Errorf("build crosswalk lookup query: %w", err)
	}

	var key string
	if err := r.db.GetContext(ctx, &key, query, args...); err != nil {
		if isNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("lookup provider=%s id=%s: %w", p, nativeID, err)
	}
	return crosswalk.CanonicalKey(key), true, nil
}

func execInsertModels[T any](ctx context.Context, tx *sqlx.Tx, tableName string, models []T) error {
	queries, argSets, err := qb.InsertModels(tableName, models)
	if err != nil {
		return fmt.Errorf("build insert %s query: %w", tableName, err)
	}
	for i, query := range queries {
		if _, err := tx.ExecContext(ctx, query, argSets[i]...); err != nil {
			return fmt.Errorf("insert %s batch %d: %w", tableName, i, err)
		}
	}
	return nil
}
