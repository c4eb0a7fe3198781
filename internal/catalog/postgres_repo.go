package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("entry not found")

// Record is an entry together with the key and language it is filed under.
type Record struct {
	Key      string `json:"key"`
	Language string `json:"language"`
	Entry    Entry  `json:"entry"`
}

type ListQuery struct {
	Language  string
	EntryType string
	Limit     int
	Offset    int
}

// Reader is the read side shared by the Postgres mirror and the snapshot file.
type Reader interface {
	List(ctx context.Context, q ListQuery) ([]Record, int, error)
	GetByKey(ctx context.Context, key string) (Record, error)
}

type Repository interface {
	Reader
	UpsertSnapshot(ctx context.Context, s Snapshot) error
}

type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// UpsertSnapshot mirrors every snapshot entry into dbl_entries in one transaction.
func (r *PostgresRepo) UpsertSnapshot(ctx context.Context, s Snapshot) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const sql = `
		INSERT INTO dbl_entries (key, entry_id, language_code, entry_type, display_name, raw_json, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (key) DO UPDATE SET
			entry_id = EXCLUDED.entry_id,
			language_code = EXCLUDED.language_code,
			entry_type = EXCLUDED.entry_type,
			display_name = EXCLUDED.display_name,
			raw_json = EXCLUDED.raw_json,
			updated_at = now()
		WHERE dbl_entries.raw_json IS DISTINCT FROM EXCLUDED.raw_json`

	batch := &pgx.Batch{}
	for _, key := range s.Keys() {
		e := s[key]
		rawJSON, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode entry %s: %w", key, err)
		}
		lang, _, _ := cutKey(key)
		batch.Queue(sql, key, e.ID, lang, e.EntryType, e.DisplayName, rawJSON)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert entries: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepo) List(ctx context.Context, q ListQuery) ([]Record, int, error) {
	clauses := []string{"1=1"}
	args := []any{}
	argn := 1

	if q.Language != "" {
		clauses = append(clauses, fmt.Sprintf("language_code = $%d", argn))
		args = append(args, q.Language)
		argn++
	}

	if q.EntryType != "" {
		clauses = append(clauses, fmt.Sprintf("entry_type = $%d", argn))
		args = append(args, q.EntryType)
		argn++
	}

	where := "WHERE " + strings.Join(clauses, " AND ")

	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM dbl_entries %s", where)
	var total int
	if err := r.db.QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := q.Limit
	if limit <= 0 {
		limit = total
	}
	dataSQL := fmt.Sprintf(`
		SELECT key, language_code, raw_json
		FROM dbl_entries
		%s
		ORDER BY key ASC
		LIMIT $%d OFFSET $%d`,
		where, argn, argn+1)

	argsWithPage := append([]any{}, args...)
	argsWithPage = append(argsWithPage, limit, q.Offset)
	rows, err := r.db.Query(ctx, dataSQL, argsWithPage...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

func (r *PostgresRepo) GetByKey(ctx context.Context, key string) (Record, error) {
	const sql = `SELECT key, language_code, raw_json FROM dbl_entries WHERE key = $1`

	rec, err := scanRecord(r.db.QueryRow(ctx, sql, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return rec, err
}

func scanRecord(row pgx.Row) (Record, error) {
	var rec Record
	var rawJSON []byte
	if err := row.Scan(&rec.Key, &rec.Language, &rawJSON); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal(rawJSON, &rec.Entry); err != nil {
		return Record{}, fmt.Errorf("decode entry %s: %w", rec.Key, err)
	}
	return rec, nil
}

// cutKey splits a snapshot key into language and entry id. Entry ids never contain '_'.
func cutKey(key string) (lang, id string, ok bool) {
	i := strings.LastIndexByte(key, '_')
	if i < 0 {
		return key, "", false
	}
	return key[:i], key[i+1:], true
}
