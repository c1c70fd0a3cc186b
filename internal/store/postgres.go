package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/a2aregistry/backend/internal/models"
)

// Postgres stores agent records in a single agents table with the card
// kept as JSONB. Update runs inside a transaction with FOR UPDATE so a
// heartbeat is atomic against concurrent heartbeats and deletions of
// the same record.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

var _ Store = (*Postgres)(nil)

// EnsureSchema creates the agents table if missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS agents (
			id              TEXT PRIMARY KEY,
			card            JSONB NOT NULL,
			registered_at   TIMESTAMPTZ NOT NULL,
			heartbeat_token TEXT NOT NULL,
			status          TEXT NOT NULL,
			load            DOUBLE PRECISION,
			status_message  TEXT NOT NULL DEFAULT '',
			last_seen       TIMESTAMPTZ,
			verified        BOOLEAN NOT NULL DEFAULT FALSE
		)
	`)
	return err
}

const agentColumns = `id, card, registered_at, heartbeat_token, status, load, status_message, last_seen, verified`

func (p *Postgres) Put(ctx context.Context, rec *models.AgentRecord) error {
	card, err := json.Marshal(rec.Card)
	if err != nil {
		return fmt.Errorf("marshal card: %w", err)
	}
	_, err = p.pool.Exec(ctx, `
		INSERT INTO agents (`+agentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rec.ID, card, rec.RegisteredAt, rec.HeartbeatToken, rec.Status, rec.Load, rec.StatusMessage, rec.LastSeen, rec.Verified)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateID
		}
		return err
	}
	return nil
}

func (p *Postgres) Get(ctx context.Context, id string) (*models.AgentRecord, error) {
	row := p.pool.QueryRow(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = $1`, id)
	return scanAgent(row)
}

func (p *Postgres) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM agents WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (p *Postgres) Scan(ctx context.Context) ([]*models.AgentRecord, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+agentColumns+` FROM agents ORDER BY registered_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.AgentRecord
	for rows.Next() {
		rec, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

func (p *Postgres) Update(ctx context.Context, id string, fn Mutator) (*models.AgentRecord, error) {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = $1 FOR UPDATE`, id)
	rec, err := scanAgent(row)
	if err != nil {
		return nil, err
	}
	if err := fn(rec); err != nil {
		return nil, err
	}
	card, err := json.Marshal(rec.Card)
	if err != nil {
		return nil, fmt.Errorf("marshal card: %w", err)
	}
	_, err = tx.Exec(ctx, `
		UPDATE agents SET card = $2, status = $3, load = $4, status_message = $5, last_seen = $6, verified = $7
		WHERE id = $1
	`, rec.ID, card, rec.Status, rec.Load, rec.StatusMessage, rec.LastSeen, rec.Verified)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return rec, nil
}

func scanAgent(row pgx.Row) (*models.AgentRecord, error) {
	var rec models.AgentRecord
	var card []byte
	err := row.Scan(&rec.ID, &card, &rec.RegisteredAt, &rec.HeartbeatToken, &rec.Status,
		&rec.Load, &rec.StatusMessage, &rec.LastSeen, &rec.Verified)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(card, &rec.Card); err != nil {
		return nil, fmt.Errorf("unmarshal card: %w", err)
	}
	return &rec, nil
}
