package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates no actor matches the lookup.
var ErrNotFound = errors.New("actor not found")

// Repository persists actors.
type Repository interface {
	Create(ctx context.Context, actor Actor) error
	FindByName(ctx context.Context, name string) (Actor, error)
	FindByID(ctx context.Context, id string) (Actor, error)
	Exists(ctx context.Context, name string) (bool, error)
	UpdateTokenVersion(ctx context.Context, id string, version int) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed actor repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new actor.
func (r *PostgresRepository) Create(ctx context.Context, actor Actor) error {
	actorID, err := uuid.Parse(actor.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO actors (id, name, pin_hash, token_version, created_at)
        VALUES ($1, $2, $3, $4, $5)`, actorID, actor.Name, actor.PINHash, actor.TokenVersion, actor.CreatedAt.UTC())
	return err
}

// FindByName fetches an actor by account name.
func (r *PostgresRepository) FindByName(ctx context.Context, name string) (Actor, error) {
	row := r.db.QueryRow(ctx, `SELECT id, name, pin_hash, token_version, created_at FROM actors WHERE name = $1`, name)
	return scanActor(row)
}

// FindByID fetches an actor by identifier.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Actor, error) {
	actorID, err := uuid.Parse(id)
	if err != nil {
		return Actor{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, name, pin_hash, token_version, created_at FROM actors WHERE id = $1`, actorID)
	return scanActor(row)
}

// Exists reports whether an account name is registered.
func (r *PostgresRepository) Exists(ctx context.Context, name string) (bool, error) {
	var found bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM actors WHERE name = $1)`, name).Scan(&found)
	return found, err
}

// UpdateTokenVersion stores a new token version, invalidating older tokens.
func (r *PostgresRepository) UpdateTokenVersion(ctx context.Context, id string, version int) error {
	actorID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE actors SET token_version = $1 WHERE id = $2`, version, actorID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanActor(row pgx.Row) (Actor, error) {
	var (
		id        uuid.UUID
		createdAt time.Time
		actor     Actor
	)
	if err := row.Scan(&id, &actor.Name, &actor.PINHash, &actor.TokenVersion, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Actor{}, ErrNotFound
		}
		return Actor{}, err
	}
	actor.ID = id.String()
	actor.CreatedAt = createdAt.UTC()
	return actor, nil
}
