package store

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/isometry/clerk-user-sync/internal/helpers"
	"github.com/isometry/clerk-user-sync/internal/users"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type userRecord struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID             string    `bun:"id,pk"`
	FirstName      *string   `bun:"first_name"`
	LastName       *string   `bun:"last_name"`
	ImageURL       *string   `bun:"image_url"`
	Username       *string   `bun:"username"`
	EmailAddresses []string  `bun:"email_addresses,type:jsonb"`
	CreatedAt      time.Time `bun:"created_at,notnull"`
	UpdatedAt      time.Time `bun:"updated_at,notnull"`
}

func (r *userRecord) toDomain() *users.User {
	return &users.User{
		ID:             r.ID,
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		ImageURL:       r.ImageURL,
		EmailAddresses: r.EmailAddresses,
		Username:       r.Username,
	}
}

// SQLStore is a users.Store backed by a bun database handle.
type SQLStore struct {
	db     *bun.DB
	logger *slog.Logger
}

// NewSQLStore wraps an existing bun database.
func NewSQLStore(db *bun.DB, opts ...Option) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("store: bun db is required")
	}
	o := applyOpts(opts...)
	return &SQLStore{db: db, logger: o.logger.With("store", "sql")}, nil
}

// Migrate creates the users table when it does not exist yet.
func (s *SQLStore) Migrate(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*userRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	return errors.Wrap(err, "store: failed to create users table")
}

// UpsertUser inserts the user or overwrites every profile column of an existing row.
func (s *SQLStore) UpsertUser(ctx context.Context, id string, firstName, lastName, imageURL *string, emailAddresses []string, username *string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return users.ErrMissingID
	}
	now := time.Now().UTC()
	record := &userRecord{
		ID:             id,
		FirstName:      firstName,
		LastName:       lastName,
		ImageURL:       imageURL,
		Username:       username,
		EmailAddresses: emailAddresses,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	_, err := s.db.NewInsert().
		Model(record).
		On("CONFLICT (id) DO UPDATE").
		Set("first_name = EXCLUDED.first_name").
		Set("last_name = EXCLUDED.last_name").
		Set("image_url = EXCLUDED.image_url").
		Set("username = EXCLUDED.username").
		Set("email_addresses = EXCLUDED.email_addresses").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return errors.Wrapf(err, "store: failed to upsert user %s", id)
	}
	s.logger.Debug("upserted user", slog.String("id", id), slog.String("username", helpers.String(username)))
	return nil
}

// DeleteUser removes the user. Deleting an unknown id is not an error.
func (s *SQLStore) DeleteUser(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return users.ErrMissingID
	}
	res, err := s.db.NewDelete().
		Model((*userRecord)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return errors.Wrapf(err, "store: failed to delete user %s", id)
	}
	affected, _ := res.RowsAffected()
	s.logger.Debug("deleted user", slog.String("id", id), slog.Int64("rows", affected))
	return nil
}

// GetUser returns the stored user or ErrNotFound.
func (s *SQLStore) GetUser(ctx context.Context, id string) (*users.User, error) {
	record := &userRecord{}
	err := s.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", strings.TrimSpace(id)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "store: failed to get user %s", id)
	}
	return record.toDomain(), nil
}

// Close releases the underlying database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
