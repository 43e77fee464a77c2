package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_profile_registry.go -package=mocks docuchat/internal/storage ProfileRegistry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"docuchat/internal/profile"
	"docuchat/internal/service"
)

// ProfileRegistry defines the profile lifecycle operations.
//
// Exactly one non-hidden profile is active at all times. Activation is a
// single atomic transition; delete/hide re-check activeness inside the same
// transaction that mutates, so concurrent calls can never leave zero or two
// active profiles.
type ProfileRegistry interface {
	// List returns all non-hidden profiles with display fields localized
	// for language.
	List(ctx context.Context, language string) ([]profile.Profile, error)
	// Get returns a profile by id, hidden or not. Returns ErrNotFound if the
	// id is unknown.
	Get(ctx context.Context, id string) (*profile.Profile, error)
	// GetActive returns the active profile. Returns ErrIntegrity if none
	// exists; that state should be unreachable and is never repaired here.
	GetActive(ctx context.Context) (*profile.Profile, error)
	// Activate atomically deactivates the previously active profile and
	// activates id. Returns ErrNotFound if id is unknown or hidden.
	Activate(ctx context.Context, id string) (*profile.Profile, error)
	// Create adds a custom profile (inactive). Returns ErrValidation on bad
	// input and ErrConflict on an id/name collision with any existing
	// profile, visible or hidden.
	Create(ctx context.Context, in profile.Input) (*profile.Profile, error)
	// Delete removes a profile: hard delete for customs, hide for built-ins.
	// The active profile can never be deleted or hidden, regardless of force.
	Delete(ctx context.Context, id string, force bool) (DeleteOutcome, error)
	// Restore makes a hidden built-in visible again. It does not activate it.
	Restore(ctx context.Context, id string) error
	// ListHidden returns the ids of hidden profiles.
	ListHidden(ctx context.Context) ([]string, error)
}

// ProfileRepo implements ProfileRegistry on SQLite.
type ProfileRepo struct {
	db *sql.DB
}

// NewProfileRepo creates a new ProfileRepo.
func NewProfileRepo(db *sql.DB) *ProfileRepo {
	return &ProfileRepo{db: db}
}

const profileColumns = "id, name, description, config, characteristics, is_custom, is_active"

func scanProfile(row interface{ Scan(...any) error }) (*profile.Profile, error) {
	var p profile.Profile
	var configJSON, charsJSON string
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &configJSON, &charsJSON, &p.IsCustom, &p.IsActive); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(configJSON), &p.Config); err != nil {
		return nil, fmt.Errorf("failed to decode profile config: %w", err)
	}
	if err := json.Unmarshal([]byte(charsJSON), &p.Characteristics); err != nil {
		return nil, fmt.Errorf("failed to decode profile characteristics: %w", err)
	}
	return &p, nil
}

// SeedBuiltins inserts the built-in profiles that are missing. On a fresh
// database the default profile is activated; on an existing database the
// stored lifecycle state wins.
func (r *ProfileRepo) SeedBuiltins(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin seed transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var existing int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM profiles").Scan(&existing); err != nil {
		return fmt.Errorf("failed to count profiles: %w", err)
	}
	fresh := existing == 0

	for _, p := range profile.Builtins() {
		configJSON, err := json.Marshal(p.Config)
		if err != nil {
			return fmt.Errorf("failed to encode config for %s: %w", p.ID, err)
		}
		charsJSON, err := json.Marshal(p.Characteristics)
		if err != nil {
			return fmt.Errorf("failed to encode characteristics for %s: %w", p.ID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO profiles (id, name, description, config, characteristics, is_custom, is_active, hidden)
			 VALUES (?, ?, ?, ?, ?, 0, 0, 0)`,
			p.ID, p.Name, p.Description, string(configJSON), string(charsJSON),
		)
		if err != nil {
			return fmt.Errorf("failed to seed profile %s: %w", p.ID, err)
		}
	}

	if fresh {
		if _, err := tx.ExecContext(ctx, "UPDATE profiles SET is_active = 1 WHERE id = ?", profile.DefaultActiveID); err != nil {
			return fmt.Errorf("failed to activate default profile: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit seed transaction: %w", err)
	}
	return nil
}

// List returns all non-hidden profiles, built-ins first.
func (r *ProfileRepo) List(ctx context.Context, language string) ([]profile.Profile, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+profileColumns+" FROM profiles WHERE hidden = 0 ORDER BY is_custom, name",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var profiles []profile.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, profile.Localize(*p, language))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return profiles, nil
}

// Get returns a profile by id, hidden or not.
func (r *ProfileRepo) Get(ctx context.Context, id string) (*profile.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx,
		"SELECT "+profileColumns+" FROM profiles WHERE id = ?", id,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("profile %q: %w", id, service.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	return p, nil
}

// GetActive returns the single active profile.
func (r *ProfileRepo) GetActive(ctx context.Context) (*profile.Profile, error) {
	p, err := scanProfile(r.db.QueryRowContext(ctx,
		"SELECT "+profileColumns+" FROM profiles WHERE is_active = 1",
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no active profile: %w", service.ErrIntegrity)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query active profile: %w", err)
	}
	return p, nil
}

// Activate performs the deactivate-all/activate-target swap in one
// transaction so concurrent activations leave exactly one profile active.
func (r *ProfileRepo) Activate(ctx context.Context, id string) (*profile.Profile, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin activate transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var hidden bool
	err = tx.QueryRowContext(ctx, "SELECT hidden FROM profiles WHERE id = ?", id).Scan(&hidden)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("profile %q: %w", id, service.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query profile: %w", err)
	}
	if hidden {
		// Hidden profiles cannot be activated without restoring them first.
		return nil, fmt.Errorf("profile %q is hidden: %w", id, service.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, "UPDATE profiles SET is_active = 0 WHERE is_active = 1"); err != nil {
		return nil, fmt.Errorf("failed to deactivate profiles: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "UPDATE profiles SET is_active = 1 WHERE id = ?", id); err != nil {
		return nil, fmt.Errorf("failed to activate profile: %w", err)
	}

	p, err := scanProfile(tx.QueryRowContext(ctx,
		"SELECT "+profileColumns+" FROM profiles WHERE id = ?", id,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to read activated profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit activation: %w", err)
	}
	return p, nil
}

// Create inserts a new custom profile. The id is taken from the input if set,
// otherwise derived from the name (with a UUID fallback for names that
// produce an empty slug, such as purely non-Latin names).
func (r *ProfileRepo) Create(ctx context.Context, in profile.Input) (*profile.Profile, error) {
	in.ApplyDefaults()
	if err := in.Validate(); err != nil {
		return nil, err
	}

	id := in.ID
	if id == "" {
		id = profile.Slugify(in.Name)
	}
	if id == "" {
		id = uuid.NewString()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin create transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Collisions are checked against every profile, hidden ones included, so
	// restoring a built-in can never collide with a later custom profile.
	var collisions int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM profiles WHERE id = ? OR name = ?", id, in.Name,
	).Scan(&collisions)
	if err != nil {
		return nil, fmt.Errorf("failed to check profile collision: %w", err)
	}
	if collisions > 0 {
		return nil, fmt.Errorf("profile id or name already exists: %w", service.ErrConflict)
	}

	configJSON, err := json.Marshal(in.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	charsJSON, err := json.Marshal(in.Characteristics)
	if err != nil {
		return nil, fmt.Errorf("failed to encode characteristics: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO profiles (id, name, description, config, characteristics, is_custom, is_active, hidden)
		 VALUES (?, ?, ?, ?, ?, 1, 0, 0)`,
		id, in.Name, in.Description, string(configJSON), string(charsJSON),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit create: %w", err)
	}

	return &profile.Profile{
		ID:              id,
		Name:            in.Name,
		Description:     in.Description,
		Config:          in.Config,
		Characteristics: in.Characteristics,
		IsCustom:        true,
		IsActive:        false,
	}, nil
}

// Delete hard-deletes a custom profile or hides a built-in one. Activeness is
// re-checked inside the transaction: a profile activated concurrently with
// its deletion survives.
func (r *ProfileRepo) Delete(ctx context.Context, id string, force bool) (DeleteOutcome, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var isCustom, isActive, hidden bool
	err = tx.QueryRowContext(ctx,
		"SELECT is_custom, is_active, hidden FROM profiles WHERE id = ?", id,
	).Scan(&isCustom, &isActive, &hidden)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("profile %q: %w", id, service.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("failed to query profile: %w", err)
	}
	if hidden {
		return "", fmt.Errorf("profile %q is hidden: %w", id, service.ErrNotFound)
	}
	if isActive {
		// force does not override this: the caller must activate another
		// profile first.
		return "", fmt.Errorf("cannot delete the active profile, activate another profile first: %w", service.ErrConflict)
	}

	var outcome DeleteOutcome
	if isCustom {
		if _, err := tx.ExecContext(ctx, "DELETE FROM profiles WHERE id = ?", id); err != nil {
			return "", fmt.Errorf("failed to delete profile: %w", err)
		}
		outcome = OutcomeDeleted
	} else {
		// Built-ins are never erased, force or not.
		if _, err := tx.ExecContext(ctx, "UPDATE profiles SET hidden = 1 WHERE id = ?", id); err != nil {
			return "", fmt.Errorf("failed to hide profile: %w", err)
		}
		outcome = OutcomeHidden
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit delete: %w", err)
	}
	return outcome, nil
}

// Restore makes a hidden profile visible again without activating it.
func (r *ProfileRepo) Restore(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "UPDATE profiles SET hidden = 0 WHERE id = ? AND hidden = 1", id)
	if err != nil {
		return fmt.Errorf("failed to restore profile: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read restore result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("profile %q is not hidden: %w", id, service.ErrNotFound)
	}
	return nil
}

// ListHidden returns the ids of hidden profiles in id order.
func (r *ProfileRepo) ListHidden(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id FROM profiles WHERE hidden = 1 ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query hidden profiles: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan hidden profile id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return ids, nil
}
