package remote

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rippedcity/internal/domain/client"
	"rippedcity/pkg/logger"
)

// Demo is a local stand-in for the remote backend, used by the demo entry
// path when the real backend is unconfigured. Records live in a SQLite
// file so the demo dashboard has something real to show. It is never
// authoritative.
type Demo struct {
	db         *sql.DB
	coachEmail string
}

// NewDemo opens the demo store, creating and seeding the clients table on
// first use.
// PRE: db is open with the sqlite driver registered
// POST: Schema exists and holds at least the seed records
func NewDemo(db *sql.DB, coachEmail string) (*Demo, error) {
	d := &Demo{db: db, coachEmail: coachEmail}
	if err := d.migrate(); err != nil {
		return nil, fmt.Errorf("demo store migrate: %w", err)
	}
	if err := d.seed(); err != nil {
		return nil, fmt.Errorf("demo store seed: %w", err)
	}
	return d, nil
}

func (d *Demo) migrate() error {
	_, err := d.db.Exec(`CREATE TABLE IF NOT EXISTS clients (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		email TEXT NOT NULL,
		payload TEXT NOT NULL
	)`)
	return err
}

// seed inserts sample prospects when the table is empty.
func (d *Demo) seed() error {
	var n int
	if err := d.db.QueryRow("SELECT COUNT(*) FROM clients").Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	samples := []client.Client{
		{
			Name: "Marcus Reed", Email: "marcus@example.com",
			Goal: "Cut to 10% body fat", Status: client.StatusActive, PaymentStatus: client.PaymentPaid,
			Profile: client.Profile{
				Age: "31", Gender: "male", Weight: "94", Height: "180",
				Experience: client.ExperienceIntermediate, ActivityLevel: "moderately_active",
				Status: client.EnhancementNatural, BloodType: "O+",
				NotificationPreferences: client.DefaultNotificationPreferences(),
			},
		},
		{
			Name: "Dana Kim", Email: "dana@example.com",
			Goal: "First figure competition", Status: client.StatusProspect, PaymentStatus: client.PaymentUnpaid,
			Profile: client.Profile{
				Age: "27", Gender: "female", Weight: "61", Height: "165",
				Experience: client.ExperienceAdvanced, ActivityLevel: "very_active",
				Status: client.EnhancementNatural, BloodType: "A-",
				NotificationPreferences: client.DefaultNotificationPreferences(),
			},
		},
	}

	base := time.Now().UTC().Add(-48 * time.Hour)
	for i, c := range samples {
		c.ID = uuid.New().String()
		c.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if err := d.insertRow(context.Background(), c); err != nil {
			return err
		}
	}
	logger.Get().Info().Int("count", len(samples)).Msg("demo_store_seeded")
	return nil
}

// Configured is always true: the demo store is its own backend.
func (d *Demo) Configured() bool {
	return true
}

// Session returns the synthetic coach session the demo entry path signs in
// with.
func (d *Demo) Session() Session {
	return Session{
		UserID: "demo-coach",
		Email:  d.coachEmail,
		// No tokens and no expiry: nothing to refresh locally.
	}
}

// SignInWithPassword accepts any credentials and returns the demo coach
// session. The demo path never sees real credentials.
func (d *Demo) SignInWithPassword(_ context.Context, _, _ string) (Session, error) {
	return d.Session(), nil
}

// SignOut is a no-op; there is no remote session to revoke.
func (d *Demo) SignOut(_ context.Context, _ string) error {
	return nil
}

// RefreshSession returns the same synthetic session.
func (d *Demo) RefreshSession(_ context.Context, _ string) (Session, error) {
	return d.Session(), nil
}

// RecoverPassword is a no-op in demo mode.
func (d *Demo) RecoverPassword(_ context.Context, _ string) error {
	return nil
}

// ListClients returns all records, newest first.
func (d *Demo) ListClients(ctx context.Context, _ Session) ([]client.Client, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT payload FROM clients ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []client.Client
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var c client.Client
		if err := json.Unmarshal([]byte(payload), &c); err != nil {
			return nil, fmt.Errorf("decode demo record: %w", err)
		}
		records = append(records, c)
	}
	return records, rows.Err()
}

// FindClientByEmail returns at most one record; absence yields (nil, nil).
func (d *Demo) FindClientByEmail(ctx context.Context, _ Session, email string) (*client.Client, error) {
	var payload string
	err := d.db.QueryRowContext(ctx, "SELECT payload FROM clients WHERE email = ? LIMIT 1", email).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var c client.Client
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return nil, fmt.Errorf("decode demo record: %w", err)
	}
	return &c, nil
}

// InsertClient assigns an id and creation timestamp and stores the record.
func (d *Demo) InsertClient(ctx context.Context, _ Session, c client.Client) (client.Client, error) {
	c.ID = uuid.New().String()
	c.CreatedAt = time.Now().UTC()
	if err := d.insertRow(ctx, c); err != nil {
		return client.Client{}, err
	}
	return c, nil
}

// UpdateClient replaces the mutable fields of the record with the given id.
// POST: id and created_at are unchanged
func (d *Demo) UpdateClient(ctx context.Context, _ Session, id string, partial client.Client) (client.Client, error) {
	var payload string
	err := d.db.QueryRowContext(ctx, "SELECT payload FROM clients WHERE id = ?", id).Scan(&payload)
	if err == sql.ErrNoRows {
		return client.Client{}, fmt.Errorf("demo client not found: %s", id)
	}
	if err != nil {
		return client.Client{}, err
	}
	var existing client.Client
	if err := json.Unmarshal([]byte(payload), &existing); err != nil {
		return client.Client{}, fmt.Errorf("decode demo record: %w", err)
	}

	updated := partial
	updated.ID = existing.ID
	updated.CreatedAt = existing.CreatedAt

	buf, err := json.Marshal(updated)
	if err != nil {
		return client.Client{}, err
	}
	_, err = d.db.ExecContext(ctx,
		"UPDATE clients SET email = ?, payload = ? WHERE id = ?",
		updated.Email, string(buf), id)
	if err != nil {
		return client.Client{}, err
	}
	return updated, nil
}

func (d *Demo) insertRow(ctx context.Context, c client.Client) error {
	buf, err := json.Marshal(c)
	if err != nil {
		return err
	}
	_, err = d.db.ExecContext(ctx,
		"INSERT INTO clients (id, created_at, email, payload) VALUES (?, ?, ?, ?)",
		c.ID, c.CreatedAt.Format(time.RFC3339Nano), c.Email, string(buf))
	return err
}
