// Package ledger exposes read-only access to persisted appointments. The
// availability engine only ever reads from it; booking writes belong to the
// external booking service, which re-validates availability at write time.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Appointment statuses. Only pending and confirmed appointments block a slot.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusCompleted = "completed"
	StatusNoShow    = "no_show"
)

// Appointment is a persisted booking, read-only to this engine. Start and End
// are minutes from midnight on Date.
type Appointment struct {
	ID        string    `json:"id"`
	ClinicID  string    `json:"clinic_id"`
	DoctorID  string    `json:"doctor_id"`
	Date      time.Time `json:"date"`
	StartMins int       `json:"start_mins"`
	EndMins   int       `json:"end_mins"`
	Status    string    `json:"status"`
}

// Blocks reports whether this appointment occupies its time window.
// Cancelled, completed and no-show appointments free the slot.
func (a *Appointment) Blocks() bool {
	return a.Status == StatusPending || a.Status == StatusConfirmed
}

// Overlaps reports whether [start, end) intersects the appointment window.
func (a *Appointment) Overlaps(start, end int) bool {
	return start < a.EndMins && end > a.StartMins
}

// ledgerDB defines the database interface needed by Repository
type ledgerDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository reads appointments from Postgres.
type Repository struct {
	db ledgerDB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("ledger: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db ledgerDB) *Repository {
	return &Repository{db: db}
}

// ListBlocking returns the pending and confirmed appointments of a clinic on
// one calendar day, ordered by doctor then start time. Statuses that free the
// slot are filtered out in SQL so the engine never sees them.
func (r *Repository) ListBlocking(ctx context.Context, clinicID string, date time.Time) ([]Appointment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, clinic_id, doctor_id, date, start_mins, end_mins, status
		 FROM appointments
		 WHERE clinic_id = $1 AND date = $2 AND status IN ($3, $4)
		 ORDER BY doctor_id, start_mins`,
		clinicID, date.Format("2006-01-02"), StatusPending, StatusConfirmed,
	)
	if err != nil {
		return nil, fmt.Errorf("ledger: list blocking appointments: %w", err)
	}
	defer rows.Close()

	var appts []Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(&a.ID, &a.ClinicID, &a.DoctorID, &a.Date, &a.StartMins, &a.EndMins, &a.Status); err != nil {
			return nil, fmt.Errorf("ledger: scan appointment: %w", err)
		}
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: list blocking appointments: %w", err)
	}
	return appts, nil
}
