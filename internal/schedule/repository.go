package schedule

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a clinic, doctor or service id does not exist.
var ErrNotFound = errors.New("schedule: not found")

// scheduleDB defines the database interface needed by Repository
type scheduleDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads clinic, doctor and service configuration from Postgres.
type Repository struct {
	db scheduleDB
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("schedule: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock database for testing.
func NewRepositoryWithDB(db scheduleDB) *Repository {
	return &Repository{db: db}
}

// GetClinic loads a clinic by id.
func (r *Repository) GetClinic(ctx context.Context, clinicID string) (*Clinic, error) {
	var c Clinic
	err := r.db.QueryRow(ctx,
		`SELECT id, name, timezone FROM clinics WHERE id = $1`,
		clinicID,
	).Scan(&c.ID, &c.Name, &c.Timezone)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("schedule: load clinic: %w", err)
	}
	return &c, nil
}

// Legacy rows may carry the specialty under either column name, so the read
// normalizes to a single field here and nowhere else.
const doctorColumns = `id, clinic_id, name,
	COALESCE(NULLIF(specialty, ''), specialization, '') AS specialty,
	default_duration_mins, active`

// GetDoctor loads a single doctor scoped to the clinic, including the weekly
// working-hours template.
func (r *Repository) GetDoctor(ctx context.Context, clinicID, doctorID string) (*Doctor, error) {
	var d Doctor
	err := r.db.QueryRow(ctx,
		`SELECT `+doctorColumns+` FROM doctors WHERE clinic_id = $1 AND id = $2`,
		clinicID, doctorID,
	).Scan(&d.ID, &d.ClinicID, &d.Name, &d.Specialty, &d.DefaultDurationMins, &d.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("schedule: load doctor: %w", err)
	}

	if err := r.attachWorkingHours(ctx, []*Doctor{&d}); err != nil {
		return nil, err
	}
	return &d, nil
}

// ListActiveDoctors returns all active doctors of a clinic ordered by id,
// with working-hours templates attached.
func (r *Repository) ListActiveDoctors(ctx context.Context, clinicID string) ([]Doctor, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+doctorColumns+` FROM doctors WHERE clinic_id = $1 AND active ORDER BY id`,
		clinicID,
	)
	if err != nil {
		return nil, fmt.Errorf("schedule: list doctors: %w", err)
	}
	defer rows.Close()

	var doctors []Doctor
	for rows.Next() {
		var d Doctor
		if err := rows.Scan(&d.ID, &d.ClinicID, &d.Name, &d.Specialty, &d.DefaultDurationMins, &d.Active); err != nil {
			return nil, fmt.Errorf("schedule: scan doctor: %w", err)
		}
		doctors = append(doctors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schedule: list doctors: %w", err)
	}

	refs := make([]*Doctor, len(doctors))
	for i := range doctors {
		refs[i] = &doctors[i]
	}
	if err := r.attachWorkingHours(ctx, refs); err != nil {
		return nil, err
	}
	return doctors, nil
}

// GetService loads a service and its qualified-doctor set.
func (r *Repository) GetService(ctx context.Context, serviceID string) (*Service, error) {
	var s Service
	err := r.db.QueryRow(ctx,
		`SELECT id, clinic_id, name, category, COALESCE(duration_mins, 0) FROM services WHERE id = $1`,
		serviceID,
	).Scan(&s.ID, &s.ClinicID, &s.Name, &s.Category, &s.DurationMins)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("schedule: load service: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT doctor_id FROM service_doctors WHERE service_id = $1 ORDER BY doctor_id`,
		serviceID,
	)
	if err != nil {
		return nil, fmt.Errorf("schedule: load qualified doctors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var doctorID string
		if err := rows.Scan(&doctorID); err != nil {
			return nil, fmt.Errorf("schedule: scan qualified doctor: %w", err)
		}
		s.QualifiedDoctorIDs = append(s.QualifiedDoctorIDs, doctorID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("schedule: load qualified doctors: %w", err)
	}
	return &s, nil
}

// attachWorkingHours fills the weekly templates for the given doctors with a
// single query.
func (r *Repository) attachWorkingHours(ctx context.Context, doctors []*Doctor) error {
	if len(doctors) == 0 {
		return nil
	}
	ids := make([]string, len(doctors))
	byID := make(map[string]*Doctor, len(doctors))
	for i, d := range doctors {
		ids[i] = d.ID
		byID[d.ID] = d
	}

	rows, err := r.db.Query(ctx,
		`SELECT doctor_id, weekday, start_mins, end_mins
		 FROM doctor_working_hours
		 WHERE doctor_id = ANY($1)
		 ORDER BY doctor_id, weekday, start_mins`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("schedule: load working hours: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			doctorID string
			weekday  int
			iv       Interval
		)
		if err := rows.Scan(&doctorID, &weekday, &iv.Start, &iv.End); err != nil {
			return fmt.Errorf("schedule: scan working hours: %w", err)
		}
		if d, ok := byID[doctorID]; ok {
			d.Hours.add(time.Weekday(weekday), iv)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("schedule: load working hours: %w", err)
	}
	return nil
}
