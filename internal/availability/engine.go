package availability

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/clinicdesk/appointment-platform/internal/ledger"
	"github.com/clinicdesk/appointment-platform/internal/observability/metrics"
	"github.com/clinicdesk/appointment-platform/internal/schedule"
	"github.com/clinicdesk/appointment-platform/pkg/logging"
)

var engineTracer = otel.Tracer("clinicdesk.internal.availability")

// ScheduleSource supplies clinic, doctor and service configuration.
type ScheduleSource interface {
	GetClinic(ctx context.Context, clinicID string) (*schedule.Clinic, error)
	GetDoctor(ctx context.Context, clinicID, doctorID string) (*schedule.Doctor, error)
	ListActiveDoctors(ctx context.Context, clinicID string) ([]schedule.Doctor, error)
	GetService(ctx context.Context, serviceID string) (*schedule.Service, error)
}

// BookingLedger supplies the blocking appointments of a clinic day.
type BookingLedger interface {
	ListBlocking(ctx context.Context, clinicID string, date time.Time) ([]ledger.Appointment, error)
}

// Engine defaults.
const (
	DefaultHorizonDays  = 30
	DefaultRangeMaxDays = 31
	defaultRangeWorkers = 4
)

// Options configures optional Engine collaborators and bounds.
type Options struct {
	Cache        *SnapshotCache
	Metrics      *metrics.EngineMetrics
	Logger       *logging.Logger
	HorizonDays  int
	RangeMaxDays int
	RangeWorkers int
	Now          func() time.Time
}

// Engine answers availability queries. It holds no mutable state of its own:
// every operation is a pure function of the schedule and ledger snapshots it
// fetches, so concurrent queries need no coordination. The engine never
// writes to the ledger; the check-then-book race is resolved by the external
// booking service at write time.
type Engine struct {
	schedules ScheduleSource
	bookings  BookingLedger
	cache     *SnapshotCache
	metrics   *metrics.EngineMetrics
	logger    *logging.Logger

	horizonDays  int
	rangeMaxDays int
	rangeWorkers int
	now          func() time.Time
}

// NewEngine constructs an availability engine.
func NewEngine(schedules ScheduleSource, bookings BookingLedger, opts Options) *Engine {
	if schedules == nil {
		panic("availability: schedule source required")
	}
	if bookings == nil {
		panic("availability: booking ledger required")
	}
	e := &Engine{
		schedules:    schedules,
		bookings:     bookings,
		cache:        opts.Cache,
		metrics:      opts.Metrics,
		logger:       opts.Logger,
		horizonDays:  opts.HorizonDays,
		rangeMaxDays: opts.RangeMaxDays,
		rangeWorkers: opts.RangeWorkers,
		now:          opts.Now,
	}
	if e.logger == nil {
		e.logger = logging.Default()
	}
	if e.horizonDays <= 0 {
		e.horizonDays = DefaultHorizonDays
	}
	if e.rangeMaxDays <= 0 {
		e.rangeMaxDays = DefaultRangeMaxDays
	}
	if e.rangeWorkers <= 0 {
		e.rangeWorkers = defaultRangeWorkers
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// GetAvailableSlots returns the ordered slot list for a clinic day. With a
// doctor id the list covers that doctor only; otherwise it unions all active
// doctors. With a service id the service's fixed duration (when set)
// overrides each doctor's default.
func (e *Engine) GetAvailableSlots(ctx context.Context, clinicID string, date time.Time, serviceID, doctorID string) ([]Slot, error) {
	ctx, span := engineTracer.Start(ctx, "availability.slots")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinicdesk.clinic_id", clinicID),
		attribute.String("clinicdesk.date", date.Format(DateFormat)),
	)
	started := e.now()

	svc, err := e.loadService(ctx, serviceID)
	if err != nil {
		return nil, e.fail(span, "slots", started, err)
	}
	appts, err := e.bookings.ListBlocking(ctx, clinicID, date)
	if err != nil {
		return nil, e.fail(span, "slots", started, err)
	}

	var slots []Slot
	if doctorID != "" {
		doctor, err := e.schedules.GetDoctor(ctx, clinicID, doctorID)
		if err != nil {
			return nil, e.fail(span, "slots", started, err)
		}
		slots = GenerateSlots(doctor, date, svc.DurationFor(doctor), appts)
	} else {
		doctors, err := e.schedules.ListActiveDoctors(ctx, clinicID)
		if err != nil {
			return nil, e.fail(span, "slots", started, err)
		}
		slots = GenerateClinicSlots(doctors, date, svc.DurationFor, appts)
	}

	e.metrics.ObserveSlots("slots", len(slots))
	e.metrics.ObserveQuery("slots", "ok", e.now().Sub(started).Seconds())
	return slots, nil
}

// GetClinicCapacity computes the capacity snapshot for a clinic day, serving
// from the snapshot cache when one is configured and fresh.
func (e *Engine) GetClinicCapacity(ctx context.Context, clinicID string, date time.Time) (*CapacitySnapshot, error) {
	ctx, span := engineTracer.Start(ctx, "availability.capacity")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinicdesk.clinic_id", clinicID),
		attribute.String("clinicdesk.date", date.Format(DateFormat)),
	)
	started := e.now()

	if e.cache != nil {
		cached, err := e.cache.Get(ctx, clinicID, date.Format(DateFormat))
		if err != nil {
			// Cache trouble is not a query failure.
			e.logger.Warn("capacity cache read failed", "clinic_id", clinicID, "error", err)
		}
		if cached != nil {
			e.metrics.ObserveQuery("capacity", "ok", e.now().Sub(started).Seconds())
			return cached, nil
		}
	}

	snap, err := e.computeCapacityDay(ctx, clinicID, date, nil)
	if err != nil {
		return nil, e.fail(span, "capacity", started, err)
	}

	if e.cache != nil {
		if err := e.cache.Set(ctx, snap); err != nil {
			e.logger.Warn("capacity cache write failed", "clinic_id", clinicID, "error", err)
		}
	}
	e.metrics.ObserveQuery("capacity", "ok", e.now().Sub(started).Seconds())
	return snap, nil
}

// FindBestDoctor picks the best free doctor for the interval starting at
// startMins on date. Returns ErrNoDoctorAvailable when nobody qualifies or
// everyone is booked; that is a normal negative result.
func (e *Engine) FindBestDoctor(ctx context.Context, clinicID string, date time.Time, startMins int, serviceID string) (*DoctorMatch, error) {
	ctx, span := engineTracer.Start(ctx, "availability.best_doctor")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinicdesk.clinic_id", clinicID),
		attribute.String("clinicdesk.date", date.Format(DateFormat)),
		attribute.String("clinicdesk.time", FormatClock(startMins)),
	)
	started := e.now()

	svc, err := e.loadService(ctx, serviceID)
	if err != nil {
		return nil, e.fail(span, "best_doctor", started, err)
	}
	doctors, err := e.schedules.ListActiveDoctors(ctx, clinicID)
	if err != nil {
		return nil, e.fail(span, "best_doctor", started, err)
	}
	appts, err := e.bookings.ListBlocking(ctx, clinicID, date)
	if err != nil {
		return nil, e.fail(span, "best_doctor", started, err)
	}

	match, ok := SelectBestDoctor(doctors, svc, date, startMins, appts)
	if !ok {
		e.metrics.ObserveQuery("best_doctor", "not_found", e.now().Sub(started).Seconds())
		return nil, ErrNoDoctorAvailable
	}
	e.metrics.ObserveQuery("best_doctor", "ok", e.now().Sub(started).Seconds())
	return match, nil
}

// FindNextAvailable scans forward from startDate, one day at a time, and
// returns the earliest available slot across all active doctors. The scan is
// a bounded linear walk over the configured horizon; when every day within
// it is booked solid the result is ErrNoSlotAvailable, and the day after the
// horizon is never examined. A zero or past startDate is clamped to today in
// the clinic's timezone.
func (e *Engine) FindNextAvailable(ctx context.Context, clinicID string, startDate time.Time) (*Slot, error) {
	ctx, span := engineTracer.Start(ctx, "availability.next_slot")
	defer span.End()
	span.SetAttributes(attribute.String("clinicdesk.clinic_id", clinicID))
	started := e.now()

	clinic, err := e.schedules.GetClinic(ctx, clinicID)
	if err != nil {
		return nil, e.fail(span, "next_slot", started, err)
	}
	loc := clinic.Location()
	today := civilDate(e.now().In(loc))
	if startDate.IsZero() || startDate.Before(today) {
		startDate = today
	}

	doctors, err := e.schedules.ListActiveDoctors(ctx, clinicID)
	if err != nil {
		return nil, e.fail(span, "next_slot", started, err)
	}
	defaultDuration := func(d *schedule.Doctor) int { return d.DefaultDurationMins }

	for offset := 0; offset < e.horizonDays; offset++ {
		date := startDate.AddDate(0, 0, offset)
		appts, err := e.bookings.ListBlocking(ctx, clinicID, date)
		if err != nil {
			return nil, e.fail(span, "next_slot", started, err)
		}

		// On today's scan, slots that have already begun are not bookable.
		minStart := -1
		if date.Equal(today) {
			localNow := e.now().In(loc)
			minStart = localNow.Hour()*60 + localNow.Minute()
		}

		for _, slot := range GenerateClinicSlots(doctors, date, defaultDuration, appts) {
			if !slot.Available || slot.Start < minStart {
				continue
			}
			e.metrics.ObserveQuery("next_slot", "ok", e.now().Sub(started).Seconds())
			found := slot
			return &found, nil
		}
	}

	e.metrics.ObserveQuery("next_slot", "not_found", e.now().Sub(started).Seconds())
	return nil, ErrNoSlotAvailable
}

// GetCapacityRange computes one snapshot per calendar day from start through
// end inclusive, ascending. Ranges longer than the configured cap are
// rejected with ErrRangeTooLarge before any work happens. Days are
// independent, so they are evaluated by a small worker pool writing into an
// index-addressed slice; output order never depends on scheduling.
func (e *Engine) GetCapacityRange(ctx context.Context, clinicID string, start, end time.Time) ([]CapacitySnapshot, error) {
	ctx, span := engineTracer.Start(ctx, "availability.capacity_range")
	defer span.End()
	span.SetAttributes(
		attribute.String("clinicdesk.clinic_id", clinicID),
		attribute.String("clinicdesk.start", start.Format(DateFormat)),
		attribute.String("clinicdesk.end", end.Format(DateFormat)),
	)
	started := e.now()

	if end.Before(start) {
		return nil, e.fail(span, "capacity_range", started, ErrInvalidRange)
	}
	days := daysInclusive(start, end)
	if days > e.rangeMaxDays {
		return nil, e.fail(span, "capacity_range", started, ErrRangeTooLarge)
	}

	doctors, err := e.schedules.ListActiveDoctors(ctx, clinicID)
	if err != nil {
		return nil, e.fail(span, "capacity_range", started, err)
	}

	snapshots := make([]CapacitySnapshot, days)
	jobs := make(chan int)
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	workers := e.rangeWorkers
	if workers > days {
		workers = days
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for offset := range jobs {
				snap, err := e.computeCapacityDay(ctx, clinicID, start.AddDate(0, 0, offset), doctors)
				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = err
					}
				} else {
					snapshots[offset] = *snap
				}
				mu.Unlock()
			}
		}()
	}
	for offset := 0; offset < days; offset++ {
		jobs <- offset
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, e.fail(span, "capacity_range", started, firstErr)
	}
	e.metrics.ObserveQuery("capacity_range", "ok", e.now().Sub(started).Seconds())
	return snapshots, nil
}

// computeCapacityDay fetches the day's ledger and aggregates capacity.
// doctors may be pre-fetched by the caller; nil loads them here.
func (e *Engine) computeCapacityDay(ctx context.Context, clinicID string, date time.Time, doctors []schedule.Doctor) (*CapacitySnapshot, error) {
	if doctors == nil {
		var err error
		doctors, err = e.schedules.ListActiveDoctors(ctx, clinicID)
		if err != nil {
			return nil, err
		}
	}
	appts, err := e.bookings.ListBlocking(ctx, clinicID, date)
	if err != nil {
		return nil, err
	}
	snap := ComputeCapacity(clinicID, date, doctors, appts)
	return &snap, nil
}

// loadService resolves an optional service id; empty means none.
func (e *Engine) loadService(ctx context.Context, serviceID string) (*schedule.Service, error) {
	if serviceID == "" {
		return nil, nil
	}
	return e.schedules.GetService(ctx, serviceID)
}

func (e *Engine) fail(span trace.Span, op string, started time.Time, err error) error {
	span.RecordError(err)
	e.metrics.ObserveQuery(op, "error", e.now().Sub(started).Seconds())
	return err
}

// civilDate truncates a local timestamp to its calendar day, normalized to
// UTC midnight so date arithmetic is DST-proof.
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysInclusive(start, end time.Time) int {
	return int(civilDate(end).Sub(civilDate(start)).Hours()/24) + 1
}
