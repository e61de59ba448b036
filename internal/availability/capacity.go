package availability

import (
	"time"

	"github.com/clinicdesk/appointment-platform/internal/ledger"
	"github.com/clinicdesk/appointment-platform/internal/schedule"
)

// ComputeCapacity aggregates the slot output of every given doctor for one
// day into a clinic-wide snapshot. Capacity is measured at each doctor's
// default duration: it is a clinic health metric, independent of whatever
// service a particular caller is querying. A clinic with no active doctors
// yields a zero snapshot with utilization 0, never a division by zero.
func ComputeCapacity(clinicID string, date time.Time, doctors []schedule.Doctor, appts []ledger.Appointment) CapacitySnapshot {
	snap := CapacitySnapshot{
		ClinicID: clinicID,
		Date:     date.Format(DateFormat),
	}

	for i := range doctors {
		d := &doctors[i]
		for _, slot := range GenerateSlots(d, date, d.DefaultDurationMins, appts) {
			snap.Total++
			if !slot.Available {
				snap.Booked++
			}
		}
	}

	snap.Available = snap.Total - snap.Booked
	if snap.Total > 0 {
		snap.Utilization = float64(snap.Booked) / float64(snap.Total)
	}
	return snap
}
