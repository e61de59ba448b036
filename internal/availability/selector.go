package availability

import (
	"sort"
	"strings"
	"time"

	"github.com/clinicdesk/appointment-platform/internal/ledger"
	"github.com/clinicdesk/appointment-platform/internal/schedule"
)

// SelectBestDoctor ranks the clinic's doctors for the exact interval starting
// at startMins on date and returns the best match, or false when no eligible
// doctor is free. The candidate interval uses the service duration when the
// service fixes one, else each doctor's default.
//
// Eligibility: active, qualified for the service (empty set qualifies all),
// a positive resolved duration, the interval inside one of the doctor's
// working windows, and no blocking appointment overlapping it.
//
// Ranking: specialty matching the service category first, then fewest
// blocking appointments that day, then doctor id ascending. The id tie-break
// keeps the result deterministic.
func SelectBestDoctor(doctors []schedule.Doctor, svc *schedule.Service, date time.Time, startMins int, appts []ledger.Appointment) (*DoctorMatch, bool) {
	type candidate struct {
		match          DoctorMatch
		specialtyMatch bool
	}

	var candidates []candidate
	for i := range doctors {
		d := &doctors[i]
		if !d.Active || !svc.Permits(d.ID) {
			continue
		}
		duration := svc.DurationFor(d)
		if duration <= 0 {
			continue
		}
		end := startMins + duration
		if !withinWorkingHours(d, date, startMins, end) {
			continue
		}
		blocking := blockingFor(d.ID, appts)
		if overlapsAny(blocking, startMins, end) {
			continue
		}
		candidates = append(candidates, candidate{
			match: DoctorMatch{
				DoctorID:     d.ID,
				Name:         d.Name,
				Specialty:    d.Specialty,
				DurationMins: duration,
				Load:         len(blocking),
			},
			specialtyMatch: specialtyMatches(d, svc),
		})
	}
	if len(candidates) == 0 {
		return nil, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.specialtyMatch != b.specialtyMatch {
			return a.specialtyMatch
		}
		if a.match.Load != b.match.Load {
			return a.match.Load < b.match.Load
		}
		return a.match.DoctorID < b.match.DoctorID
	})

	best := candidates[0].match
	return &best, true
}

// withinWorkingHours reports whether [start, end) fits inside one of the
// doctor's open intervals for the date's weekday.
func withinWorkingHours(d *schedule.Doctor, date time.Time, start, end int) bool {
	for _, iv := range d.Hours.ForWeekday(date.Weekday()) {
		if start >= iv.Start && end <= iv.End {
			return true
		}
	}
	return false
}

func specialtyMatches(d *schedule.Doctor, svc *schedule.Service) bool {
	if svc == nil || svc.Category == "" || d.Specialty == "" {
		return false
	}
	return strings.EqualFold(d.Specialty, svc.Category)
}
