package schedule

import "time"

// Match reports whether r has an occurrence inside w when evaluated in loc
// and returns that occurrence in UTC.
//
// Candidate dates are the owner's local dates spanned by the window. For
// the usual case this is the single local date of w.End; when the window
// crosses local midnight the previous date is checked too, so an
// occurrence shortly before midnight is still caught by a poll that runs
// shortly after it.
func Match(r Recurrence, loc *time.Location, w Window) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	first := w.Start.In(loc)
	last := w.End.In(loc)

	y, m, d := first.Date()
	for i := 0; ; i++ {
		day := time.Date(y, m, d+i, 12, 0, 0, 0, loc)
		if afterDate(day, last) {
			return time.Time{}, false
		}
		dy, dm, dd := day.Date()
		occ, ok := r.OccurrenceOn(dy, dm, dd, loc)
		if ok && w.Contains(occ) {
			return occ.UTC(), true
		}
	}
}

func afterDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	if ay != by {
		return ay > by
	}
	if am != bm {
		return am > bm
	}
	return ad > bd
}
