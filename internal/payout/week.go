package payout

import "time"

// GetWeekRange returns the platform week containing t, fixed to loc: a
// week starts Sunday 00:00 local and ends Sunday 00:00 local next, so
// weekEnd is exclusive (§4.7). A delivery at Sunday 00:00:01 local
// belongs to the new week, not the old one (§8 scenario S6) — the
// boundary instant itself (00:00:00.000) belongs to the week it starts.
func GetWeekRange(t time.Time, loc *time.Location) (start, end time.Time) {
	local := t.In(loc)
	y, m, d := local.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)

	// time.Sunday == 0; daysSinceSunday counts back to the most recent
	// Sunday midnight at or before local.
	daysSinceSunday := int(local.Weekday())
	start = midnight.AddDate(0, 0, -daysSinceSunday)
	end = start.AddDate(0, 0, 7)
	return start, end
}
