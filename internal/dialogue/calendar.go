package dialogue

import "time"

const dateLayout = "2006-01-02"

// calendar yields the bookable dates: horizon days starting at today in the
// clinic's time zone, inclusive.
type calendar struct {
	loc     *time.Location
	horizon int
	now     func() time.Time
}

func (c calendar) today() time.Time {
	n := c.now().In(c.loc)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, c.loc)
}

// dates returns the horizon as YYYY-MM-DD strings.
func (c calendar) dates() []string {
	start := c.today()
	out := make([]string, 0, c.horizon)
	for i := 0; i < c.horizon; i++ {
		out = append(out, start.AddDate(0, 0, i).Format(dateLayout))
	}
	return out
}

// bounds returns the first and last bookable dates.
func (c calendar) bounds() (string, string) {
	start := c.today()
	return start.Format(dateLayout), start.AddDate(0, 0, c.horizon-1).Format(dateLayout)
}

// contains reports whether date (YYYY-MM-DD) lies within the horizon.
func (c calendar) contains(date string) bool {
	first, last := c.bounds()
	return date >= first && date <= last
}

// resolve turns a day/month/(year) triple into YYYY-MM-DD. Without a year the
// next occurrence on or after today is used. Impossible dates are rejected.
func (c calendar) resolve(day, month, year int) (string, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	today := c.today()
	explicit := year != 0
	if !explicit {
		year = today.Year()
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, c.loc)
	if t.Day() != day || int(t.Month()) != month {
		return "", false
	}
	if !explicit && t.Before(today) {
		t = t.AddDate(1, 0, 0)
		if t.Day() != day {
			return "", false
		}
	}
	return t.Format(dateLayout), true
}
