package usecase

import "time"

// MarketClock answers whether the NSE trading session is open. The
// session window is fixed 09:15-15:30 exchange-local time, inclusive of
// both endpoints. No holiday calendar is modeled.
type MarketClock struct {
	loc       *time.Location
	openHour  int
	openMin   int
	closeHour int
	closeMin  int
}

func NewMarketClock() *MarketClock {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// The IANA name is fixed; a missing tzdata entry leaves the
		// exchange offset as the only sane fallback.
		loc = time.FixedZone("IST", 5*3600+1800)
	}
	return &MarketClock{
		loc:       loc,
		openHour:  9,
		openMin:   15,
		closeHour: 15,
		closeMin:  30,
	}
}

func (c *MarketClock) IsOpen(now time.Time) bool {
	t := now.In(c.loc)
	open := time.Date(t.Year(), t.Month(), t.Day(), c.openHour, c.openMin, 0, 0, c.loc)
	end := time.Date(t.Year(), t.Month(), t.Day(), c.closeHour, c.closeMin, 0, 0, c.loc)
	return !t.Before(open) && !t.After(end)
}
