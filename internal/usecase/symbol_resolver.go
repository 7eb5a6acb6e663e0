package usecase

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/raghav/banknifty_flip/internal/domain"
)

// Contracts closer than this many calendar days to expiry roll to the
// next month.
const expiryRollDays = 5

// SymbolResolver maps a spot price and option side to a tradable NFO
// contract symbol. Pure computation, no I/O.
type SymbolResolver struct {
	Underlying string
	StrikeStep int
}

func NewSymbolResolver(underlying string, strikeStep int) *SymbolResolver {
	return &SymbolResolver{
		Underlying: underlying,
		StrikeStep: strikeStep,
	}
}

// Resolve computes the contract symbol for the given spot price and
// side, e.g. Resolve(44650, CE, 2025-08-10) -> "BANKNIFTY25AUG44600CE".
// CE strikes round down to the step below spot, PE strikes round up to
// the step above. This is a fixed offset convention, not nearest-strike.
func (r *SymbolResolver) Resolve(spot float64, side domain.OptionSide, asOf time.Time) (string, error) {
	if spot <= 0 || math.IsNaN(spot) || math.IsInf(spot, 0) {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidPrice, spot)
	}
	if !side.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidSide, string(side))
	}

	step := r.StrikeStep
	strike := int(spot/float64(step)) * step
	if side == domain.SidePE {
		strike += step
	}

	expiry := r.Expiry(asOf)
	code := fmt.Sprintf("%02d%s", expiry.Year()%100, strings.ToUpper(expiry.Month().String()[:3]))

	return fmt.Sprintf("%s%s%d%s", r.Underlying, code, strike, string(side)), nil
}

// Expiry returns the contract expiry selected for asOf: the last
// Thursday of the current month, rolled to the next month once fewer
// than expiryRollDays calendar days remain.
func (r *SymbolResolver) Expiry(asOf time.Time) time.Time {
	expiry := lastThursday(asOf.Year(), asOf.Month())
	if calendarDaysBetween(asOf, expiry) < expiryRollDays {
		next := time.Date(asOf.Year(), asOf.Month()+1, 1, 0, 0, 0, 0, time.UTC)
		expiry = lastThursday(next.Year(), next.Month())
	}
	return expiry
}

func lastThursday(year int, month time.Month) time.Time {
	// Day 0 of the next month is the last day of this one.
	d := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != time.Thursday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

func calendarDaysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
