package market

import "time"

// Status is the current trading session phase
type Status string

const (
	StatusClosed     Status = "CLOSED"
	StatusPreMarket  Status = "PRE_MARKET"
	StatusOpen       Status = "OPEN"
	StatusAfterHours Status = "AFTER_HOURS"
)

// Clock computes the session phase from wall-clock time and exchange
// calendar rules. It is a pure value: no side effects, no hidden state.
type Clock struct {
	location *time.Location

	// Session boundaries in minutes since local midnight.
	// All windows are half-open: open <= t < close.
	preMarketOpen int
	regularOpen   int
	regularClose  int
	afterClose    int
}

// NewClock creates a clock for the given exchange timezone and boundaries
func NewClock(loc *time.Location, preMarketOpen, regularOpen, regularClose, afterClose int) *Clock {
	return &Clock{
		location:      loc,
		preMarketOpen: preMarketOpen,
		regularOpen:   regularOpen,
		regularClose:  regularClose,
		afterClose:    afterClose,
	}
}

// NewUSEquityClock returns the clock for US equity exchanges:
// pre-market 04:00-09:30, regular 09:30-16:00, after-hours 16:00-20:00 ET.
func NewUSEquityClock() *Clock {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// tzdata is compiled in on every supported platform
		panic(err)
	}
	return NewClock(loc, 4*60, 9*60+30, 16*60, 20*60)
}

// StatusAt returns the session phase for the given instant.
// Weekends are always closed.
func (c *Clock) StatusAt(now time.Time) Status {
	local := now.In(c.location)

	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return StatusClosed
	}

	minutes := local.Hour()*60 + local.Minute()

	switch {
	case minutes >= c.preMarketOpen && minutes < c.regularOpen:
		return StatusPreMarket
	case minutes >= c.regularOpen && minutes < c.regularClose:
		return StatusOpen
	case minutes >= c.regularClose && minutes < c.afterClose:
		return StatusAfterHours
	default:
		return StatusClosed
	}
}

// Now returns the session phase for the current instant
func (c *Clock) Now() Status {
	return c.StatusAt(time.Now())
}
