package market_hours

import (
	"time"

	"github.com/aristath/marketadvisor/internal/clients/yahoo"
)

// Session is the US equity trading session in effect
type Session string

const (
	SessionPreMarket  Session = "pre_market"
	SessionRegular    Session = "regular"
	SessionAfterHours Session = "after_hours"
	SessionClosed     Session = "closed"
)

// clock is an hour and minute in exchange local time
type clock struct {
	Hour   int
	Minute int
}

func (c clock) on(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
}

// SessionHours holds the local-time session boundaries
type SessionHours struct {
	PreMarketOpen   clock
	RegularOpen     clock
	RegularClose    clock
	AfterHoursClose clock
	EarlyClose      clock
	EarlyAfterClose clock
}

// USSessionHours are the NYSE/Nasdaq session times in America/New_York
var USSessionHours = SessionHours{
	PreMarketOpen:   clock{4, 0},
	RegularOpen:     clock{9, 30},
	RegularClose:    clock{16, 0},
	AfterHoursClose: clock{20, 0},
	EarlyClose:      clock{13, 0},
	EarlyAfterClose: clock{17, 0},
}

// MarketStatus represents the current status of the US market
type MarketStatus struct {
	Exchange   string       `json:"exchange"`
	Timezone   string       `json:"timezone"`
	LocalTime  string       `json:"local_time"`
	Session    Session      `json:"session"`
	Open       bool         `json:"open"` // regular session only
	Holiday    string       `json:"holiday,omitempty"`
	EarlyClose bool         `json:"early_close,omitempty"`
	ClosesAt   string       `json:"closes_at,omitempty"`  // end of the current session
	OpensAt    string       `json:"opens_at,omitempty"`   // next regular open, when not in regular session
	OpensDate  string       `json:"opens_date,omitempty"` // set when the next open is not today
	Reference  *yahoo.Quote `json:"reference,omitempty"`
}
