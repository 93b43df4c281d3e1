// Package market_hours classifies the US equity trading session.
package market_hours

import (
	"context"
	"sync"
	"time"
	_ "time/tzdata" // America/New_York on hosts without a zoneinfo database

	"github.com/aristath/marketadvisor/internal/clients/yahoo"
	"github.com/rs/zerolog"
)

const (
	exchangeName    = "XNYS"
	referenceSymbol = "SPY"
	quoteTimeout    = 5 * time.Second
)

// QuoteProvider returns the latest quote for a symbol
type QuoteProvider interface {
	GetQuote(ctx context.Context, symbol string) (*yahoo.Quote, error)
}

// Service reports US market sessions, optionally attaching a reference quote
type Service struct {
	location *time.Location
	hours    SessionHours
	quotes   QuoteProvider
	now      func() time.Time
	log      zerolog.Logger

	mu           sync.Mutex
	holidayCache map[int][]Holiday
}

// NewService creates the market hours service. quotes may be nil.
func NewService(quotes QuoteProvider, log zerolog.Logger) *Service {
	return &Service{
		location:     mustLoadLocation("America/New_York"),
		hours:        USSessionHours,
		quotes:       quotes,
		now:          time.Now,
		log:          log.With().Str("component", "market_hours").Logger(),
		holidayCache: make(map[int][]Holiday),
	}
}

// Status returns the session in effect now, with the SPY quote when a
// provider is configured. Quote failures are logged and leave Reference nil.
func (s *Service) Status(ctx context.Context) *MarketStatus {
	status := s.StatusAt(s.now())
	if s.quotes == nil {
		return status
	}

	ctx, cancel := context.WithTimeout(ctx, quoteTimeout)
	defer cancel()

	quote, err := s.quotes.GetQuote(ctx, referenceSymbol)
	if err != nil {
		s.log.Warn().Err(err).Str("symbol", referenceSymbol).Msg("Failed to fetch reference quote")
		return status
	}
	status.Reference = quote
	return status
}

// StatusAt classifies t into a session
func (s *Service) StatusAt(t time.Time) *MarketStatus {
	local := t.In(s.location)
	status := &MarketStatus{
		Exchange:  exchangeName,
		Timezone:  s.location.String(),
		LocalTime: local.Format(time.RFC3339),
		Session:   SessionClosed,
	}

	if name, ok := s.HolidayOn(local); ok {
		status.Holiday = name
		s.setNextOpen(status, local)
		return status
	}
	if isWeekend(local) {
		s.setNextOpen(status, local)
		return status
	}

	regularClose, afterClose := s.hours.RegularClose.on(local), s.hours.AfterHoursClose.on(local)
	if isEarlyClose(local) {
		status.EarlyClose = true
		regularClose, afterClose = s.hours.EarlyClose.on(local), s.hours.EarlyAfterClose.on(local)
	}
	preOpen, regularOpen := s.hours.PreMarketOpen.on(local), s.hours.RegularOpen.on(local)

	switch {
	case inRange(local, preOpen, regularOpen):
		status.Session = SessionPreMarket
		status.ClosesAt = regularOpen.Format("15:04")
	case inRange(local, regularOpen, regularClose):
		status.Session = SessionRegular
		status.Open = true
		status.ClosesAt = regularClose.Format("15:04")
		return status
	case inRange(local, regularClose, afterClose):
		status.Session = SessionAfterHours
		status.ClosesAt = afterClose.Format("15:04")
	}

	s.setNextOpen(status, local)
	return status
}

// IsTradingDay reports whether the exchange holds a regular session on t's date
func (s *Service) IsTradingDay(t time.Time) bool {
	local := t.In(s.location)
	if isWeekend(local) {
		return false
	}
	_, holiday := s.HolidayOn(local)
	return !holiday
}

// HolidayOn returns the name of the holiday on t's date in exchange time
func (s *Service) HolidayOn(t time.Time) (string, bool) {
	local := t.In(s.location)
	for _, h := range s.Holidays(local.Year()) {
		if sameDay(h.Date, local) {
			return h.Name, true
		}
	}
	return "", false
}

// Holidays returns the full-day closures for year
func (s *Service) Holidays(year int) []Holiday {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.holidayCache[year]; ok {
		return cached
	}
	holidays := CalculateUSHolidays(year)
	s.holidayCache[year] = holidays
	return holidays
}

// setNextOpen fills OpensAt/OpensDate with the next regular open after local
func (s *Service) setNextOpen(status *MarketStatus, local time.Time) {
	// The longest run of closed days is a holiday weekend
	for i := 0; i < 7; i++ {
		day := local.AddDate(0, 0, i)
		if !s.IsTradingDay(day) {
			continue
		}
		open := s.hours.RegularOpen.on(day)
		if !open.After(local) {
			continue
		}
		status.OpensAt = open.Format("15:04")
		if !sameDay(open, local) {
			status.OpensDate = open.Format("2006-01-02")
		}
		return
	}
}

func isWeekend(t time.Time) bool {
	return t.Weekday() == time.Saturday || t.Weekday() == time.Sunday
}

// inRange reports start <= t < end
func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic("failed to load timezone: " + name + ": " + err.Error())
	}
	return loc
}
