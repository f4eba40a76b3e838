package chart

import (
	"time"

	"github.com/scmhub/calendar"
)

// sessionOpen is the time-of-day before which the previous day's bars are shown
const (
	sessionOpenHour   = 9
	sessionOpenMinute = 30
)

// TradingCalendar decides which days the Shanghai exchange trades.
// Falls back to Mon-Fri when the holiday calendar is unavailable.
type TradingCalendar struct {
	cal *calendar.Calendar
	loc *time.Location
}

// NewTradingCalendar loads the XSHG calendar
func NewTradingCalendar(loc *time.Location) *TradingCalendar {
	return &TradingCalendar{
		cal: calendar.GetCalendar("xshg"),
		loc: loc,
	}
}

// WeekdayCalendar treats every Mon-Fri as a trading day
func WeekdayCalendar(loc *time.Location) *TradingCalendar {
	return &TradingCalendar{loc: loc}
}

// IsTradingDay reports whether the exchange trades on date
func (tc *TradingCalendar) IsTradingDay(date time.Time) bool {
	date = date.In(tc.loc)
	if tc.cal == nil {
		wd := date.Weekday()
		return wd != time.Saturday && wd != time.Sunday
	}
	return tc.cal.IsBusinessDay(date)
}

// TradingDate returns the day whose bars a chart opened at now should show:
// today, or yesterday before the 09:30 open, rolled back to the last trading day
func (tc *TradingCalendar) TradingDate(now time.Time) time.Time {
	now = now.In(tc.loc)
	y, m, d := now.Date()
	date := time.Date(y, m, d, 0, 0, 0, 0, tc.loc)

	open := date.Add(sessionOpenHour*time.Hour + sessionOpenMinute*time.Minute)
	if now.Before(open) {
		date = date.AddDate(0, 0, -1)
	}

	// bounded so a broken calendar cannot spin forever
	for i := 0; i < 30 && !tc.IsTradingDay(date); i++ {
		date = date.AddDate(0, 0, -1)
	}
	return date
}
