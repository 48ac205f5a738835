package timeseries

import "time"

// WaterYearStart is the (month, day) a water year begins on. The zero
// value is not valid; use DefaultWaterYearStart or fill both fields.
type WaterYearStart struct {
	Month time.Month `json:"month" msgpack:"month"`
	Day   int        `json:"day" msgpack:"day"`
}

// DefaultWaterYearStart is the USGS convention: October 1, with the water
// year labeled by the calendar year it ends in.
func DefaultWaterYearStart() WaterYearStart {
	return WaterYearStart{Month: time.October, Day: 1}
}

// Valid reports whether the start is a real calendar date.
func (s WaterYearStart) Valid() bool {
	return s.Month >= time.January && s.Month <= time.December && s.Day >= 1 && s.Day <= 31
}

// WaterYear returns the water-year label for t. A reading exactly on the
// start date belongs to the water year beginning that date. With a
// January 1 start the label is the calendar year; otherwise the year the
// water year ends in (Oct 1 of year Y starts water year Y+1).
func (s WaterYearStart) WaterYear(t time.Time) int {
	if s.Month == time.January && s.Day == 1 {
		return t.Year()
	}
	m, d := t.Month(), t.Day()
	if m > s.Month || (m == s.Month && d >= s.Day) {
		return t.Year() + 1
	}
	return t.Year()
}
