package domain

import (
	"sort"
	"time"
)

// Series is a symbol's daily bars ordered ascending by date with no
// duplicate dates. It is built once per run and treated as read-only
// afterwards.
type Series []Bar

// NewSeries sorts bars by date, drops duplicate dates (last write wins),
// and returns the resulting Series.
func NewSeries(bars []Bar) Series {
	if len(bars) == 0 {
		return nil
	}
	s := make(Series, len(bars))
	copy(s, bars)
	sort.SliceStable(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })

	out := s[:1]
	for _, b := range s[1:] {
		if b.Date.Equal(out[len(out)-1].Date) {
			out[len(out)-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

// BarOnOrAfter returns the earliest bar dated on or after d. When d falls
// on a weekend or holiday this forward-fills to the next trading day. The
// second return is false when d is past the last bar, which callers treat
// as "no fill", never as an error.
func (s Series) BarOnOrAfter(d time.Time) (Bar, bool) {
	i := sort.Search(len(s), func(i int) bool { return !s[i].Date.Before(d) })
	if i == len(s) {
		return Bar{}, false
	}
	return s[i], true
}

// Last returns the final bar of the series.
func (s Series) Last() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}
