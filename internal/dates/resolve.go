// Package dates turns natural-language or ISO date expressions into calendar dates.
package dates

import (
	"regexp"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// ISOLayout is the layout used for dates sent to the forecast service.
const ISOLayout = "2006-01-02"

var (
	isoDate     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	weekdayOnly = regexp.MustCompile(`^(?:this\s+)?(mon|tues?|wed(?:nes)?|thu(?:rs)?|fri|sat(?:ur)?|sun)(?:day)?$`)
	monthName   = regexp.MustCompile(`\b(?:jan|feb|mar|apr|may|jun|jul|aug|sept?|oct|nov|dec)`)
	explicitYr  = regexp.MustCompile(`\b\d{4}\b`)
)

// Resolver resolves date expressions relative to its clock.
type Resolver struct {
	Now    func() time.Time
	parser *when.Parser
}

// NewResolver returns a Resolver using the wall clock.
func NewResolver() *Resolver {
	return &Resolver{Now: time.Now, parser: newParser()}
}

func newParser() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}

// Today returns the resolver's current date.
func (r *Resolver) Today() time.Time {
	return truncate(r.now())
}

// Resolve parses expr relative to the resolver's clock.
func (r *Resolver) Resolve(expr string) (time.Time, bool) {
	if r.parser == nil {
		r.parser = newParser()
	}
	return resolve(r.parser, expr, r.now())
}

func (r *Resolver) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// Resolve parses expr relative to now. The boolean is false when expr is empty or
// could not be understood; that is an ordinary outcome, not an error.
func Resolve(expr string, now time.Time) (time.Time, bool) {
	return resolve(newParser(), expr, now)
}

func resolve(p *when.Parser, expr string, now time.Time) (time.Time, bool) {
	text := strings.ToLower(strings.TrimSpace(expr))
	text = strings.TrimSpace(strings.TrimPrefix(text, "on "))
	if text == "" {
		return time.Time{}, false
	}
	today := truncate(now)

	switch text {
	case "today", "now":
		return today, true
	case "tomorrow":
		return today.AddDate(0, 0, 1), true
	case "this weekend":
		ahead := (int(time.Saturday) - int(today.Weekday()) + 7) % 7
		return today.AddDate(0, 0, ahead), true
	}

	if isoDate.MatchString(text) {
		t, err := time.ParseInLocation(ISOLayout, text, now.Location())
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}

	res, err := p.Parse(text, now)
	if err != nil || res == nil {
		return time.Time{}, false
	}
	// The match must be the whole expression, not a date word inside it.
	if res.Index != 0 || len(res.Text) != len(text) {
		return time.Time{}, false
	}
	date := truncate(res.Time)

	// Without an explicit year, a past result means the next occurrence.
	if date.Before(today) && !explicitYr.MatchString(text) {
		switch {
		case weekdayOnly.MatchString(text):
			date = date.AddDate(0, 0, 7)
		case monthName.MatchString(text):
			date = date.AddDate(1, 0, 0)
		}
	}
	return date, true
}

func truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
