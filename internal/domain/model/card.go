// Package model contains domain models passed between layers.
package model

import "time"

// Defaults used when upstream data is missing.
const (
	DefaultLanguage = "Code"
	ZeroCommitHash  = "0000000"
)

// Fetch modes reported by stats sources.
const (
	ModeGraphQL = "graphql"
	ModeREST    = "rest"
)

// ContributionDay is a single calendar day and its contribution count.
type ContributionDay struct {
	Date  time.Time
	Count int
}

// ContributionWeek groups days in chronological order.
type ContributionWeek struct {
	Days []ContributionDay
}

// ContributionCalendar is the trailing contribution history of a user.
// Weeks and the days inside them are chronologically ascending.
type ContributionCalendar struct {
	Total int
	Weeks []ContributionWeek
}

// Days flattens all weeks into one chronological slice.
func (c ContributionCalendar) Days() []ContributionDay {
	n := 0
	for _, w := range c.Weeks {
		n += len(w.Days)
	}
	days := make([]ContributionDay, 0, n)
	for _, w := range c.Weeks {
		days = append(days, w.Days...)
	}
	return days
}

// Sum recomputes the total from the daily counts.
func (c ContributionCalendar) Sum() int {
	total := 0
	for _, w := range c.Weeks {
		for _, d := range w.Days {
			total += d.Count
		}
	}
	return total
}

// Stats is everything a card needs from the upstream source.
type Stats struct {
	Username       string
	TotalCommits   int
	Calendar       ContributionCalendar
	LastPush       time.Time
	LastCommitHash string
	RecentLanguage string
	TopLanguage    string
	Mode           string // ModeGraphQL or ModeREST
}

// Role is the mood badge selected from push recency.
type Role struct {
	Key         string
	Name        string
	Description string
}

// Streak summarises the current run of active days.
type Streak struct {
	Days  int
	Start string // short date label, e.g. "Mar 4"
	End   string
}
