// Package activity derives card metrics from fetched stats: the role badge,
// the current streak and the trailing month total. Every function is pure.
package activity

import (
	"math"
	"time"

	"github.com/okian/statuscard/internal/domain/model"
)

const (
	// MonthWindowDays is how many trailing calendar days count as "this month".
	MonthWindowDays = 30

	// DateLabelLayout renders short month+day labels such as "Mar 4".
	DateLabelLayout = "Jan 2"
)

// Role keys. They double as the suffix of the icon ids in the card template.
const (
	RoleGoblin    = "goblin"
	RoleHuman     = "human"
	RoleGrass     = "grass"
	RoleCaffeine  = "caffeine"
	RoleHibernate = "hibernate"
	RoleAncient   = "ancient"
)

type tier struct {
	maxHours float64
	role     model.Role
}

// tiers is evaluated in order; upper bounds are inclusive.
var tiers = []tier{
	{2, model.Role{Key: RoleGoblin, Name: "Full-on Goblin Mode", Description: "Writing code faster than I can think."}},
	{12, model.Role{Key: RoleHuman, Name: "Productive Human", Description: "Caffeine levels stable. Systems operational."}},
	{24, model.Role{Key: RoleGrass, Name: "Touching Grass", Description: "Outside... what is that bright light?"}},
	{48, model.Role{Key: RoleCaffeine, Name: "Caffeine Critical", Description: "System shutting down. Send coffee."}},
	{168, model.Role{Key: RoleHibernate, Name: "Hibernating", Description: "Recharging neural networks."}},
	{math.Inf(1), model.Role{Key: RoleAncient, Name: "Ancient One", Description: "Last seen eons ago..."}},
}

// Roles returns all roles in tier order.
func Roles() []model.Role {
	out := make([]model.Role, len(tiers))
	for i, t := range tiers {
		out[i] = t.role
	}
	return out
}

// ClassifyRole maps hours since the last push to a role.
func ClassifyRole(hours float64) model.Role {
	for _, t := range tiers {
		if hours <= t.maxHours {
			return t.role
		}
	}
	// NaN falls through every comparison.
	return tiers[len(tiers)-1].role
}

// HoursSince returns the elapsed hours between t and now.
func HoursSince(t, now time.Time) float64 {
	return now.Sub(t).Hours()
}

// ComputeStreak counts consecutive active days walking back from the most
// recent day. A zero count on the most recent day is treated as "today not
// counted yet" and skipped. End is always now's label.
func ComputeStreak(cal model.ContributionCalendar, now time.Time) model.Streak {
	days := cal.Days()
	end := now.Format(DateLabelLayout)
	streak := model.Streak{Start: end, End: end}
	if len(days) == 0 {
		return streak
	}

	i := len(days) - 1
	if days[i].Count == 0 {
		i--
	}
	for ; i >= 0; i-- {
		if days[i].Count <= 0 {
			break
		}
		streak.Days++
		streak.Start = days[i].Date.Format(DateLabelLayout)
	}
	return streak
}

// ComputeMonthTotal sums the last MonthWindowDays entries of the calendar.
func ComputeMonthTotal(cal model.ContributionCalendar) int {
	days := cal.Days()
	if len(days) > MonthWindowDays {
		days = days[len(days)-MonthWindowDays:]
	}
	total := 0
	for _, d := range days {
		total += d.Count
	}
	return total
}

// Summary bundles the derived values of one card.
type Summary struct {
	Hours      float64
	Role       model.Role
	Streak     model.Streak
	MonthTotal int
}

// Derive computes every derived value for stats at time now.
func Derive(stats model.Stats, now time.Time) Summary {
	hours := HoursSince(stats.LastPush, now)
	return Summary{
		Hours:      hours,
		Role:       ClassifyRole(hours),
		Streak:     ComputeStreak(stats.Calendar, now),
		MonthTotal: ComputeMonthTotal(stats.Calendar),
	}
}
