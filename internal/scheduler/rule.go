package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser accepts standard 5-field cron expressions
// (minute hour day month weekday).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// rule is one registered recurring firing. The weekly newsletter registers
// exactly one.
type rule struct {
	spec      string
	sched     cron.Schedule
	next      time.Time
	lastFired time.Time
}

func parseRule(spec string, now time.Time) (rule, error) {
	sched, err := cronParser.Parse(spec)
	if err != nil {
		return rule{}, fmt.Errorf("invalid cron expression %q: %w", spec, err)
	}
	return rule{spec: spec, sched: sched, next: sched.Next(now)}, nil
}

// fireDue marks every due rule as fired at now and advances its next firing.
// It reports whether any rule was due.
func fireDue(rules []rule, now time.Time) bool {
	due := false
	for i := range rules {
		if rules[i].next.IsZero() || rules[i].next.After(now) {
			continue
		}
		due = true
		rules[i].lastFired = now
		rules[i].next = rules[i].sched.Next(now)
	}
	return due
}

// nextFire returns the earliest upcoming firing among rules; ok is false
// when no rules are registered.
func nextFire(rules []rule) (next time.Time, ok bool) {
	for _, r := range rules {
		if r.next.IsZero() {
			continue
		}
		if !ok || r.next.Before(next) {
			next = r.next
			ok = true
		}
	}
	return next, ok
}
