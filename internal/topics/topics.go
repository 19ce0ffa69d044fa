// Package topics holds the fixed catalog of newsletter topics and
// subscription validation rules.
package topics

import (
	"errors"
	"fmt"
)

// MaxPerSubscriber caps how many topics a single subscription may select.
const MaxPerSubscriber = 3

// Available lists the topics subscribers can choose from.
var Available = []string{
	"LLMs released this week",
	"Coding tools and IDEs",
	"Agentic AI systems",
	"AI tools for business workflows",
	"AI tools for personal productivity",
	"Computer vision and image AI",
	"Natural language processing",
	"AI research papers",
	"AI startup news",
	"AI ethics and regulation",
}

var available = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Available))
	for _, t := range Available {
		m[t] = struct{}{}
	}
	return m
}()

// IsAvailable reports whether t is part of the catalog.
func IsAvailable(t string) bool {
	_, ok := available[t]
	return ok
}

// Validate checks a subscription's topic selection.
func Validate(ts []string) error {
	if len(ts) == 0 {
		return errors.New("please select at least one topic")
	}
	if len(ts) > MaxPerSubscriber {
		return fmt.Errorf("you can select maximum %d topics", MaxPerSubscriber)
	}
	for _, t := range ts {
		if !IsAvailable(t) {
			return fmt.Errorf("invalid topic: %s", t)
		}
	}
	return nil
}
