package domain

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// Filter selects articles for the board view. Zero-valued fields match everything.
type Filter struct {
	Status Status
	Query  string
	Date   string
}

func (f Filter) Validate() error {
	if f.Status != "" && !f.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, f.Status)
	}
	if f.Date != "" {
		if _, err := time.Parse(DateLayout, f.Date); err != nil {
			return fmt.Errorf("%w: date must be YYYY-MM-DD, got %q", ErrValidation, f.Date)
		}
	}
	return nil
}

func (f Filter) Match(a Article) bool {
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(a.Topic), q) && !strings.Contains(strings.ToLower(a.Title), q) {
			return false
		}
	}
	if f.Date != "" {
		if a.PublishedAt == nil || a.PublishedAt.UTC().Format(DateLayout) != f.Date {
			return false
		}
	}
	return true
}

// StatusCounts maps every status to the number of articles in it.
type StatusCounts map[Status]int

// NewStatusCounts returns counts with every status present at zero.
func NewStatusCounts() StatusCounts {
	counts := make(StatusCounts, len(Statuses))
	for _, s := range Statuses {
		counts[s] = 0
	}
	return counts
}

func (c StatusCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}
