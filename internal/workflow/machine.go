// Package workflow holds the editorial status transition table.
//
// Every status may move to every other status unless a rule blocks it. Each
// target status owns an entry effect on the publication fields: entering
// PUBLISHED stamps them, entering anything else clears them.
package workflow

import (
	"fmt"
	"strings"
	"time"

	"newsroom/internal/config"
	"newsroom/internal/domain"
)

type effect func(m *Machine, a *domain.Article, at time.Time)

var entryEffects = map[domain.Status]effect{
	domain.StatusDraft:     clearPublication,
	domain.StatusReview:    clearPublication,
	domain.StatusApproved:  clearPublication,
	domain.StatusPublished: stampPublication,
	domain.StatusCancelled: clearPublication,
}

type Machine struct {
	publicBaseURL string
	blocked       map[domain.Status]map[domain.Status]bool
}

func New(cfg config.EditorialConfig) *Machine {
	m := &Machine{
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		blocked:       make(map[domain.Status]map[domain.Status]bool),
	}
	if cfg.CancelledTerminal {
		m.Block(domain.StatusCancelled, domain.StatusDraft, domain.StatusReview, domain.StatusApproved, domain.StatusPublished)
	}
	return m
}

// Block forbids moving from one status to the given targets.
func (m *Machine) Block(from domain.Status, to ...domain.Status) {
	if m.blocked[from] == nil {
		m.blocked[from] = make(map[domain.Status]bool)
	}
	for _, t := range to {
		m.blocked[from][t] = true
	}
}

func (m *Machine) Allowed(from, to domain.Status) bool {
	return !m.blocked[from][to]
}

// Apply returns a new record with the status changed and the entry effect of
// the target status applied. The input is not modified.
func (m *Machine) Apply(a domain.Article, to domain.Status, at time.Time) (domain.Article, error) {
	eff, ok := entryEffects[to]
	if !ok {
		return domain.Article{}, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, to)
	}
	if !m.Allowed(a.Status, to) {
		return domain.Article{}, fmt.Errorf("%w: %s -> %s", domain.ErrTransitionNotAllowed, a.Status, to)
	}

	next := a.Clone()
	next.Status = to
	eff(m, &next, at)
	next.UpdatedAt = at
	return next, nil
}

func (m *Machine) PublishedURL(id string) string {
	return m.publicBaseURL + "/articles/" + id
}

func stampPublication(m *Machine, a *domain.Article, at time.Time) {
	// first publication date wins
	if a.PublishedAt == nil {
		t := at.UTC()
		a.PublishedAt = &t
	}
	if a.PublishedURL == nil {
		u := m.PublishedURL(a.ID)
		a.PublishedURL = &u
	}
}

func clearPublication(_ *Machine, a *domain.Article, _ time.Time) {
	a.PublishedAt = nil
	a.PublishedURL = nil
}
