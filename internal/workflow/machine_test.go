package workflow

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsroom/internal/config"
	"newsroom/internal/domain"
)

func newMachine(terminal bool) *Machine {
	return New(config.EditorialConfig{
		PublicBaseURL:     "https://news.example.com/",
		CancelledTerminal: terminal,
	})
}

func assertPublicationInvariant(t *testing.T, a domain.Article) {
	t.Helper()
	published := a.Status == domain.StatusPublished
	assert.Equal(t, published, a.PublishedAt != nil, "publishedAt presence for %s", a.Status)
	assert.Equal(t, published, a.PublishedURL != nil, "publishedUrl presence for %s", a.Status)
}

func TestApply_AnyToAny(t *testing.T) {
	m := newMachine(false)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for _, from := range domain.Statuses {
		for _, to := range domain.Statuses {
			start, err := m.Apply(domain.Article{ID: "a1", Status: domain.StatusDraft}, from, now)
			require.NoError(t, err)

			next, err := m.Apply(start, to, now.Add(time.Minute))
			require.NoError(t, err, "%s -> %s", from, to)
			assert.Equal(t, to, next.Status)
			assertPublicationInvariant(t, next)
		}
	}
}

func TestApply_PublishStampsOnce(t *testing.T) {
	m := newMachine(false)
	first := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	published, err := m.Apply(domain.Article{ID: "a1", Status: domain.StatusApproved}, domain.StatusPublished, first)
	require.NoError(t, err)
	require.NotNil(t, published.PublishedAt)
	require.NotNil(t, published.PublishedURL)
	assert.Equal(t, first, *published.PublishedAt)
	assert.Equal(t, "https://news.example.com/articles/a1", *published.PublishedURL)

	again, err := m.Apply(published, domain.StatusPublished, first.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, first, *again.PublishedAt)
	assert.Equal(t, *published.PublishedURL, *again.PublishedURL)
}

func TestApply_LeavingPublishedClears(t *testing.T) {
	m := newMachine(false)
	now := time.Now()

	published, err := m.Apply(domain.Article{ID: "a1"}, domain.StatusPublished, now)
	require.NoError(t, err)

	back, err := m.Apply(published, domain.StatusReview, now)
	require.NoError(t, err)
	assert.Nil(t, back.PublishedAt)
	assert.Nil(t, back.PublishedURL)

	// the input record is left untouched
	assert.NotNil(t, published.PublishedAt)
}

func TestApply_UnknownStatus(t *testing.T) {
	_, err := newMachine(false).Apply(domain.Article{ID: "a1", Status: domain.StatusDraft}, "ARCHIVED", time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestApply_CancelledTerminal(t *testing.T) {
	m := newMachine(true)
	cancelled := domain.Article{ID: "a1", Status: domain.StatusCancelled}

	for _, to := range []domain.Status{domain.StatusDraft, domain.StatusReview, domain.StatusApproved, domain.StatusPublished} {
		_, err := m.Apply(cancelled, to, time.Now())
		assert.ErrorIs(t, err, domain.ErrTransitionNotAllowed, "CANCELLED -> %s", to)
	}

	same, err := m.Apply(cancelled, domain.StatusCancelled, time.Now())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCancelled, same.Status)

	// other statuses are unaffected by the rule
	_, err = m.Apply(domain.Article{ID: "a2", Status: domain.StatusReview}, domain.StatusCancelled, time.Now())
	assert.NoError(t, err)
}
