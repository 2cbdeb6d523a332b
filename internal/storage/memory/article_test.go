package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsroom/internal/domain"
	"newsroom/testdata/utils"
)

func seed(t *testing.T, s *ArticleStore, articles ...domain.Article) {
	t.Helper()
	require.NoError(t, s.AppendBatch(context.Background(), articles))
}

func TestAppendBatch_Order(t *testing.T) {
	ctx := context.Background()
	s := NewArticleStore()

	seed(t, s, domain.Article{ID: "a1", Title: "one"}, domain.Article{ID: "a2", Title: "two"})
	seed(t, s, domain.Article{ID: "a3", Title: "three"})

	all, err := s.List(ctx, domain.Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a1", "a2", "a3"}, []string{all[0].ID, all[1].ID, all[2].ID})
}

func TestAppendBatch_DuplicateRejectsWholeBatch(t *testing.T) {
	ctx := context.Background()
	s := NewArticleStore()
	seed(t, s, domain.Article{ID: "a1"})

	err := s.AppendBatch(ctx, []domain.Article{{ID: "a2"}, {ID: "a1"}})
	require.Error(t, err)

	all, err := s.List(ctx, domain.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGet_NotFound(t *testing.T) {
	_, err := NewArticleStore().Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestUpdate_NotFound(t *testing.T) {
	called := false
	_, err := NewArticleStore().Update(context.Background(), "missing", func(a domain.Article) (domain.Article, error) {
		called = true
		return a, nil
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.False(t, called)
}

func TestUpdate_FnErrorLeavesRecord(t *testing.T) {
	ctx := context.Background()
	s := NewArticleStore()
	seed(t, s, domain.Article{ID: "a1", Title: "original"})

	boom := errors.New("boom")
	_, err := s.Update(ctx, "a1", func(a domain.Article) (domain.Article, error) {
		a.Title = "changed"
		return a, boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "original", got.Title)
}

func TestUpdate_KeepsProvenance(t *testing.T) {
	ctx := context.Background()
	s := NewArticleStore()
	sources := []domain.SourceURL{{URI: "https://a.example", Title: "A"}}
	seed(t, s, domain.Article{ID: "a1", Topic: "dam", SourceURLs: sources})

	_, err := s.Update(ctx, "a1", func(a domain.Article) (domain.Article, error) {
		a.ID = "other"
		a.Topic = "rewritten"
		a.SourceURLs = nil
		return a, nil
	})
	require.NoError(t, err)

	got, err := s.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "dam", got.Topic)
	assert.Equal(t, sources, got.SourceURLs)
}

func TestList_SnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	s := NewArticleStore()
	seed(t, s, domain.Article{ID: "a1", Title: "before", Status: domain.StatusDraft})

	view, err := s.List(ctx, domain.Filter{})
	require.NoError(t, err)

	_, err = s.Update(ctx, "a1", func(a domain.Article) (domain.Article, error) {
		a.Title = "after"
		a.Status = domain.StatusReview
		return a, nil
	})
	require.NoError(t, err)

	assert.Equal(t, "before", view[0].Title)
	assert.Equal(t, domain.StatusDraft, view[0].Status)

	// mutating a returned record does not leak into the store
	view[0].SourceURLs = append(view[0].SourceURLs, domain.SourceURL{URI: "x"})
	got, err := s.Get(ctx, "a1")
	require.NoError(t, err)
	assert.Empty(t, got.SourceURLs)
}

func TestList_Filters(t *testing.T) {
	ctx := context.Background()
	s := NewArticleStore()
	day := time.Date(2026, 5, 4, 22, 30, 0, 0, time.UTC)
	other := day.AddDate(0, 0, -1)

	draft := domain.Article{ID: "d1", Title: "Cataratas bate recorde", Topic: "Tourism numbers", Status: domain.StatusDraft}
	pub1 := domain.Article{ID: "p1", Title: "Itaipu opens spillway", Topic: "Dam", Status: domain.StatusPublished,
		PublishedAt: &day, PublishedURL: utils.Ptr("https://n/p1")}
	pub2 := domain.Article{ID: "p2", Title: "Bridge works", Topic: "itaipu traffic", Status: domain.StatusPublished,
		PublishedAt: &other, PublishedURL: utils.Ptr("https://n/p2")}
	seed(t, s, draft, pub1, pub2)

	tests := []struct {
		name   string
		filter domain.Filter
		want   []string
	}{
		{"empty filter", domain.Filter{}, []string{"d1", "p1", "p2"}},
		{"status only", domain.Filter{Status: domain.StatusPublished}, []string{"p1", "p2"}},
		{"query matches title or topic", domain.Filter{Query: "ITAIPU"}, []string{"p1", "p2"}},
		{"date", domain.Filter{Date: "2026-05-04"}, []string{"p1"}},
		{"and composition", domain.Filter{Status: domain.StatusPublished, Query: "bridge", Date: "2026-05-03"}, []string{"p2"}},
		{"no match", domain.Filter{Status: domain.StatusDraft, Date: "2026-05-04"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.List(ctx, tt.filter)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, a := range got {
				ids = append(ids, a.ID)
			}
			if diff := cmp.Diff(tt.want, ids); diff != "" {
				t.Errorf("List() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCountByStatus(t *testing.T) {
	ctx := context.Background()
	s := NewArticleStore()

	counts, err := s.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Len(t, counts, len(domain.Statuses))
	assert.Equal(t, 0, counts.Total())

	seed(t, s,
		domain.Article{ID: "a1", Status: domain.StatusDraft},
		domain.Article{ID: "a2", Status: domain.StatusDraft},
		domain.Article{ID: "a3", Status: domain.StatusCancelled},
	)

	counts, err = s.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[domain.StatusDraft])
	assert.Equal(t, 1, counts[domain.StatusCancelled])
	assert.Equal(t, 0, counts[domain.StatusPublished])
	assert.Equal(t, 3, counts.Total())
}

func TestConcurrentBatchesAreAdditive(t *testing.T) {
	ctx := context.Background()
	s := NewArticleStore()

	var wg sync.WaitGroup
	for b := 0; b < 10; b++ {
		wg.Add(1)
		go func(b int) {
			defer wg.Done()
			batch := []domain.Article{
				{ID: string(rune('a'+b)) + "-1", Status: domain.StatusDraft},
				{ID: string(rune('a'+b)) + "-2", Status: domain.StatusDraft},
			}
			assert.NoError(t, s.AppendBatch(ctx, batch))
			_, _ = s.List(ctx, domain.Filter{})
		}(b)
	}
	wg.Wait()

	counts, err := s.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 20, counts[domain.StatusDraft])
}
