// Package memory keeps the article collection in process memory.
//
// The collection is copy-on-write: readers load an immutable snapshot without
// locking, writers serialize on a mutex and publish a fresh snapshot.
package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"newsroom/internal/domain"
)

type snapshot struct {
	articles []domain.Article
	index    map[string]int
}

type ArticleStore struct {
	mu      sync.Mutex
	current atomic.Pointer[snapshot]
}

func NewArticleStore() *ArticleStore {
	s := &ArticleStore{}
	s.current.Store(&snapshot{index: map[string]int{}})
	return s
}

func (s *ArticleStore) AppendBatch(_ context.Context, articles []domain.Article) error {
	if len(articles) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.current.Load()
	next := &snapshot{
		articles: make([]domain.Article, len(old.articles), len(old.articles)+len(articles)),
		index:    make(map[string]int, len(old.index)+len(articles)),
	}
	copy(next.articles, old.articles)
	for id, i := range old.index {
		next.index[id] = i
	}

	for _, a := range articles {
		if _, exists := next.index[a.ID]; exists {
			return fmt.Errorf("append batch: duplicate article id %q", a.ID)
		}
		next.index[a.ID] = len(next.articles)
		next.articles = append(next.articles, a.Clone())
	}

	s.current.Store(next)
	return nil
}

func (s *ArticleStore) Get(_ context.Context, id string) (domain.Article, error) {
	snap := s.current.Load()
	i, ok := snap.index[id]
	if !ok {
		return domain.Article{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return snap.articles[i].Clone(), nil
}

func (s *ArticleStore) Update(_ context.Context, id string, fn func(domain.Article) (domain.Article, error)) (domain.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := s.current.Load()
	i, ok := old.index[id]
	if !ok {
		return domain.Article{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	updated, err := fn(old.articles[i].Clone())
	if err != nil {
		return domain.Article{}, err
	}
	// identity and provenance are fixed at creation
	updated.ID = old.articles[i].ID
	updated.Topic = old.articles[i].Topic
	updated.SourceURLs = old.articles[i].SourceURLs
	updated.CreatedAt = old.articles[i].CreatedAt

	next := &snapshot{
		articles: make([]domain.Article, len(old.articles)),
		index:    old.index,
	}
	copy(next.articles, old.articles)
	next.articles[i] = updated.Clone()

	s.current.Store(next)
	return updated.Clone(), nil
}

func (s *ArticleStore) List(_ context.Context, filter domain.Filter) ([]domain.Article, error) {
	snap := s.current.Load()
	out := make([]domain.Article, 0, len(snap.articles))
	for _, a := range snap.articles {
		if filter.Match(a) {
			out = append(out, a.Clone())
		}
	}
	return out, nil
}

func (s *ArticleStore) CountByStatus(_ context.Context) (domain.StatusCounts, error) {
	counts := domain.NewStatusCounts()
	for _, a := range s.current.Load().articles {
		counts[a.Status]++
	}
	return counts, nil
}
