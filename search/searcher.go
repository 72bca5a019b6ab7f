package search

import (
	"context"
	"log/slog"
	"sort"

	"github.com/poiesic/vectorprep/ai"
	"github.com/poiesic/vectorprep/core"
	"github.com/poiesic/vectorprep/storage"
)

const (
	// DefaultMinSimilarity is the cosine similarity floor for semantic matches.
	DefaultMinSimilarity float32 = 0.60

	// verbatimBoost is added to entries containing every significant query word.
	verbatimBoost float32 = 0.3

	// candidateFactor widens the semantic pass so boosted entries can move up.
	candidateFactor = 3
)

// Searcher ranks index entries against natural-language queries.
type Searcher struct {
	repository    storage.Repository
	embedder      ai.Embedder
	minSimilarity float32
	logger        *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithMinSimilarity sets the cosine similarity floor.
// Default is DefaultMinSimilarity.
func WithMinSimilarity(min float32) Option {
	return func(s *Searcher) error {
		if min < -1 || min > 1 {
			return ErrInvalidMinSimilarity
		}
		s.minSimilarity = min
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(repository storage.Repository, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		repository:    repository,
		embedder:      embedder,
		minSimilarity: DefaultMinSimilarity,
		logger:        slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// FindSimilar searches for entries similar to the query.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) FindSimilar(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	return s.FindSimilarWithMonitor(ctx, query, maxHits, nil)
}

// FindSimilarWithMonitor searches for entries similar to the query with monitoring.
// The monitor receives callbacks at each stage of the search process.
// Returns up to maxHits results, ranked by relevance score.
func (s *Searcher) FindSimilarWithMonitor(ctx context.Context, query string, maxHits int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if maxHits < 1 {
		return []*core.SearchResult{}, nil
	}
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)

	embedding, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Error("error generating embedding for query", "query", query, "err", err)
		return nil, core.NewEmbeddingError(err)
	}

	matches, err := s.repository.FindSimilar(ctx, embedding, s.minSimilarity, maxHits*candidateFactor)
	if err != nil {
		s.logger.Error("error querying for similar entries", "err", err)
		return nil, err
	}

	ids := make([]uint64, 0, len(matches))
	for _, match := range matches {
		ids = append(ids, uint64(match.Entry.Id))
	}
	monitor.AfterSemanticSearch(ids)

	results := make([]*core.SearchResult, 0, len(matches))
	for _, match := range matches {
		score := match.Score
		if containsAllQueryWords(match.Entry.Text, query) {
			score += verbatimBoost
			monitor.VerbatimHit(match.Entry)
		}
		results = append(results, &core.SearchResult{
			Entry: match.Entry,
			Score: score,
		})
	}

	// Sort by score descending
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > maxHits {
		results = results[:maxHits]
	}
	monitor.Finish(results)

	s.logger.Debug("search finished", "query", query, "candidates", len(matches), "results", len(results))
	return results, nil
}
