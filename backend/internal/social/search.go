package social

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"mercury/backend/internal/embedding"
	apperrors "mercury/backend/pkg/errors"
	"mercury/backend/pkg/logger"
)

// unscored is the score of every result of a phrase-less search
const unscored = 1.0

// SearchQuery selects users by name similarity.
// An empty Phrase lists users; an empty Country does not filter.
type SearchQuery struct {
	Phrase    string
	Country   string
	Page      Page
	ExcludeID string
}

// ScoredProfile is a search hit. Higher scores are more similar.
type ScoredProfile struct {
	User  Profile `json:"user"`
	Score float64 `json:"score"`
}

// SearchResult is one page of search hits. Supported is false when the
// phrase could not be embedded, which is distinct from zero matches.
type SearchResult struct {
	Supported bool
	Paged[ScoredProfile]
}

// Err converts an unsupported phrase into ErrSearchUnsupported
func (r SearchResult) Err() error {
	if r.Supported {
		return nil
	}
	return apperrors.ErrSearchUnsupported
}

// Searcher runs name search over the user-name vector index
type Searcher struct {
	store     SearchStore
	generator embedding.Generator
	logger    *zap.Logger
}

// NewSearcher creates a searcher
func NewSearcher(store SearchStore, generator embedding.Generator) *Searcher {
	return &Searcher{
		store:     store,
		generator: generator,
		logger:    logger.Named("search"),
	}
}

// Search runs a query.
//
// With a phrase, the index is asked for the (page+1)*size nearest users and
// the country filter and self-exclusion are applied afterwards, so pages near
// the filter boundary may come back short.
func (s *Searcher) Search(ctx context.Context, q SearchQuery) (SearchResult, error) {
	if err := q.Page.Validate(); err != nil {
		return SearchResult{}, err
	}
	filter := UserFilter{Country: q.Country, ExcludeID: q.ExcludeID}

	var vector []float64
	if q.Phrase != "" {
		var err error
		vector, err = embedding.EmbedPhrase(ctx, s.generator, q.Phrase)
		if err != nil {
			return SearchResult{}, err
		}
		if len(vector) == 0 {
			s.logger.Debug("Search phrase not embeddable", zap.String("phrase", q.Phrase))
			return SearchResult{}, nil
		}
	}

	var (
		hits  []ScoredProfile
		total int64
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		if vector == nil {
			hits, err = s.list(egCtx, filter, q.Page)
		} else {
			hits, err = s.nearest(egCtx, vector, filter, q.Page)
		}
		return err
	})
	eg.Go(func() error {
		var err error
		total, err = s.store.CountUsers(egCtx, filter)
		if err != nil {
			return apperrors.NewStoreFailure("count users", err)
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		s.logger.Error("Search failed", zap.Error(err))
		return SearchResult{}, err
	}

	return SearchResult{
		Supported: true,
		Paged:     NewPaged(hits, total, q.Page),
	}, nil
}

func (s *Searcher) list(ctx context.Context, filter UserFilter, page Page) ([]ScoredProfile, error) {
	users, err := s.store.ListUsers(ctx, filter, page.Skip(), page.Limit())
	if err != nil {
		return nil, apperrors.NewStoreFailure("list users", err)
	}
	hits := make([]ScoredProfile, 0, len(users))
	for _, u := range users {
		hits = append(hits, ScoredProfile{User: u.Profile(), Score: unscored})
	}
	return hits, nil
}

func (s *Searcher) nearest(ctx context.Context, vector []float64, filter UserFilter, page Page) ([]ScoredProfile, error) {
	candidates, err := s.store.NearestUsers(ctx, vector, page.End())
	if err != nil {
		return nil, apperrors.NewStoreFailure("nearest users", err)
	}

	hits := make([]ScoredProfile, 0, len(candidates))
	for _, c := range candidates {
		if !filter.Matches(c.User) {
			continue
		}
		hits = append(hits, ScoredProfile{User: c.User.Profile(), Score: c.Score})
	}
	return window(hits, page), nil
}
