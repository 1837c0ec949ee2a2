package directory

import (
	"context"
	"fmt"

	"github.com/jonwraymond/toolverse/domain"
	"github.com/jonwraymond/toolverse/generate"
	"github.com/jonwraymond/toolverse/normalize"
	"github.com/jonwraymond/toolverse/observe"
	"github.com/jonwraymond/toolverse/prompt"
	"github.com/jonwraymond/toolverse/schema"
)

// newsKey names the single rotating news batch.
const newsKey = "news"

// GetNews returns the current news batch. A cached batch is served while it
// is inside the freshness window; forceRefresh discards it and regenerates.
//
// Generation has two phases: a grounded discovery call writes a free-text
// report and yields the consulted URLs, then a structured call maps the
// report onto those URLs. Stories whose URL is not among them are dropped.
func (s *Service) GetNews(ctx context.Context, forceRefresh bool) (domain.NewsBatch, error) {
	op := "news"
	key, err := s.keyer.Fixed(schema.NewsArticles.Version, newsKey)
	if err != nil {
		return domain.NewsBatch{}, err
	}
	policy := s.policies.News

	return run(ctx, s, s.meta(op, "", schema.NewsArticles.Version), func(ctx context.Context) (domain.NewsBatch, error) {
		if forceRefresh {
			s.pending.drop(key)
			if err := s.store.Delete(ctx, key); err != nil {
				s.logger.Warn(ctx, "news invalidation failed",
					observe.Field{Key: "key", Value: key},
					observe.Field{Key: "error", Value: err.Error()},
				)
			}
		} else {
			var cached domain.NewsBatch
			if _, ok := s.lookup(ctx, op, key, &cached); ok && policy.Fresh(cached.GeneratedAt, s.now()) {
				return cached, nil
			}
		}

		return flight(ctx, s, key, func(ctx context.Context) (domain.NewsBatch, error) {
			batch, err := s.generateNews(ctx)
			if err != nil {
				return domain.NewsBatch{}, err
			}
			s.save(ctx, key, batch, policy)
			return batch, nil
		})
	})
}

func (s *Service) generateNews(ctx context.Context) (domain.NewsBatch, error) {
	discoverOp := string(prompt.OpNewsDiscovery)
	report, err := s.callModel(ctx, prompt.NewsDiscovery(), generate.Options{
		Op:        discoverOp,
		Grounding: true,
	})
	if err != nil {
		return domain.NewsBatch{}, err
	}
	urls := normalize.URLs(report.References)
	if len(urls) == 0 {
		return domain.NewsBatch{}, domain.NewGenerationError(domain.KindMalformed, discoverOp,
			fmt.Errorf("%w: %w", domain.ErrValidation, ErrNoSources))
	}

	structureOp := string(prompt.OpNewsStructuring)
	structured, err := s.callModel(ctx, prompt.NewsStructuring(report.Text, urls), generate.Options{
		Op:     structureOp,
		Schema: schema.NewsArticles,
	})
	if err != nil {
		return domain.NewsBatch{}, err
	}

	var articles []domain.NewsArticle
	if err := normalize.Decode(structureOp, structured.Text, schema.NewsArticles, &articles); err != nil {
		return domain.NewsBatch{}, err
	}
	articles, err = normalize.AssociateNews(structureOp, articles, urls, prompt.NewsStories)
	if err != nil {
		return domain.NewsBatch{}, err
	}

	return domain.NewsBatch{
		GeneratedAt: s.now().UTC(),
		Articles:    articles,
		Sources:     normalize.Sources(report.References),
	}, nil
}
