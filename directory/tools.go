package directory

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/toolverse/cache"
	"github.com/jonwraymond/toolverse/domain"
	"github.com/jonwraymond/toolverse/generate"
	"github.com/jonwraymond/toolverse/normalize"
	"github.com/jonwraymond/toolverse/prompt"
	"github.com/jonwraymond/toolverse/schema"
)

// FindTools searches the web for tools matching query.
func (s *Service) FindTools(ctx context.Context, query string) (domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.SearchResult{}, fmt.Errorf("%w: empty search query", domain.ErrInvalidInput)
	}
	op := string(prompt.OpFindTools)
	key, err := s.keyer.Query(schema.ToolSearch.Version, query)
	if err != nil {
		return domain.SearchResult{}, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	return run(ctx, s, s.meta(op, query, schema.ToolSearch.Version), func(ctx context.Context) (domain.SearchResult, error) {
		var cached domain.SearchResult
		if _, ok := s.lookup(ctx, op, key, &cached); ok {
			return cached, nil
		}

		return flight(ctx, s, key, func(ctx context.Context) (domain.SearchResult, error) {
			resp, err := s.callModel(ctx, prompt.FindTools(query), generate.Options{
				Op:        op,
				Schema:    schema.ToolSearch,
				Grounding: true,
			})
			if err != nil {
				return domain.SearchResult{}, err
			}

			var result domain.SearchResult
			if err := normalize.Decode(op, resp.Text, schema.ToolSearch, &result); err != nil {
				return domain.SearchResult{}, err
			}
			result.Tools = normalize.ToolSummaries(result.Tools)
			result.Sources = normalize.Sources(resp.References)

			s.save(ctx, key, result, s.policies.Search)
			return result, nil
		})
	})
}

// GetToolDetails returns the analysis of name, or a *domain.NotFoundError
// when the generator could not identify it as a real tool.
func (s *Service) GetToolDetails(ctx context.Context, name string) (domain.ToolDetail, error) {
	r, err := s.Lookup(ctx, name)
	if err != nil {
		return domain.ToolDetail{}, err
	}
	if !r.Found {
		return domain.ToolDetail{}, r.Err()
	}
	return r.Detail, nil
}

// Lookup is GetToolDetails with a tagged result. A negative answer is a
// NotFound result, not an error, and is cached like a positive one.
func (s *Service) Lookup(ctx context.Context, name string) (domain.DetailResult, error) {
	name = strings.TrimSpace(name)
	op := string(prompt.OpToolDetails)
	key, err := s.keyer.Tool(schema.ToolDetail.Version, name)
	if err != nil {
		return domain.DetailResult{}, fmt.Errorf("%w: tool name %q", domain.ErrInvalidInput, name)
	}

	return run(ctx, s, s.meta(op, name, schema.ToolDetail.Version), func(ctx context.Context) (domain.DetailResult, error) {
		var cached domain.ToolDetail
		if _, ok := s.lookup(ctx, op, key, &cached); ok {
			if cached.IsNotFound() {
				return domain.NotFound(name), nil
			}
			return domain.Found(name, cached), nil
		}

		return flight(ctx, s, key, func(ctx context.Context) (domain.DetailResult, error) {
			resp, err := s.callModel(ctx, prompt.ToolDetails(name), generate.Options{
				Op:     op,
				Schema: schema.ToolDetail,
			})
			if err != nil {
				return domain.DetailResult{}, err
			}

			r, err := normalize.ToolDetail(op, name, resp.Text)
			if err != nil {
				return domain.DetailResult{}, err
			}
			if r.Found {
				s.save(ctx, key, r.Detail, s.policies.Details)
			} else {
				s.save(ctx, key, domain.NotFoundDetail(), s.policies.Details)
			}
			return r, nil
		})
	})
}

// knownMissing reports a NotFoundError when the cache already holds a
// negative record for name. It never generates.
func (s *Service) knownMissing(ctx context.Context, name string) error {
	key, err := s.keyer.Tool(schema.ToolDetail.Version, name)
	if err != nil {
		return fmt.Errorf("%w: tool name %q", domain.ErrInvalidInput, name)
	}
	var cached domain.ToolDetail
	if _, ok := s.lookup(ctx, string(prompt.OpToolDetails), key, &cached); ok && cached.IsNotFound() {
		return &domain.NotFoundError{Name: name}
	}
	return nil
}

// CompareTools returns a side-by-side analysis of a and b. The result does
// not depend on argument order: Tool1 is always the name whose normalized
// form sorts first.
func (s *Service) CompareTools(ctx context.Context, a, b string) (domain.ToolComparison, error) {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	na, nb := cache.NormalizeQuery(a), cache.NormalizeQuery(b)
	if nb < na {
		a, b = b, a
	}
	op := string(prompt.OpCompare)
	key, err := s.keyer.Pair(schema.ToolComparison.Version, a, b)
	if err != nil {
		return domain.ToolComparison{}, fmt.Errorf("%w: tool names %q and %q", domain.ErrInvalidInput, a, b)
	}
	if na == nb {
		return domain.ToolComparison{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, ErrSameTool)
	}

	return run(ctx, s, s.meta(op, a+" vs "+b, schema.ToolComparison.Version), func(ctx context.Context) (domain.ToolComparison, error) {
		var cached domain.ToolComparison
		if _, ok := s.lookup(ctx, op, key, &cached); ok {
			return cached, nil
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, name := range []string{a, b} {
			g.Go(func() error { return s.knownMissing(gctx, name) })
		}
		if err := g.Wait(); err != nil {
			return domain.ToolComparison{}, err
		}

		return flight(ctx, s, key, func(ctx context.Context) (domain.ToolComparison, error) {
			resp, err := s.callModel(ctx, prompt.Compare(a, b), generate.Options{
				Op:     op,
				Schema: schema.ToolComparison,
			})
			if err != nil {
				return domain.ToolComparison{}, err
			}

			var result domain.ToolComparison
			if err := normalize.Decode(op, resp.Text, schema.ToolComparison, &result); err != nil {
				return domain.ToolComparison{}, err
			}
			result.Tool1, result.Tool2 = a, b

			s.save(ctx, key, result, s.policies.Comparison)
			return result, nil
		})
	})
}
