package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/templatedir/templatedir-server/internal/normalize"
)

// Sort orders accepted in Params.SortBy.
const (
	SortRelevance = "relevance"
	SortNewest    = "newest"
	SortUpvotes   = "upvotes"
	SortName      = "name"
)

// Params configures a search query.
type Params struct {
	Query string

	// Filters
	Type     string   // GitHub or Replit; empty = all
	Language string   // Exact primary language
	Tags     []string // Listing must carry every tag

	// Pagination
	Limit  int
	Offset int

	SortBy string

	IncludeFacets bool
	Highlight     bool
}

// DefaultParams returns the defaults used by the search endpoint.
func DefaultParams() Params {
	return Params{
		Limit:         20,
		SortBy:        SortRelevance,
		IncludeFacets: true,
		Highlight:     true,
	}
}

// Result is one page of search hits.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
	Facets Facets `json:"facets"`
}

// Hit is a matched listing. Callers load the full row from the store by ID.
type Hit struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Name       string            `json:"name"`
	Owner      string            `json:"owner,omitempty"`
	Type       string            `json:"type"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Facets holds term counts across the whole result set.
type Facets struct {
	Types     []FacetCount `json:"types,omitempty"`
	Languages []FacetCount `json:"languages,omitempty"`
	Tags      []FacetCount `json:"tags,omitempty"`
}

// FacetCount represents a facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

var facetFields = []string{"type", "language", "tags"}

// Search executes a search query.
func (s *ListingIndex) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = DefaultParams().Limit
	}

	req := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, params.Offset, false)
	addSorting(req, params.SortBy)

	if params.IncludeFacets {
		for _, field := range facetFields {
			req.AddFacet(field, bleve.NewFacetRequest(field, 20))
		}
	}

	if params.Highlight {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("name")
		req.Highlight.AddField("description")
	}

	req.Fields = []string{"name", "owner", "type"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}

	for _, h := range res.Hits {
		hit := Hit{ID: h.ID, Score: h.Score}
		if v, ok := h.Fields["name"].(string); ok {
			hit.Name = v
		}
		if v, ok := h.Fields["owner"].(string); ok {
			hit.Owner = v
		}
		if v, ok := h.Fields["type"].(string); ok {
			hit.Type = v
		}

		if len(h.Fragments) > 0 {
			hit.Highlights = make(map[string]string, len(h.Fragments))
			for field, fragments := range h.Fragments {
				if len(fragments) > 0 {
					hit.Highlights[field] = fragments[0]
				}
			}
		}

		result.Hits = append(result.Hits, hit)
	}

	if params.IncludeFacets {
		result.Facets = extractFacets(res)
	}

	return result, nil
}

// buildQuery combines the text query and filters with AND.
func buildQuery(params Params) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		nameMatch := bleve.NewMatchQuery(q)
		nameMatch.SetField("name")
		nameMatch.SetBoost(3.0)

		ownerMatch := bleve.NewMatchQuery(q)
		ownerMatch.SetField("owner")
		ownerMatch.SetBoost(2.0)

		descMatch := bleve.NewMatchQuery(q)
		descMatch.SetField("description")

		// Typo tolerance on the name
		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzy.SetFuzziness(1)
		fuzzy.SetField("name")
		fuzzy.SetBoost(0.8)

		textQueries := []query.Query{nameMatch, ownerMatch, descMatch, fuzzy}

		// Prefix for search-as-you-type, minimum 2 chars
		if len(q) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(q))
			prefix.SetField("name")
			prefix.SetBoost(0.5)
			textQueries = append(textQueries, prefix)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if params.Type != "" {
		tq := bleve.NewTermQuery(params.Type)
		tq.SetField("type")
		queries = append(queries, tq)
	}

	if params.Language != "" {
		lq := bleve.NewTermQuery(params.Language)
		lq.SetField("language")
		queries = append(queries, lq)
	}

	for _, tag := range normalize.TagSlugs(params.Tags) {
		tq := bleve.NewTermQuery(tag)
		tq.SetField("tags")
		queries = append(queries, tq)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}

func addSorting(req *bleve.SearchRequest, sortBy string) {
	switch sortBy {
	case SortNewest:
		req.SortBy([]string{"-created_at"})
	case SortUpvotes:
		req.SortBy([]string{"-upvotes", "-_score"})
	case SortName:
		req.SortBy([]string{"name"})
	default:
		req.SortBy([]string{"-_score"})
	}
}

func extractFacets(res *bleve.SearchResult) Facets {
	var facets Facets
	collect := func(field string) []FacetCount {
		fr, ok := res.Facets[field]
		if !ok || fr.Terms == nil {
			return nil
		}
		var out []FacetCount
		for _, term := range fr.Terms.Terms() {
			out = append(out, FacetCount{Value: term.Term, Count: term.Count})
		}
		return out
	}
	facets.Types = collect("type")
	facets.Languages = collect("language")
	facets.Tags = collect("tags")
	return facets
}
