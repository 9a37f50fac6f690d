package aidb

import (
	"context"
	"net/http"
	"strings"
)

// QueryAPI wraps the natural-language search endpoints.
type QueryAPI struct{ c *Client }

type searchRequest struct {
	Query           string `json:"query"`
	Limit           int    `json:"limit"`
	UseVectorSearch bool   `json:"use_vector_search"`
}

// DefaultSearchLimit matches the backend default.
const DefaultSearchLimit = 10

// Search runs a natural-language query. Results keep the server's order.
func (api *QueryAPI) Search(ctx context.Context, text string, limit int, useVector bool) (QueryResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return QueryResult{}, &ValidationError{Fields: map[string]string{"query": "query is required"}}
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	var out QueryResult
	err := api.c.do(ctx, request{
		op:     "search",
		method: http.MethodPost,
		route:  "/query",
		path:   "/query/",
		body:   searchRequest{Query: text, Limit: limit, UseVectorSearch: useVector},
	}, &out)
	return out, err
}

// History lists past queries, newest first.
func (api *QueryAPI) History(ctx context.Context, skip, limit int) ([]QueryHistoryEntry, error) {
	var out []QueryHistoryEntry
	err := api.c.do(ctx, request{
		op:     "query history",
		method: http.MethodGet,
		route:  "/query/history",
		path:   "/query/history",
		query:  pageValues(skip, limit),
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Suggestions returns example queries and aggregate contact stats.
func (api *QueryAPI) Suggestions(ctx context.Context) (QuerySuggestions, error) {
	var out QuerySuggestions
	err := api.c.do(ctx, request{
		op:     "query suggestions",
		method: http.MethodGet,
		route:  "/query/suggestions",
		path:   "/query/suggestions",
	}, &out)
	return out, err
}
