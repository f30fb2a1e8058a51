package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"
)

// maxPages bounds a paginated listing.
const maxPages = 1000

type page[T any] struct {
	Count   int     `json:"count"`
	Next    *string `json:"next"`
	Results []T     `json:"results"`
}

// listAll walks a page-number paginated collection until next is null.
// Unpaginated endpoints that answer with a bare array are accepted too.
func listAll[T any](ctx context.Context, c *Client, path string, q url.Values, op string) ([]T, error) {
	var out []T
	for n := 1; n <= maxPages; n++ {
		pq := url.Values{}
		for k, v := range q {
			pq[k] = v
		}
		if n > 1 {
			pq.Set("page", strconv.Itoa(n))
		}
		p := path
		if enc := pq.Encode(); enc != "" {
			p += "?" + enc
		}

		var raw json.RawMessage
		if err := c.doJSON(ctx, http.MethodGet, p, op, nil, &raw); err != nil {
			return nil, err
		}
		if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
			var all []T
			if err := json.Unmarshal(trimmed, &all); err != nil {
				return nil, fmt.Errorf("%s: decode response: %w", op, err)
			}
			return append(out, all...), nil
		}
		var pg page[T]
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &pg); err != nil {
				return nil, fmt.Errorf("%s: decode response: %w", op, err)
			}
		}
		out = append(out, pg.Results...)
		if pg.Next == nil || *pg.Next == "" || len(pg.Results) == 0 {
			return out, nil
		}
		c.log.Debug("following next page", zap.String("op", op), zap.Int("page", n+1))
	}
	return nil, fmt.Errorf("%s: more than %d pages", op, maxPages)
}
