package graph

import "context"

// page mirrors a Graph collection response.
type page[T any] struct {
	Value    []T    `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

// collectPages accumulates items across pages, following the continuation
// link only while fewer than max items have been gathered, and truncates to
// max. Provider ordering is preserved. A failed continuation fetch returns
// the items gathered so far alongside the error, so callers with a
// partial-result policy can keep them.
func collectPages[T any](ctx context.Context, first page[T], max int, next func(ctx context.Context, link string) (page[T], error)) ([]T, error) {
	items := first.Value
	link := first.NextLink
	for len(items) < max && link != "" {
		p, err := next(ctx, link)
		if err != nil {
			return items, err
		}
		items = append(items, p.Value...)
		link = p.NextLink
	}
	if len(items) > max {
		items = items[:max]
	}
	return items, nil
}

// collectMessages pages a message listing through the session's REST client.
func collectMessages(ctx context.Context, sess *Session, op string, first page[messagePayload], max int) ([]messagePayload, error) {
	return collectPages(ctx, first, max, func(ctx context.Context, link string) (page[messagePayload], error) {
		var p page[messagePayload]
		err := sess.rest.getURL(ctx, op, link, &p)
		return p, err
	})
}
