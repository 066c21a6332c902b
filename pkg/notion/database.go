package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// QueryAll fetches all pages from a Notion database, handling pagination.
// Rate limiting is enforced by the Client (3 req/s by default). The next
// page is fetched in a goroutine while the current one is appended.
func QueryAll(ctx context.Context, c Client, dbID string, filter *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	var all []notionapi.Page

	newReq := func(cursor notionapi.Cursor) *notionapi.DatabaseQueryRequest {
		req := &notionapi.DatabaseQueryRequest{StartCursor: cursor}
		if filter != nil {
			req.Filter = filter.Filter
			req.Sorts = filter.Sorts
			req.PageSize = filter.PageSize
		}
		return req
	}

	type prefetchResult struct {
		resp *notionapi.DatabaseQueryResponse
		err  error
	}
	var prefetchCh <-chan prefetchResult

	for {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "notion: query all")
		}

		var resp *notionapi.DatabaseQueryResponse
		var err error
		if prefetchCh != nil {
			result := <-prefetchCh
			resp, err = result.resp, result.err
		} else {
			resp, err = c.QueryDatabase(ctx, dbID, newReq(""))
		}
		if err != nil {
			return nil, eris.Wrap(err, "notion: query all page")
		}

		all = append(all, resp.Results...)
		if !resp.HasMore {
			break
		}

		next := newReq(resp.NextCursor)
		ch := make(chan prefetchResult, 1)
		prefetchCh = ch
		go func() {
			r, e := c.QueryDatabase(ctx, dbID, next)
			ch <- prefetchResult{resp: r, err: e}
		}()
	}

	return all, nil
}

// QueryBySelect fetches every page whose select property equals value.
// An empty value returns the whole database.
func QueryBySelect(ctx context.Context, c Client, dbID, property, value string) ([]notionapi.Page, error) {
	var filter *notionapi.DatabaseQueryRequest
	if value != "" {
		filter = &notionapi.DatabaseQueryRequest{
			Filter: notionapi.PropertyFilter{
				Property: property,
				Select: &notionapi.SelectFilterCondition{
					Equals: value,
				},
			},
		}
	}
	pages, err := QueryAll(ctx, c, dbID, filter)
	if err != nil {
		return nil, eris.Wrapf(err, "notion: query %s = %q", property, value)
	}
	return pages, nil
}
