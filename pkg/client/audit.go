package client

import (
	"context"
	"net/url"
	"strconv"
)

// AuditService handles audit trail API calls
type AuditService struct {
	client *Client
}

// AuditListOptions contains options for listing audit records
type AuditListOptions struct {
	ListOptions
	ActionID string
	Actor    string
	Decision string
}

// List retrieves a page of audit records, newest first
func (s *AuditService) List(ctx context.Context, opts *AuditListOptions) (*Paginated[AuditRecord], error) {
	query := url.Values{}
	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			query.Set("page_size", strconv.Itoa(opts.PageSize))
		}
		if opts.ActionID != "" {
			query.Set("action_id", opts.ActionID)
		}
		if opts.Actor != "" {
			query.Set("actor", opts.Actor)
		}
		if opts.Decision != "" {
			query.Set("decision", opts.Decision)
		}
	}

	path := "/api/v1/audit"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var page Paginated[AuditRecord]
	if err := s.client.doRequest(ctx, "GET", path, nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}
