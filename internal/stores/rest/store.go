// Package rest reads and writes lists of a remote site over its JSON API.
//
// Endpoints, relative to the site URL:
//
//	GET  _api/web/lists/getbytitle('<title>')/fields
//	GET  _api/web/lists/getbyid('<id>')/items?$top=<n>   (paged via odata.nextLink)
//	POST _api/$batch                                     (multipart/mixed)
//
// Lookup values travel as {"LookupId": n, "LookupValue": "..."} objects,
// or arrays of them for multi-value fields.
package rest

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/agentstation/lookupsync/internal/transport"
	"github.com/agentstation/lookupsync/pkg/constants"
	"github.com/agentstation/lookupsync/pkg/errors"
	"github.com/agentstation/lookupsync/pkg/lists"
	"github.com/agentstation/lookupsync/pkg/logging"
	"github.com/agentstation/lookupsync/pkg/lookup"
)

type stagedWrite struct {
	list  lists.ListRef
	id    int
	field string
	value any
}

// Store is a remote list store.
type Store struct {
	name   string
	site   string
	client *transport.Client

	mu     sync.Mutex
	fields map[lists.ListRef][]lists.Field
	staged []stagedWrite
}

// New creates a store for the site at siteURL.
func New(name, siteURL string, client *transport.Client) *Store {
	return &Store{
		name:   name,
		site:   strings.TrimRight(siteURL, "/"),
		client: client,
		fields: make(map[lists.ListRef][]lists.Field),
	}
}

// Name implements lists.Store.
func (s *Store) Name() string {
	return s.name
}

// Field implements lists.Reader.
func (s *Store) Field(ctx context.Context, list lists.ListRef, name string) (*lists.Field, error) {
	fields, err := s.listFields(ctx, list)
	if err != nil {
		return nil, err
	}
	f, ok := lists.FindField(fields, name)
	if !ok {
		return nil, nil
	}
	field := *f
	return &field, nil
}

// Records implements lists.Reader.
func (s *Store) Records(ctx context.Context, list lists.ListRef, pageSize int) ([]lists.Record, error) {
	fields, err := s.listFields(ctx, list)
	if err != nil {
		return nil, err
	}

	logger := logging.FromContext(ctx)
	next := s.listURL(list) + "/items?$top=" + strconv.Itoa(constants.ClampPageSize(pageSize))
	var records []lists.Record
	pages := 0

	for next != "" {
		resp, err := s.client.Get(ctx, next)
		if err != nil {
			return nil, errors.WrapAPI(s.name, 0, err)
		}

		var page itemsResponse
		if err := transport.DecodeResponse(s.name, resp, &page); err != nil {
			return nil, err
		}
		pages++

		for _, raw := range page.Value {
			id, err := itemID(raw)
			if err != nil {
				return nil, err
			}
			stripID(raw)
			attrs, err := lookup.DecodeAttributes(raw, fields)
			if err != nil {
				return nil, err
			}
			records = append(records, lists.NewRecord(id, attrs))
		}

		logger.Debug().Int("page", pages).Int("records", len(records)).Msg("Fetched page")
		next = page.next()
	}

	return records, nil
}

// Stage implements lists.Writer.
func (s *Store) Stage(list lists.ListRef, id int, field string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = append(s.staged, stagedWrite{list: list, id: id, field: field, value: value})
	return nil
}

// Flush implements lists.Writer by sending all staged writes as one batch.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	staged := s.staged
	s.staged = nil
	s.mu.Unlock()

	if len(staged) == 0 {
		return nil
	}

	b, err := newBatch(s, staged)
	if err != nil {
		return err
	}

	logging.FromContext(ctx).Debug().
		Str("batch_id", b.id).
		Int("writes", len(staged)).
		Msg("Sending batch")

	resp, err := s.client.Post(ctx, s.site+"/_api/$batch", b.contentType(), b.body)
	if err != nil {
		return errors.WrapAPI(s.name, 0, err)
	}
	body, err := transport.ReadResponse(s.name, resp)
	if err != nil {
		return err
	}
	return checkBatchResponse(s.name, body)
}

func (s *Store) listFields(ctx context.Context, list lists.ListRef) ([]lists.Field, error) {
	s.mu.Lock()
	cached, ok := s.fields[list]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	resp, err := s.client.Get(ctx, s.listURL(list)+"/fields")
	if err != nil {
		return nil, errors.WrapAPI(s.name, 0, err)
	}

	var payload fieldsResponse
	if err := transport.DecodeResponse(s.name, resp, &payload); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFoundError("list", list.String())
		}
		return nil, err
	}

	fields := make([]lists.Field, 0, len(payload.Value))
	for _, wf := range payload.Value {
		f, err := wf.field()
		if err != nil {
			return nil, errors.WrapResource("decode", "field", wf.InternalName, err)
		}
		fields = append(fields, f)
	}

	s.mu.Lock()
	s.fields[list] = fields
	s.mu.Unlock()
	return fields, nil
}

func (s *Store) listURL(list lists.ListRef) string {
	if list.ID != "" {
		return fmt.Sprintf("%s/_api/web/lists/getbyid('%s')", s.site, url.PathEscape(list.ID))
	}
	return fmt.Sprintf("%s/_api/web/lists/getbytitle('%s')", s.site, escapeTitle(list.Title))
}

// escapeTitle quotes a title for use inside an OData string literal.
func escapeTitle(title string) string {
	return url.PathEscape(strings.ReplaceAll(title, "'", "''"))
}

var _ lists.Store = (*Store)(nil)

// Close releases nothing; it exists so every opened store can be closed uniformly.
func (s *Store) Close() error {
	return nil
}
