package aidb

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// ContactsAPI wraps the /contacts resource.
type ContactsAPI struct{ c *Client }

// ContactFilter narrows GET /contacts. Zero values are omitted.
type ContactFilter struct {
	Search string
	Skip   int
	Limit  int
}

func (f ContactFilter) values() url.Values {
	q := pageValues(f.Skip, f.Limit)
	if s := strings.TrimSpace(f.Search); s != "" {
		q.Set("search", s)
	}
	return q
}

// List returns contacts in server order.
func (api *ContactsAPI) List(ctx context.Context, filter ContactFilter) ([]Contact, error) {
	var out []Contact
	err := api.c.do(ctx, request{
		op:     "list contacts",
		method: http.MethodGet,
		route:  "/contacts",
		path:   "/contacts/",
		query:  filter.values(),
	}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Get fetches one contact. A missing contact yields *NotFoundError.
func (api *ContactsAPI) Get(ctx context.Context, id int64) (Contact, error) {
	var out Contact
	err := api.c.do(ctx, request{
		op:       "get contact",
		method:   http.MethodGet,
		route:    "/contacts/{id}",
		path:     fmt.Sprintf("/contacts/%d", id),
		resource: "contact",
		id:       id,
	}, &out)
	return out, err
}

// Create validates the draft locally and then submits it.
func (api *ContactsAPI) Create(ctx context.Context, draft ContactDraft) (Contact, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return Contact{}, err
	}
	var out Contact
	err := api.c.do(ctx, request{
		op:     "create contact",
		method: http.MethodPost,
		route:  "/contacts",
		path:   "/contacts/",
		body:   draft,
	}, &out)
	return out, err
}

// Update submits the full draft, replacing interests and skills.
func (api *ContactsAPI) Update(ctx context.Context, id int64, draft ContactDraft) (Contact, error) {
	draft = draft.Normalize()
	if err := draft.Validate(); err != nil {
		return Contact{}, err
	}
	var out Contact
	err := api.c.do(ctx, request{
		op:       "update contact",
		method:   http.MethodPut,
		route:    "/contacts/{id}",
		path:     fmt.Sprintf("/contacts/%d", id),
		body:     draft,
		resource: "contact",
		id:       id,
	}, &out)
	return out, err
}

// Delete removes a contact. Deleting twice yields *NotFoundError.
func (api *ContactsAPI) Delete(ctx context.Context, id int64) error {
	return api.c.do(ctx, request{
		op:       "delete contact",
		method:   http.MethodDelete,
		route:    "/contacts/{id}",
		path:     fmt.Sprintf("/contacts/%d", id),
		resource: "contact",
		id:       id,
	}, nil)
}

// Similar returns the vector-store neighbours of a contact.
func (api *ContactsAPI) Similar(ctx context.Context, id int64, limit int) (SimilarContacts, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var out SimilarContacts
	err := api.c.do(ctx, request{
		op:       "similar contacts",
		method:   http.MethodGet,
		route:    "/contacts/{id}/similar",
		path:     fmt.Sprintf("/contacts/%d/similar", id),
		query:    q,
		resource: "contact",
		id:       id,
	}, &out)
	return out, err
}

// pageValues encodes skip/limit, leaving zero values to the server default.
func pageValues(skip, limit int) url.Values {
	q := url.Values{}
	if skip > 0 {
		q.Set("skip", strconv.Itoa(skip))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}
