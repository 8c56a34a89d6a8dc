// Package httptp sends GraphQL documents over HTTP.
package httptp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hanpama/artgraph/internal/eventbus"
	"github.com/hanpama/artgraph/internal/events"
	"github.com/hanpama/artgraph/internal/transport"
	"github.com/hanpama/artgraph/internal/value"
	"github.com/tidwall/gjson"
)

// Transport posts GraphQL requests to an endpoint chosen from its provider.
type Transport struct {
	opts   *Options
	client *http.Client
	closed atomic.Bool
}

func New(opts ...Option) *Transport {
	o := defaultOptions()
	for _, f := range opts {
		f(o)
	}
	c := o.Client
	if c == nil {
		c = &http.Client{Transport: http.DefaultTransport.(*http.Transport).Clone()}
	}
	return &Transport{opts: o, client: c}
}

var _ transport.Transport = (*Transport)(nil)

// Execute posts req and returns the data member. A response with errors and
// null data yields a *transport.Error; errors next to data are published as
// events.PartialErrors and the data is returned.
func (t *Transport) Execute(ctx context.Context, req transport.Request) (data value.Value, err error) {
	if t.closed.Load() {
		return value.Value{}, ErrClosed
	}
	if t.opts.Provider == nil {
		return value.Value{}, fmt.Errorf("httptp: provider not configured")
	}
	if _, ok := ctx.Deadline(); !ok && t.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.opts.Timeout)
		defer cancel()
	}

	endpoints, err := t.opts.Provider.Endpoints(ctx)
	if err != nil {
		return value.Value{}, err
	}
	endpoint := endpoints[rand.IntN(len(endpoints))]

	body, err := json.Marshal(req)
	if err != nil {
		return value.Value{}, fmt.Errorf("httptp: encode request: %w", err)
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return value.Value{}, err
	}
	for k, vs := range t.opts.Headers {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}
	hreq.Header.Set("Content-Type", "application/json")
	hreq.Header.Set("Accept", "application/json")

	start := time.Now()
	status := 0
	eventbus.Publish(ctx, events.HTTPClientStart{Method: http.MethodPost, URL: endpoint})
	defer func() {
		eventbus.Publish(ctx, events.HTTPClientFinish{
			Method:   http.MethodPost,
			URL:      endpoint,
			Status:   status,
			Err:      err,
			Duration: time.Since(start),
		})
	}()

	resp, err := t.client.Do(hreq)
	if err != nil {
		return value.Value{}, err
	}
	defer resp.Body.Close()
	status = resp.StatusCode
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return value.Value{}, err
	}
	data, partial, err := decode(resp.StatusCode, raw)
	if err == nil && len(partial) > 0 {
		pe := events.PartialErrors{URL: endpoint}
		for _, ge := range partial {
			pe.Messages = append(pe.Messages, ge.Message)
			pe.Paths = append(pe.Paths, strings.Join(ge.Path, "."))
		}
		eventbus.Publish(ctx, pe)
	}
	return data, err
}

// decode splits a response into data and the errors reported next to it.
func decode(status int, raw []byte) (value.Value, []transport.GraphQLError, error) {
	if !gjson.ValidBytes(raw) {
		if status < 200 || status > 299 {
			return value.Value{}, nil, &transport.Error{Status: status}
		}
		return value.Value{}, nil, fmt.Errorf("%w: status %d", ErrBadResponse, status)
	}
	doc := gjson.ParseBytes(raw)
	if !doc.IsObject() {
		return value.Value{}, nil, fmt.Errorf("%w: status %d", ErrBadResponse, status)
	}
	var gqlErrs []transport.GraphQLError
	doc.Get("errors").ForEach(func(_, e gjson.Result) bool {
		ge := transport.GraphQLError{Message: e.Get("message").String()}
		e.Get("path").ForEach(func(_, p gjson.Result) bool {
			ge.Path = append(ge.Path, p.String())
			return true
		})
		gqlErrs = append(gqlErrs, ge)
		return true
	})
	data := doc.Get("data")
	if !data.Exists() || data.Type == gjson.Null {
		if len(gqlErrs) > 0 || status < 200 || status > 299 {
			return value.Value{}, nil, &transport.Error{Status: status, Errors: gqlErrs}
		}
		return value.NullValue(), nil, nil
	}
	if status < 200 || status > 299 {
		return value.Value{}, nil, &transport.Error{Status: status, Errors: gqlErrs}
	}
	return value.FromResult(data), gqlErrs, nil
}

// Close releases idle connections. Later calls to Execute fail.
func (t *Transport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	t.client.CloseIdleConnections()
	return nil
}
