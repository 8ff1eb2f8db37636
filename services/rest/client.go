// Package restsvc implements crud.Service over the campus REST API.
package restsvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/tidwall/gjson"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/services/metrics"
)

// Client sends JSON requests to the API. It holds no state between calls.
type Client struct {
	baseURL string
	token   string
	http    *rest.Client
	logger  core.Logger
	metrics *metrics.Metrics
}

func NewClient(conf core.APIConfig, logger core.Logger, m *metrics.Metrics) *Client {
	return &Client{
		baseURL: strings.TrimRight(conf.BaseURL, "/"),
		token:   conf.Token,
		http:    &rest.Client{HTTPClient: &http.Client{Timeout: conf.Timeout}},
		logger:  logger,
		metrics: m,
	}
}

type call struct {
	method   rest.Method
	resource string
	id       string // reported in NotFoundError
	segments []string
	params   map[string]string
	body     interface{}
}

func (c *Client) url(segments []string) string {
	parts := make([]string, 0, len(segments)+1)
	parts = append(parts, c.baseURL)
	for _, s := range segments {
		parts = append(parts, url.PathEscape(s))
	}
	return strings.Join(parts, "/")
}

// send runs the call and decodes a successful response body into dst (when not nil).
// Failures are mapped to the core error types.
func (c *Client) send(ctx context.Context, cl call, dst interface{}) error {
	req := rest.Request{
		Method:      cl.method,
		BaseURL:     c.url(cl.segments),
		Headers:     map[string]string{"Accept": "application/json"},
		QueryParams: cl.params,
	}
	if c.token != "" {
		req.Headers["Authorization"] = "Bearer " + c.token
	}
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return errors.Wrap(err, "encoding request body")
		}
		req.Body = data
		req.Headers["Content-Type"] = "application/json"
	}

	start := time.Now()
	resp, err := c.http.SendWithContext(ctx, req)
	if err != nil {
		c.metrics.ObserveClientRequest(cl.resource, string(cl.method), 0, time.Since(start))
		return core.NewNetworkError(err)
	}
	c.metrics.ObserveClientRequest(cl.resource, string(cl.method), resp.StatusCode, time.Since(start))
	c.debug(cl, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return responseError(resp, cl)
	}
	if dst == nil || strings.TrimSpace(resp.Body) == "" {
		return nil
	}
	if err = json.Unmarshal([]byte(unwrapBody(resp.Body)), dst); err != nil {
		return errors.Wrap(err, "decoding response body")
	}
	return nil
}

func (c *Client) debug(cl call, status int) {
	if c.logger == nil {
		return
	}
	c.logger.Debug("api call", map[string]interface{}{
		"method": string(cl.method),
		"path":   strings.Join(cl.segments, "/"),
		"status": status,
	})
}

// unwrapBody accepts both bare documents and {"results": ...} or {"data": ...} envelopes.
func unwrapBody(body string) string {
	res := gjson.Parse(body)
	if !res.IsObject() {
		return body
	}
	for _, key := range []string{"results", "data"} {
		if env := res.Get(key); env.Exists() && len(res.Map()) == 1 {
			return env.Raw
		}
	}
	return body
}

func responseError(resp *rest.Response, cl call) error {
	body := gjson.Parse(resp.Body)
	msg := body.Get("error").String()
	if msg == "" {
		msg = body.Get("message").String()
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return core.NewNotFoundError(cl.resource, cl.id)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if !body.IsObject() {
			return core.NewValidationError(errors.New(fallbackMessage(resp)))
		}
		var flds []core.FieldError
		body.ForEach(func(key, val gjson.Result) bool {
			if k := key.String(); k != "error" && k != "message" {
				flds = append(flds, core.FieldError{Field: k, Error: fieldMessage(val)})
			}
			return true
		})
		if len(flds) == 0 {
			if msg == "" {
				msg = fallbackMessage(resp)
			}
			return core.NewValidationError(errors.New(msg))
		}
		sort.Slice(flds, func(i, j int) bool { return flds[i].Field < flds[j].Field })
		return core.NewValidationError(nil, flds...)
	default:
		return core.NewServerError(resp.StatusCode, msg)
	}
}

// fieldMessage flattens a field's message, which may be a list of messages.
func fieldMessage(val gjson.Result) string {
	if !val.IsArray() {
		return val.String()
	}
	var msgs []string
	for _, v := range val.Array() {
		msgs = append(msgs, v.String())
	}
	return strings.Join(msgs, ", ")
}

func fallbackMessage(resp *rest.Response) string {
	if b := strings.TrimSpace(resp.Body); b != "" && !strings.HasPrefix(b, "{") {
		return b
	}
	return strings.ToLower(http.StatusText(resp.StatusCode))
}
