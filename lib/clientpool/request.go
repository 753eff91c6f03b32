package clientpool

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"jianshukit/lib/apierr"
)

// mapError translates transport failures and non-2xx statuses into the
// library's error taxonomy. Every non-2xx status is an upstream fault
// here, 404 included: only resource existence endpoints reinterpret a 404
// as a missing resource, and they do that at the call site where the
// canonical resource URL is known.
func mapError(res *resty.Response, err error) error {
	if err != nil {
		return &apierr.UpstreamError{Err: err}
	}
	if res.IsError() {
		return &apierr.UpstreamError{StatusCode: res.StatusCode()}
	}
	return nil
}

// RequestOption mutates a single outgoing request, e.g. to attach a
// credential cookie.
type RequestOption func(*resty.Request) error

// GetJSON fetches path with the given query parameters and decodes the
// JSON body into out. out may be nil for existence probes.
func GetJSON(ctx context.Context, client *resty.Client, path string, query map[string]string, out any, opts ...RequestOption) error {
	req := client.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	for _, opt := range opts {
		if err := opt(req); err != nil {
			return err
		}
	}
	res, err := req.Get(path)
	if mapped := mapError(res, err); mapped != nil {
		return mapped
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(res.Body(), out); err != nil {
		return &apierr.UpstreamError{Err: err}
	}
	return nil
}

// PostJSON posts a JSON body to path and decodes the JSON response into
// out.
func PostJSON(ctx context.Context, client *resty.Client, path string, body any, out any) error {
	res, err := client.R().
		SetContext(ctx).
		SetBody(body).
		Post(path)
	if mapped := mapError(res, err); mapped != nil {
		return mapped
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(res.Body(), out); err != nil {
		return &apierr.UpstreamError{Err: err}
	}
	return nil
}

// GetHTML fetches path and parses the body as an HTML document.
func GetHTML(ctx context.Context, client *resty.Client, path string, query map[string]string, opts ...RequestOption) (*goquery.Document, error) {
	req := client.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	for _, opt := range opts {
		if err := opt(req); err != nil {
			return nil, err
		}
	}
	res, err := req.Get(path)
	if mapped := mapError(res, err); mapped != nil {
		return nil, mapped
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, &apierr.UpstreamError{Err: err}
	}
	return doc, nil
}
