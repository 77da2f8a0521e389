// Package httpclient calls other services by logical name and translates their
// answers back into apperr kinds.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/peng-yewang/YGMall/shared/apperr"
	"github.com/peng-yewang/YGMall/shared/discovery"
	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/peng-yewang/YGMall/shared/web"
)

type Client struct {
	httpClient *http.Client
	resolver   discovery.Resolver
	service    string
	logger     logs.Logger
}

func New(service string, resolver discovery.Resolver, timeout time.Duration, logger logs.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		resolver: resolver,
		service:  service,
		logger:   logger,
	}
}

type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   any
}

// Do sends req and decodes a successful response into out, which may be nil.
// Transport failures and 5xx answers are DependencyFailure, 4xx answers keep
// the kind reported by the remote service.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	baseURL, err := c.resolver.Resolve(c.service)
	if err != nil {
		return apperr.Dependency(c.service, err)
	}

	target := baseURL + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return apperr.Internal("could not encode request to "+c.service, err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		c.logger.Error("failed to create request", "service", c.service, "url", target, "error", err)
		return apperr.Internal("could not create request to "+c.service, err)
	}
	for key, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug("sending request", "service", c.service, "method", req.Method, "url", target)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("request failed", "service", c.service, "url", target, "error", err)
		return apperr.Dependency(c.service, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return apperr.Dependency(c.service, fmt.Errorf("undecodable response: %w", err))
		}
		return nil
	}

	return c.decodeProblem(resp)
}

func (c *Client) decodeProblem(resp *http.Response) error {
	var problem web.ProblemDetail
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&problem); err != nil {
		problem.Detail = http.StatusText(resp.StatusCode)
	}
	message := fmt.Sprintf("%s responded %d: %s", c.service, resp.StatusCode, problem.Detail)

	var appErr *apperr.Error
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		appErr = apperr.Validation(c.service, message)
	case resp.StatusCode == http.StatusNotFound:
		appErr = apperr.NotFound(c.service, message)
	case resp.StatusCode == http.StatusConflict:
		appErr = apperr.Conflict(c.service, message)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusRequestTimeout:
		appErr = apperr.Dependency(c.service, errors.New(message))
	default:
		if kind, ok := apperr.KindFromName(problem.Kind); ok && kind != apperr.ErrInternal {
			appErr = &apperr.Error{Kind: kind, Entity: c.service, Message: message}
		} else {
			appErr = apperr.Internal(message, nil)
		}
	}

	c.logger.Debug("remote service returned an error", "service", c.service, "status", resp.StatusCode, "kind", problem.Kind, "reason", problem.Reason)
	return appErr.WithReason(problem.Reason)
}
