package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	neturl "net/url"
)

// restClient issues Microsoft Graph REST calls with a bearer token. The base
// URL and http client are injectable so tests can point it at a local server.
type restClient struct {
	baseURL    string
	httpClient *http.Client
	token      func(ctx context.Context) (string, error)
}

func (c *restClient) get(ctx context.Context, op, path string, query neturl.Values, out any) error {
	u := c.baseURL + path
	if enc := query.Encode(); enc != "" {
		u += "?" + enc
	}
	return c.do(ctx, op, http.MethodGet, u, nil, out)
}

// getURL follows an absolute URL, used for @odata.nextLink continuation.
func (c *restClient) getURL(ctx context.Context, op, rawURL string, out any) error {
	return c.do(ctx, op, http.MethodGet, rawURL, nil, out)
}

func (c *restClient) post(ctx context.Context, op, path string, body, out any) error {
	return c.do(ctx, op, http.MethodPost, c.baseURL+path, body, out)
}

func (c *restClient) patch(ctx context.Context, op, path string, body, out any) error {
	return c.do(ctx, op, http.MethodPatch, c.baseURL+path, body, out)
}

func (c *restClient) delete(ctx context.Context, op, path string) error {
	return c.do(ctx, op, http.MethodDelete, c.baseURL+path, nil, nil)
}

func (c *restClient) do(ctx context.Context, op, method, rawURL string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return err
	}
	tok, err := c.token(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return c.errorFrom(op, resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// errorFrom decodes the Graph error envelope into a GraphError; an
// undecodable body still yields the status.
func (c *restClient) errorFrom(op string, resp *http.Response) error {
	ge := &GraphError{Op: op, Status: resp.StatusCode, Message: resp.Status}
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if data, err := io.ReadAll(resp.Body); err == nil && len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err == nil && payload.Error.Code != "" {
			ge.Code = payload.Error.Code
			ge.Message = payload.Error.Message
		}
	}
	return ge
}
