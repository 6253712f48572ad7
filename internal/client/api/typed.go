package api

import (
	"context"
	"net/http"
)

// Result carries a typed outcome across goroutines.
type Result[T any] struct {
	Value T
	Err   error
}

// Get performs a GET and decodes the payload into T.
func Get[T any](ctx context.Context, c Client, path string) (T, error) {
	return Send[T](ctx, c, http.MethodGet, path, nil)
}

// Send performs a JSON call and decodes the payload into T.
func Send[T any](ctx context.Context, c Client, method, path string, body any) (T, error) {
	var out T

	resp, err := c.Do(ctx, Request{Method: method, Path: path, Body: body})
	if err != nil {
		return out, err
	}
	if err := resp.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}
