// Package testutil holds request builders and assertions shared by handler
// and middleware tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "flightsurety/pkg/domain"
	"flightsurety/pkg/requestcontext"
)

// NewJSONRequest marshals body and sets the JSON content type.
func NewJSONRequest(t *testing.T, method, path string, body any) *http.Request {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err, "marshal request body")
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func NewRequest(t *testing.T, method, path string) *http.Request {
	t.Helper()
	return httptest.NewRequest(method, path, nil)
}

// WithSender does what the auth middleware does for an authenticated request.
func WithSender(req *http.Request, sender id.Address) *http.Request {
	return req.WithContext(requestcontext.WithSender(req.Context(), sender))
}

// WithAuth sets both the sender and the facade the request arrived through.
func WithAuth(req *http.Request, sender, caller id.Address) *http.Request {
	ctx := requestcontext.WithSender(req.Context(), sender)
	return req.WithContext(requestcontext.WithCaller(ctx, caller))
}

func DoRequest(handler http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

// UnmarshalResponse decodes the recorded body into a T.
func UnmarshalResponse[T any](t *testing.T, rr *httptest.ResponseRecorder) *T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), "unmarshal response: %s", rr.Body.String())
	return &out
}

func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	assert.Equal(t, expected, rr.Code, "unexpected status, body: %s", rr.Body.String())
}

func AssertStatusOK(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	AssertStatus(t, rr, http.StatusOK)
}

// AssertStatusAndError checks the status and the "error" code of the body.
func AssertStatusAndError(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	AssertStatus(t, rr, status)
	body := map[string]any{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), "unmarshal error response")
	assert.Equal(t, code, body["error"], "unexpected error code")
}

// AssertJSONContains checks one top-level key of a JSON object body.
func AssertJSONContains(t *testing.T, rr *httptest.ResponseRecorder, key string, expected any) {
	t.Helper()
	body := map[string]any{}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), "unmarshal response")
	assert.Equal(t, expected, body[key], "unexpected value for %q", key)
}
