package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// Envelope is the response body shape shared by every endpoint
type Envelope struct {
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
	Kind   string          `json:"kind"`
	Fields json.RawMessage `json:"fields"`
}

// Response is a decoded API reply
type Response struct {
	Status int
	Body   Envelope
	Raw    []byte
}

// Decode unmarshals the data member into v
func (r *Response) Decode(t *testing.T, v interface{}) {
	t.Helper()
	require.NotEmpty(t, r.Body.Data, "expected data in %s", r.Raw)
	require.NoError(t, json.Unmarshal(r.Body.Data, v))
}

// APIClient issues JSON requests against the running test server
type APIClient struct {
	t       *testing.T
	baseURL string
	client  *http.Client
}

// NewAPIClient creates a client for baseURL
func NewAPIClient(t *testing.T, baseURL string) *APIClient {
	return &APIClient{
		t:       t,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Do sends body as JSON with an optional bearer token
func (a *APIClient) Do(method, path, token string, body interface{}) *Response {
	a.t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, a.baseURL+path, reader)
	require.NoError(a.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := a.client.Do(req)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)

	out := &Response{Status: resp.StatusCode, Raw: raw}
	if len(raw) > 0 {
		require.NoError(a.t, json.Unmarshal(raw, &out.Body), "non-JSON body: %s", raw)
	}
	return out
}

// Expect fails the test unless the reply carries status
func (a *APIClient) Expect(status int, method, path, token string, body interface{}) *Response {
	a.t.Helper()
	r := a.Do(method, path, token, body)
	require.Equal(a.t, status, r.Status, "%s %s: %s", method, path, r.Raw)
	return r
}
