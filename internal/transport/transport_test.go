package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSend_PostsJSONWithFixedHeaders(t *testing.T) {
	t.Parallel()

	var gotHeader http.Header
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"d":"ok"}`))
	}))
	t.Cleanup(server.Close)

	h := New(WithUserAgent("regsync-test/1"))
	resp, err := h.Send(context.Background(), Request{
		URL:  server.URL + "/Login",
		Body: map[string]string{"USme": "u"},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.True(t, resp.OK())
	require.JSONEq(t, `{"d":"ok"}`, string(resp.Body))

	require.Equal(t, "application/json; charset=UTF-8", gotHeader.Get("Content-Type"))
	require.Equal(t, "application/json", gotHeader.Get("Accept"))
	require.Equal(t, "regsync-test/1", gotHeader.Get("User-Agent"))
	require.Equal(t, "u", gotBody["USme"])
}

func TestSend_NonSuccessStatusIsData(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(server.Close)

	resp, err := New().Send(context.Background(), Request{URL: server.URL + "/Missing"})
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.False(t, resp.OK())
}

func TestSend_ConnectionFailureIsTransportError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	_, err := New().Send(context.Background(), Request{URL: addr + "/Login", Timeout: time.Second})
	require.Error(t, err)
	require.True(t, IsFailure(err))
}

func TestSend_TimeoutIsTransportError(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	_, err := New().Send(context.Background(), Request{URL: server.URL, Timeout: 50 * time.Millisecond})
	require.Error(t, err)

	var te *Error
	require.ErrorAs(t, err, &te)
	require.True(t, te.Timeout())
}

func TestSend_RejectsRelativeURL(t *testing.T) {
	_, err := New().Send(context.Background(), Request{URL: "/Login"})
	require.Error(t, err)
	require.False(t, IsFailure(err))
}

func TestSend_OversizedBodyIsTransportError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.URL.Query().Get("body")))
	}))
	t.Cleanup(server.Close)

	h := New()
	h.maxBody = 16

	resp, err := h.Send(context.Background(), Request{URL: server.URL + "/Login?body=" + strings.Repeat("x", 16)})
	require.NoError(t, err, "a body exactly at the limit is kept")
	require.Len(t, resp.Body, 16)

	_, err = h.Send(context.Background(), Request{URL: server.URL + "/Login?body=" + strings.Repeat("x", 17)})
	require.Error(t, err)
	require.True(t, IsFailure(err))
	require.Contains(t, err.Error(), "response exceeds 16 bytes")
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestSend_UsesInjectedHTTPClient(t *testing.T) {
	t.Parallel()

	var gotURL string
	client := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		gotURL = r.URL.String()
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{},
			Body:       io.NopCloser(strings.NewReader(`{"d":"ok"}`)),
			Request:    r,
		}, nil
	})}

	resp, err := New(WithHTTPClient(client)).Send(context.Background(), Request{URL: "https://registry.test/Login"})
	require.NoError(t, err)
	require.Equal(t, "https://registry.test/Login", gotURL)
	require.JSONEq(t, `{"d":"ok"}`, string(resp.Body))
}
