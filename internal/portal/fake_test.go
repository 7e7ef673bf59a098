package portal

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/five82/regsync/internal/transport"
)

// scriptedSender answers by URL path suffix and records every request.
type scriptedSender struct {
	mu       sync.Mutex
	routes   map[string]scriptedReply
	requests []transport.Request
}

type scriptedReply struct {
	status int
	body   string
	err    error
}

func newScriptedSender(routes map[string]scriptedReply) *scriptedSender {
	return &scriptedSender{routes: routes}
}

func (s *scriptedSender) Send(_ context.Context, req transport.Request) (transport.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)

	for suffix, reply := range s.routes {
		if strings.HasSuffix(req.URL, suffix) {
			if reply.err != nil {
				return transport.Response{}, &transport.Error{Method: req.Method, URL: req.URL, Err: reply.err}
			}
			return transport.Response{StatusCode: reply.status, Body: []byte(reply.body)}, nil
		}
	}
	return transport.Response{StatusCode: 404}, nil
}

// paths returns the URL suffix of each request after baseURL.
func (s *scriptedSender) paths(baseURL string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.requests))
	for i, r := range s.requests {
		out[i] = strings.TrimPrefix(r.URL, baseURL)
	}
	return out
}

// lastBody decodes the JSON body of the most recent request.
func (s *scriptedSender) lastBody() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return nil
	}
	raw, _ := json.Marshal(s.requests[len(s.requests)-1].Body)
	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	return out
}

var errNetworkDown = errors.New("dial tcp: connection refused")
