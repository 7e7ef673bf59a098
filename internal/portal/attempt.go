package portal

import (
	"context"
	"net/http"

	"github.com/five82/regsync/internal/transport"
)

type attemptKind int

const (
	attemptNotFound attemptKind = iota
	attemptFound
	attemptFailed
)

// attempt is the outcome of calling one candidate path.
type attempt struct {
	kind attemptKind
	path string
	resp transport.Response
	err  error
}

// classifyResponse applies the discovery rule: only 404 means the path is absent.
func classifyResponse(path string, resp transport.Response, err error) attempt {
	if err != nil {
		return attempt{kind: attemptFailed, path: path, err: err}
	}
	if resp.StatusCode == http.StatusNotFound {
		return attempt{kind: attemptNotFound, path: path, resp: resp}
	}
	return attempt{kind: attemptFound, path: path, resp: resp}
}

// walkCandidates calls try for each candidate in order and stops at the first
// attempt that is not NotFound. It also returns every path it tried.
func walkCandidates(ctx context.Context, candidates []string, try func(context.Context, string) attempt) (attempt, []string) {
	tried := make([]string, 0, len(candidates))
	last := attempt{kind: attemptNotFound}
	for _, path := range candidates {
		tried = append(tried, path)
		last = try(ctx, path)
		if last.kind != attemptNotFound {
			return last, tried
		}
	}
	return last, tried
}
