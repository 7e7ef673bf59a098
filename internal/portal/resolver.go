package portal

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/regsync/internal/endpoints"
	"github.com/five82/regsync/internal/transport"
)

// Resolver finds which candidate path exists on a deployment without real credentials.
type Resolver struct {
	sender  transport.Sender
	timeout time.Duration
	logger  zerolog.Logger
}

// NewResolver builds a Resolver that probes with the short probe timeout.
func NewResolver(sender transport.Sender, opts Options) *Resolver {
	return &Resolver{
		sender:  sender,
		timeout: opts.Timeouts.withDefaults().Probe,
		logger:  opts.logger("resolver"),
	}
}

// Probe posts payload to each candidate in order and stops at the first one that
// does not answer 404. A nil payload sends sentinel login credentials.
// A transport failure aborts the probe and is returned as a *TransportError.
func (r *Resolver) Probe(ctx context.Context, baseURL string, candidates []string, payload any) (ProbeResult, error) {
	if r == nil || r.sender == nil {
		return ProbeResult{}, fmt.Errorf("resolver is not configured")
	}
	if payload == nil {
		payload = loginRequest{Username: probeUser, Password: probeUser}
	}
	baseURL = endpoints.NormalizeBaseURL(baseURL)

	last, tried := walkCandidates(ctx, candidates, func(ctx context.Context, path string) attempt {
		resp, err := r.sender.Send(ctx, transport.Request{
			Method:  http.MethodPost,
			URL:     endpoints.Join(baseURL, path),
			Body:    payload,
			Timeout: r.timeout,
		})
		a := classifyResponse(path, resp, err)
		r.logger.Debug().Str("path", path).Int("status", resp.StatusCode).Bool("found", a.kind == attemptFound).Msg("probe")
		return a
	})

	switch last.kind {
	case attemptFailed:
		r.logger.Warn().Err(last.err).Str("path", last.path).Msg("probe aborted")
		return ProbeResult{Message: last.err.Error()}, wrapSendErr(endpoints.OpLogin, last.err)
	case attemptFound:
		r.logger.Info().Str("path", last.path).Int("status", last.resp.StatusCode).Msg("endpoint found")
		return ProbeResult{
			Found:        true,
			StatusCode:   last.resp.StatusCode,
			ResolvedPath: last.path,
			Message:      fmt.Sprintf("%s answered with status %d", last.path, last.resp.StatusCode),
		}, nil
	default:
		msg := "no candidates to probe"
		if len(tried) > 0 {
			msg = fmt.Sprintf("all candidates returned 404: %s", strings.Join(tried, ", "))
		}
		r.logger.Info().Strs("tried", tried).Msg("no endpoint found")
		return ProbeResult{StatusCode: last.resp.StatusCode, Message: msg}, nil
	}
}
