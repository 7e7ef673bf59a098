package portal

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/regsync/internal/endpoints"
	"github.com/five82/regsync/internal/transport"
)

// State is a step of a single Login call.
type State int

const (
	StateUnauthenticated State = iota
	StateProbing
	StateAuthenticated
	StateDiscoveryFailed
	StateTransportFailed
	StateAuthRejected
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateProbing:
		return "probing"
	case StateAuthenticated:
		return "authenticated"
	case StateDiscoveryFailed:
		return "discovery_failed"
	case StateTransportFailed:
		return "transport_failed"
	case StateAuthRejected:
		return "auth_rejected"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Terminal reports whether Login ends in s.
func (s State) Terminal() bool {
	return s >= StateAuthenticated
}

// Manager authenticates against the registry, discovering the login path on the way.
// Two Logins must not run concurrently against the same endpoints store.
type Manager struct {
	registry *endpoints.Registry
	sender   transport.Sender
	timeout  time.Duration
	logger   zerolog.Logger
	observe  func(State, string)
}

// NewManager builds a Manager.
func NewManager(registry *endpoints.Registry, sender transport.Sender, opts Options) *Manager {
	if registry == nil {
		registry = endpoints.NewRegistry(nil)
	}
	return &Manager{
		registry: registry,
		sender:   sender,
		timeout:  opts.Timeouts.withDefaults().Login,
		logger:   opts.logger("session"),
		observe:  opts.Observe,
	}
}

// Login tries the cached login path first, then the registry's candidates, posting
// the real credentials to each until one answers with something other than 404.
// The first answering path decides the outcome; a success is cached for next time.
func (m *Manager) Login(ctx context.Context, creds Credentials) (Session, error) {
	if m == nil || m.sender == nil {
		return Session{}, fmt.Errorf("session manager is not configured")
	}
	if err := validate.Struct(creds); err != nil {
		return Session{}, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	cfg, err := m.registry.Config()
	if err != nil {
		m.logger.Warn().Err(err).Msg("endpoint config unavailable, using defaults")
	}
	candidates := endpoints.CandidateOrder(cfg.CachedLoginPath, m.registry.LoginCandidates())
	body := loginRequest{Username: creds.Username, Password: creds.Password}

	m.transition(StateUnauthenticated, "")
	last, tried := walkCandidates(ctx, candidates, func(ctx context.Context, path string) attempt {
		m.transition(StateProbing, path)
		resp, err := m.sender.Send(ctx, transport.Request{
			Method:  http.MethodPost,
			URL:     endpoints.Join(cfg.BaseURL, path),
			Body:    body,
			Timeout: m.timeout,
		})
		return classifyResponse(path, resp, err)
	})

	switch last.kind {
	case attemptFailed:
		m.transition(StateTransportFailed, last.path)
		return Session{}, wrapSendErr(endpoints.OpLogin, last.err)
	case attemptNotFound:
		m.transition(StateDiscoveryFailed, "")
		return Session{}, &DiscoveryError{Op: endpoints.OpLogin, BaseURL: cfg.BaseURL, Tried: tried}
	}

	result := classifyLoginResult(last.resp.Body)
	if result.verdict != verdictSuccess {
		m.transition(StateAuthRejected, last.path)
		return Session{}, &AuthError{
			Path:       last.path,
			StatusCode: last.resp.StatusCode,
			Reason:     result.reason,
			Malformed:  result.verdict == verdictMalformed,
		}
	}

	if last.path != cfg.CachedLoginPath {
		if err := m.registry.SetCachedLoginPath(last.path); err != nil {
			m.logger.Warn().Err(err).Str("path", last.path).Msg("could not cache login path")
		}
	}
	m.transition(StateAuthenticated, last.path)
	m.logger.Info().Str("path", last.path).Str("user_id", result.session.UserID).
		Str("school_id", result.session.SchoolID).Msg("logged in")
	return result.session, nil
}

func (m *Manager) transition(state State, path string) {
	ev := m.logger.Debug()
	if state.Terminal() && state != StateAuthenticated {
		ev = m.logger.Warn()
	}
	ev.Str("state", state.String()).Str("path", path).Msg("login state")
	if m.observe != nil {
		m.observe(state, path)
	}
}
