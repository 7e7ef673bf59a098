// Package endpoints knows where the registry's operations live.
//
// Only login is ambiguous between deployments, so it is resolved from an ordered
// candidate list; every other operation uses a fixed suffix. The base URL
// override and the last working login path are persisted through a Store.
package endpoints

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// DefaultBaseURL is the registry service used when no override is stored.
const DefaultBaseURL = "https://mobile.moe.gov.om/Sakhr.Elasip.Portal.Mobility/Services/MTletIt.svc"

// ErrInvalidBaseURL is returned for base URLs that are not absolute http(s) URLs.
var ErrInvalidBaseURL = errors.New("invalid base url")

// Operation names a remote call.
type Operation string

const (
	OpLogin         Operation = "login"
	OpListClasses   Operation = "list-classes"
	OpAbsenceDetail Operation = "absence-detail"
	OpSubmitAbsence Operation = "submit-absence"
	OpSubmitGrades  Operation = "submit-grades"
)

// Most likely first, following the deployments seen so far.
var defaultLoginCandidates = []string{
	"/Login",
	"/UserLogin",
	"/login",
	"/DoLogin",
	"/AuthenticateUser",
}

var defaultClassListCandidates = []string{
	"/GetStudentAbsenceFilter",
	"/GetTeacherClasses",
	"/GetClasses",
}

var fixedPaths = map[Operation]string{
	OpListClasses:   "/GetStudentAbsenceFilter",
	OpAbsenceDetail: "/GetStudentAbsenceDetails",
	OpSubmitAbsence: "/SubmitStudentAbsenceDetails",
	OpSubmitGrades:  "/SubmitStudentMarksDetails",
}

// Config is the persisted endpoint state.
type Config struct {
	BaseURL         string
	CachedLoginPath string
}

// Store persists Config between runs.
type Store interface {
	Load() (Config, error)
	SaveLoginPath(path string) error
	SaveBaseURL(baseURL string) error
}

// Registry combines the compiled-in candidate lists with a Store.
type Registry struct {
	store           Store
	defaultBaseURL  string
	loginCandidates []string
	classCandidates []string
}

// Option configures a Registry.
type Option func(*Registry)

// WithDefaultBaseURL replaces the compiled-in base URL fallback.
func WithDefaultBaseURL(baseURL string) Option {
	return func(r *Registry) {
		if trimmed := NormalizeBaseURL(baseURL); trimmed != "" {
			r.defaultBaseURL = trimmed
		}
	}
}

// WithLoginCandidates replaces the login candidate list.
func WithLoginCandidates(paths ...string) Option {
	return func(r *Registry) { r.loginCandidates = CandidateOrder("", paths) }
}

// WithClassListCandidates replaces the list-classes alias list.
func WithClassListCandidates(paths ...string) Option {
	return func(r *Registry) { r.classCandidates = CandidateOrder("", paths) }
}

// NewRegistry builds a Registry backed by store. A nil store keeps state in memory.
func NewRegistry(store Store, opts ...Option) *Registry {
	if store == nil {
		store = NewMemoryStore(Config{})
	}
	r := &Registry{
		store:           store,
		defaultBaseURL:  DefaultBaseURL,
		loginCandidates: append([]string(nil), defaultLoginCandidates...),
		classCandidates: append([]string(nil), defaultClassListCandidates...),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config returns the stored config with the default base URL filled in.
func (r *Registry) Config() (Config, error) {
	cfg, err := r.store.Load()
	if err != nil {
		return Config{BaseURL: r.defaultBaseURL}, fmt.Errorf("load endpoint config: %w", err)
	}
	cfg.BaseURL = NormalizeBaseURL(cfg.BaseURL)
	if cfg.BaseURL == "" {
		cfg.BaseURL = r.defaultBaseURL
	}
	cfg.CachedLoginPath = strings.TrimSpace(cfg.CachedLoginPath)
	return cfg, nil
}

// SetCachedLoginPath records the last login path that worked.
func (r *Registry) SetCachedLoginPath(path string) error {
	if err := r.store.SaveLoginPath(strings.TrimSpace(path)); err != nil {
		return fmt.Errorf("save login path: %w", err)
	}
	return nil
}

// SetBaseURL stores a base URL override. An empty value clears it.
// Changing the base URL also drops the cached login path.
func (r *Registry) SetBaseURL(raw string) error {
	normalized := NormalizeBaseURL(raw)
	if normalized != "" {
		if err := ValidateBaseURL(normalized); err != nil {
			return err
		}
	}
	current, err := r.store.Load()
	if err != nil {
		return fmt.Errorf("load endpoint config: %w", err)
	}
	if NormalizeBaseURL(current.BaseURL) == normalized {
		return nil
	}
	if err := r.store.SaveBaseURL(normalized); err != nil {
		return fmt.Errorf("save base url: %w", err)
	}
	if err := r.store.SaveLoginPath(""); err != nil {
		return fmt.Errorf("clear login path: %w", err)
	}
	return nil
}

// LoginCandidates returns a copy of the login candidate list.
func (r *Registry) LoginCandidates() []string {
	return append([]string(nil), r.loginCandidates...)
}

// ClassListCandidates returns a copy of the list-classes aliases.
func (r *Registry) ClassListCandidates() []string {
	return append([]string(nil), r.classCandidates...)
}

// Path returns the fixed suffix for op, or "" for probed operations.
func (r *Registry) Path(op Operation) string {
	return fixedPaths[op]
}

// CandidateOrder puts cached first, then defaults, dropping blanks and duplicates.
func CandidateOrder(cached string, defaults []string) []string {
	out := make([]string, 0, len(defaults)+1)
	seen := make(map[string]struct{}, len(defaults)+1)
	add := func(p string) {
		p = normalizePath(p)
		if p == "" {
			return
		}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	add(cached)
	for _, p := range defaults {
		add(p)
	}
	return out
}

// Join builds the request URL for a path under baseURL.
func Join(baseURL, path string) string {
	return NormalizeBaseURL(baseURL) + normalizePath(path)
}

// NormalizeBaseURL trims whitespace and trailing slashes.
func NormalizeBaseURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// ValidateBaseURL requires an absolute http or https URL.
func ValidateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w %q: %v", ErrInvalidBaseURL, raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w %q: must use http or https", ErrInvalidBaseURL, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%w %q: no host", ErrInvalidBaseURL, raw)
	}
	return nil
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
