package endpoints

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCandidateOrder(t *testing.T) {
	tests := []struct {
		name     string
		cached   string
		defaults []string
		want     []string
	}{
		{"no cache", "", []string{"/A", "/B"}, []string{"/A", "/B"}},
		{"cache moved first", "/B", []string{"/A", "/B", "/C"}, []string{"/B", "/A", "/C"}},
		{"cache not in defaults", "/Z", []string{"/A"}, []string{"/Z", "/A"}},
		{"blanks and missing slash", "  ", []string{"A", "", "/A"}, []string{"/A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CandidateOrder(tt.cached, tt.defaults))
		})
	}
}

func TestRegistryConfig_DefaultsAndNormalizes(t *testing.T) {
	r := NewRegistry(NewMemoryStore(Config{}))
	cfg, err := r.Config()
	require.NoError(t, err)
	require.Equal(t, DefaultBaseURL, cfg.BaseURL)
	require.Empty(t, cfg.CachedLoginPath)

	r = NewRegistry(NewMemoryStore(Config{BaseURL: " https://x.test// ", CachedLoginPath: "/UserLogin"}))
	cfg, err = r.Config()
	require.NoError(t, err)
	require.Equal(t, "https://x.test", cfg.BaseURL)
	require.Equal(t, "/UserLogin", cfg.CachedLoginPath)
}

func TestRegistrySetBaseURL_ClearsCachedPath(t *testing.T) {
	store := NewMemoryStore(Config{BaseURL: "https://a.test", CachedLoginPath: "/Login"})
	r := NewRegistry(store)

	require.NoError(t, r.SetBaseURL("https://a.test/"))
	cfg, _ := store.Load()
	require.Equal(t, "/Login", cfg.CachedLoginPath, "same base url keeps cache")

	require.NoError(t, r.SetBaseURL("https://b.test"))
	cfg, _ = store.Load()
	require.Equal(t, "https://b.test", cfg.BaseURL)
	require.Empty(t, cfg.CachedLoginPath)

	require.ErrorIs(t, r.SetBaseURL("ftp://b.test"), ErrInvalidBaseURL)
	require.Error(t, r.SetBaseURL("b.test"))
}

func TestRegistryConfig_StoreErrorFallsBackToDefault(t *testing.T) {
	r := NewRegistry(failingStore{}, WithDefaultBaseURL("https://fallback.test/"))
	cfg, err := r.Config()
	require.Error(t, err)
	require.Equal(t, "https://fallback.test", cfg.BaseURL)
}

func TestRegistryPaths(t *testing.T) {
	r := NewRegistry(nil, WithLoginCandidates("/Login", "Login", "/UserLogin"))
	require.Equal(t, []string{"/Login", "/UserLogin"}, r.LoginCandidates())
	require.Equal(t, "/SubmitStudentMarksDetails", r.Path(OpSubmitGrades))
	require.Empty(t, r.Path(OpLogin))
	require.Equal(t, "https://x.test/Login", Join("https://x.test/", "Login"))
}

type failingStore struct{}

func (failingStore) Load() (Config, error) { return Config{}, errors.New("disk gone") }
func (failingStore) SaveLoginPath(string) error { return errors.New("disk gone") }
func (failingStore) SaveBaseURL(string) error { return errors.New("disk gone") }
