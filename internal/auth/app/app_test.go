package app

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWiresRouter(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "totp.key")
	require.NoError(t, os.WriteFile(keyFile, []byte("totp-sealing-key"), 0o600))

	cfg, err := loadConfig(map[string]string{
		"AUTH_DATABASE_FILE":             filepath.Join(dir, "auth.db"),
		"AUTH_PEPPER_FILE":               filepath.Join(dir, "secrets", "pepper"),
		"AUTH_TOTP_KEY_FILE":             keyFile,
		"AUTH_ADMIN_SECRET":              "s3cret",
		"AUTH_PROVIDER_GITHUB_CLIENT_ID": "gh-id",
		"LOG_LEVEL":                      "error",
	})
	require.NoError(t, err)

	app, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.db.Close() })

	require.NotNil(t, app.totpBox)
	require.Equal(t, []string{"github"}, app.refresher.Providers())
	require.FileExists(t, cfg.PepperFile)

	for _, path := range []string{"/livez", "/readyz", "/.well-known/jwks.json"} {
		rec := httptest.NewRecorder()
		app.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestNewFailsOnUnknownProvider(t *testing.T) {
	dir := t.TempDir()
	cfg, err := loadConfig(map[string]string{
		"AUTH_DATABASE_FILE":              filepath.Join(dir, "auth.db"),
		"AUTH_PEPPER_FILE":                filepath.Join(dir, "pepper"),
		"AUTH_ADMIN_SECRET":               "s3cret",
		"AUTH_PROVIDER_NOWHERE_CLIENT_ID": "id",
		"LOG_LEVEL":                       "error",
	})
	require.NoError(t, err)

	_, err = New(cfg)
	require.ErrorContains(t, err, "nowhere")
}
