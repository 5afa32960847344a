package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/stockyhq/stocky/internal/config"
)

func quoteServer(t *testing.T, price string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><body><div class="quote">` + price + `</div></body></html>`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func runCLI(t *testing.T, args ...string) (int, string, string, string) {
	t.Helper()
	logFile := filepath.Join(t.TempDir(), "stocky.log")
	var stdout, stderr bytes.Buffer
	code := realMain(append([]string{"-env", "", "-log.file", logFile}, args...), &stdout, &stderr)
	b, _ := os.ReadFile(logFile)
	return code, stdout.String(), stderr.String(), string(b)
}

func TestStaticMode(t *testing.T) {
	t.Setenv(config.BrowserPathEnv, "")
	srv := quoteServer(t, `<span class="price"><span>1,234.56</span></span>`)

	code, out, stderr, log := runCLI(t, "-static.url", srv.URL+"/quote.php?qm_symbol={symbol}", "RY")
	require.Equal(t, exitOK, code, stderr)
	require.Equal(t, "1234.56\n", out)
	require.Empty(t, stderr, "console only shows critical events")
	require.Contains(t, log, "DEBUG")
	require.Contains(t, log, "price extracted")
}

func TestStaticMode_FormatError(t *testing.T) {
	srv := quoteServer(t, `<span class="price"><span>N/A</span></span>`)

	code, out, stderr, log := runCLI(t, "-static.url", srv.URL+"/q?s={symbol}", "-symbol", "RY")
	require.Equal(t, exitFormat, code)
	require.Empty(t, out)
	require.Contains(t, stderr, "CRITICAL")
	require.Contains(t, log, "quote failed")
}

func TestStaticMode_StructureError(t *testing.T) {
	srv := quoteServer(t, `<span class="last">1.00</span>`)

	code, _, _, _ := runCLI(t, "-static.url", srv.URL+"/q?s={symbol}", "-symbol", "RY")
	require.Equal(t, exitStructure, code)
}

func TestStaticMode_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	code, _, _, _ := runCLI(t, "-static.url", srv.URL+"/q?s={symbol}", "-symbol", "RY")
	require.Equal(t, exitRuntime, code)
}

func TestRenderedMode_RequiresBrowserPath(t *testing.T) {
	t.Setenv(config.BrowserPathEnv, "")

	code, _, stderr, _ := runCLI(t, "-mode", "rendered", "-symbol", "RY")
	require.Equal(t, exitStartup, code)
	require.Contains(t, stderr, config.BrowserPathEnv)
}

func TestRenderedMode_Replay(t *testing.T) {
	page := filepath.Join(t.TempDir(), "ry.html")
	require.NoError(t, os.WriteFile(page, []byte(`<html><body><div id="root">
<div>Royal Bank of Canada</div>
<div><span>PRICE</span> <span>$145.10</span></div>
<div><span>CHANGE</span> <span>+0.25</span></div>
</div></body></html>`), 0o600))

	code, out, stderr, log := runCLI(t, "-mode", "rendered", "-replay", page, "-settle", "0s", "-reload", "-symbol", "RY")
	require.Equal(t, exitOK, code, stderr)
	require.Equal(t, "145.1\n", out)
	require.Contains(t, log, "money.tmx.com/en/quote/RY")
}

func TestRenderedMode_ReplayMissingMarker(t *testing.T) {
	page := filepath.Join(t.TempDir(), "loading.html")
	require.NoError(t, os.WriteFile(page, []byte(`<div id="root">Loading...</div>`), 0o600))

	code, _, _, _ := runCLI(t, "-mode", "rendered", "-replay", page, "-settle", "0s", "-symbol", "RY")
	require.Equal(t, exitStructure, code)
}

func TestConfigFileAndFlagPrecedence(t *testing.T) {
	srv := quoteServer(t, `<span class="price"><span>10,000.00</span></span>`)
	cfgPath := filepath.Join(t.TempDir(), "stocky.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("symbol: TD\nmode: rendered\nstatic:\n  url: "+srv.URL+"/q?s={symbol}\n"), 0o600))
	t.Setenv("STOCKY_MODE", "static")
	t.Setenv(config.BrowserPathEnv, "")

	code, out, stderr, _ := runCLI(t, "-config", cfgPath)
	require.Equal(t, exitOK, code, stderr)
	require.Equal(t, "10000\n", out)

	code, _, _, _ = runCLI(t, "-config", cfgPath, "-mode", "rendered")
	require.Equal(t, exitStartup, code, "flag beats env and rendered mode needs a browser")
}

func TestMissingSymbol(t *testing.T) {
	t.Setenv("STOCKY_SYMBOL", "")
	code, _, _, _ := runCLI(t)
	require.Equal(t, exitStartup, code)
}

func TestConfigPathFromDotenv(t *testing.T) {
	srv := quoteServer(t, `<span class="price"><span>42.00</span></span>`)
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "stocky.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("symbol: RY\nstatic:\n  url: "+srv.URL+"/q?s={symbol}\n"), 0o600))
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("STOCKY_CONFIG="+cfgPath+"\n"), 0o600))
	t.Setenv("STOCKY_CONFIG", "")
	t.Setenv("STOCKY_MODE", "")

	var stdout, stderr bytes.Buffer
	code := realMain([]string{"-env", envPath, "-log.file", filepath.Join(dir, "stocky.log")}, &stdout, &stderr)
	require.Equal(t, exitOK, code, stderr.String())
	require.Equal(t, "42\n", stdout.String())
}
