package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/botbuilder/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.Config {
	return &config.Config{
		Logger: config.LoggerConfig{Level: "debug"},
		Server: config.ServerConfig{
			Addr:              "127.0.0.1:0",
			ReadHeaderTimeout: time.Second,
			ShutdownTimeout:   time.Second,
			SessionCookie:     config.DefaultSessionCookie,
			SessionTTL:        time.Hour,
		},
		Setup: config.SetupConfig{
			Endpoint:   config.DefaultSetupEndpoint,
			WebhookURL: config.DefaultSetupWebhookURL,
		},
		Registrar: config.RegistrarConfig{
			TelegramAPIURL:  config.DefaultRegistrarTelegramAPIURL,
			RequestTimeout:  5 * time.Second,
			AllowedOrigins:  []string{"*"},
			BreakerFailures: config.DefaultRegistrarBreakerFailures,
			BreakerTimeout:  config.DefaultRegistrarBreakerTimeout,
		},
		Scheduler: config.SchedulerConfig{
			Tasks: map[string]config.TaskConfig{
				config.SessionSweepTask: {Enabled: true, Schedule: config.DefaultSessionSweepSchedule},
			},
		},
		Messages: config.DefaultMessages,
	}
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

// newFakeTelegram serves getMe and setWebhook for any token.
func newFakeTelegram(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/getMe"):
			_, _ = io.WriteString(w, `{"ok":true,"result":{"id":42,"is_bot":true,"first_name":"Helper","username":"helper_bot"}}`)
		case strings.HasSuffix(r.URL.Path, "/setWebhook"):
			_, _ = io.WriteString(w, `{"ok":true,"result":true}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"ok":false,"error_code":404,"description":"Not Found"}`)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNew_ExternalEndpoint(t *testing.T) {
	t.Parallel()

	var (
		mu      sync.Mutex
		payload string
	)
	endpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		payload = string(body)
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"bot":{"id":7,"first_name":"Remote","username":"remote_bot"}}`)
	}))
	t.Cleanup(endpoint.Close)

	cfg := testConfig()
	cfg.Setup.Endpoint = endpoint.URL
	a, err := New(cfg, discardLogger())
	require.NoError(t, err)

	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)
	client := newClient(t)

	resp, err := client.PostForm(srv.URL+"/setup", url.Values{"token": {"123:ABC"}})
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "@remote_bot")
	assert.Contains(t, body, `id="activated"`)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, `{"token":"123:ABC","webhook_url":"`+config.DefaultSetupWebhookURL+`"}`, strings.TrimSpace(payload))
}

func TestNew_InProcessRegistrar(t *testing.T) {
	t.Parallel()

	tg := newFakeTelegram(t)
	cfg := testConfig()
	cfg.Setup.InProcess = true
	cfg.Registrar.Enabled = true
	cfg.Registrar.TelegramAPIURL = tg.URL

	a, err := New(cfg, discardLogger())
	require.NoError(t, err)
	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)

	t.Run("form", func(t *testing.T) {
		client := newClient(t)
		resp, err := client.PostForm(srv.URL+"/setup", url.Values{"token": {"123:ABC"}})
		require.NoError(t, err)
		body := readBody(t, resp)

		assert.Contains(t, body, "@helper_bot")
		assert.Contains(t, body, `id="activated"`)
	})

	t.Run("verify endpoint", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/api/verify", "application/json",
			strings.NewReader(`{"token":"123:ABC","webhook_url":"https://hooks.example/bot"}`))
		require.NoError(t, err)
		body := readBody(t, resp)

		require.Equal(t, http.StatusOK, resp.StatusCode, body)
		var got struct {
			Bot struct {
				ID       int64  `json:"id"`
				Username string `json:"username"`
			} `json:"bot"`
		}
		require.NoError(t, json.Unmarshal([]byte(body), &got))
		assert.Equal(t, int64(42), got.Bot.ID)
		assert.Equal(t, "helper_bot", got.Bot.Username)
	})
}

func TestNew_VerifyRouteOnlyWhenEnabled(t *testing.T) {
	t.Parallel()

	a, err := New(testConfig(), discardLogger())
	require.NoError(t, err)
	srv := httptest.NewServer(a.Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Post(srv.URL+"/api/verify", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	_ = readBody(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServe_StopsOnCancel(t *testing.T) {
	t.Parallel()

	a, err := New(testConfig(), discardLogger())
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	base := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}

func TestRun_ListenError(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Server.Addr = "127.0.0.1:-1"
	a, err := New(cfg, discardLogger())
	require.NoError(t, err)

	err = a.Run(context.Background())
	assert.Error(t, err)
}
