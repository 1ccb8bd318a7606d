package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"elzar-backend/internal/infrastructure/config"
	"elzar-backend/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	if err := common.InitLogger("error"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func newTestService(appriseURL string) *Service {
	return NewService(&config.Config{
		Notify: config.NotifyConfig{AppriseURL: appriseURL},
	})
}

func TestIsConfigured(t *testing.T) {
	assert.False(t, newTestService("").IsConfigured())
	assert.True(t, newTestService("http://apprise:8000/notify").IsConfigured())
}

func TestSendRecipeNotConfigured(t *testing.T) {
	err := newTestService("").SendRecipe(context.Background(), "text", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestSendRecipePayload(t *testing.T) {
	var payload map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := newTestService(server.URL).SendRecipe(context.Background(), "# Pad Thai\n\nSteps...", "")
	require.NoError(t, err)
	assert.Equal(t, defaultTitle, payload["title"])
	assert.Equal(t, "# Pad Thai\n\nSteps...", payload["body"])
}

func TestSendRecipeCustomTitle(t *testing.T) {
	var payload map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	err := newTestService(server.URL).SendRecipe(context.Background(), "text", "Dinner tonight")
	require.NoError(t, err)
	assert.Equal(t, "Dinner tonight", payload["title"])
}

func TestSendRecipeTruncatesLongBody(t *testing.T) {
	var payload map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &payload))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	long := strings.Repeat("a", maxBodyLength+500)
	err := newTestService(server.URL).SendRecipe(context.Background(), long, "t")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(payload["body"], strings.Repeat("a", maxBodyLength)))
	assert.Contains(t, payload["body"], "truncated")
	assert.Less(t, len(payload["body"]), len(long))
}

func TestSendRecipeUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	err := newTestService(server.URL).SendRecipe(context.Background(), "text", "t")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
