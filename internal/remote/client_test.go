package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mathschool/sync-core/internal/models"
	"github.com/mathschool/sync-core/pkg/config"
	appErrors "github.com/mathschool/sync-core/pkg/errors"
)

func newTestClient(url string) *Client {
	return NewClient(config.RemoteConfig{BaseURL: url, Timeout: 2 * time.Second})
}

func TestClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/materials", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]models.LearningMaterial{{ID: "m1", Title: "Fractions"}})
	}))
	defer srv.Close()

	materials, err := newTestClient(srv.URL).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, materials, 1)
	require.Equal(t, "m1", materials[0].ID)
}

func TestClientCreateReturnsCanonicalObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var received models.LearningMaterial
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		received.ID = "server-assigned"
		_ = json.NewEncoder(w).Encode(received)
	}))
	defer srv.Close()

	created, err := newTestClient(srv.URL).Create(context.Background(), models.LearningMaterial{Title: "New"})
	require.NoError(t, err)
	require.Equal(t, "server-assigned", created.ID)
}

func TestClientMapsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL).Delete(context.Background(), "missing")
	require.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestClientTreatsServerErrorAsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Fetch(context.Background())
	require.True(t, appErrors.Is(err, appErrors.ErrNetworkUnavailable))
}

func TestClientUnreachableHostIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	_, err := newTestClient(srv.URL).Fetch(context.Background())
	require.True(t, appErrors.Is(err, appErrors.ErrNetworkUnavailable))
}

func TestClientTimeoutIsUnavailable(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer func() {
		close(block)
		srv.Close()
	}()

	client := NewClient(config.RemoteConfig{BaseURL: srv.URL, Timeout: 50 * time.Millisecond})
	_, err := client.Fetch(context.Background())
	require.True(t, appErrors.Is(err, appErrors.ErrNetworkUnavailable))
}

func TestRecordSinkPostsEnvelope(t *testing.T) {
	var received recordEnvelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	sink := NewRecordSink(srv.URL, srv.Client())
	err := sink.Post(context.Background(), "registrations", map[string]int{"pending": 3})
	require.NoError(t, err)
	require.Equal(t, "registrations", received.Dashboard)
}
