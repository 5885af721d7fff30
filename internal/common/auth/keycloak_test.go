package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newKeycloakServer fakes the token endpoint plus the admin API routes the
// client touches.
func newKeycloakServer(t *testing.T, admin http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/realms/test/protocol/openid-connect/token", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.FormValue("grant_type"))
		json.NewEncoder(w).Encode(TokenResponse{AccessToken: "test-token", ExpiresIn: 300})
	})
	mux.HandleFunc("/admin/", admin)
	return httptest.NewServer(mux)
}

func TestKeycloakClient_GetUser(t *testing.T) {
	srv := newKeycloakServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/realms/test/users/kc-1", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(Account{ID: "kc-1", Email: "alice@example.com", Username: "alice"})
	})
	defer srv.Close()

	client := NewKeycloakClient(srv.URL, "test", "client", "secret")

	account, err := client.GetUser(context.Background(), "kc-1")

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", account.Email)
	assert.Equal(t, "alice", account.Username)
}

func TestKeycloakClient_GetUser_NotFound(t *testing.T) {
	srv := newKeycloakServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer srv.Close()

	client := NewKeycloakClient(srv.URL, "test", "client", "secret")

	account, err := client.GetUser(context.Background(), "missing")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "USER_NOT_FOUND")
	assert.Nil(t, account)
}

func TestKeycloakClient_ListUsersByRole(t *testing.T) {
	srv := newKeycloakServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/admin/realms/test/roles/aquarium-manager/users", r.URL.Path)
		json.NewEncoder(w).Encode([]Account{
			{ID: "kc-1", Email: "m1@example.com"},
			{ID: "kc-2", Email: "m2@example.com"},
		})
	})
	defer srv.Close()

	client := NewKeycloakClient(srv.URL, "test", "client", "secret")

	accounts, err := client.ListUsersByRole(context.Background(), "aquarium-manager")

	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "m1@example.com", accounts[0].Email)
}

func TestKeycloakClient_DeleteUser(t *testing.T) {
	srv := newKeycloakServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/admin/realms/test/users/kc-1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})
	defer srv.Close()

	client := NewKeycloakClient(srv.URL, "test", "client", "secret")

	assert.NoError(t, client.DeleteUser(context.Background(), "kc-1"))
}

func TestKeycloakClient_DeleteUser_APIError(t *testing.T) {
	srv := newKeycloakServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer srv.Close()

	client := NewKeycloakClient(srv.URL, "test", "client", "secret")

	err := client.DeleteUser(context.Background(), "kc-1")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "KEYCLOAK_API_ERROR")
}

func TestKeycloakClient_TokenIsCachedAcrossCalls(t *testing.T) {
	tokenRequests := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/realms/test/protocol/openid-connect/token", func(w http.ResponseWriter, r *http.Request) {
		tokenRequests++
		json.NewEncoder(w).Encode(TokenResponse{AccessToken: "test-token", ExpiresIn: 300})
	})
	mux.HandleFunc("/admin/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Account{ID: "kc-1"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewKeycloakClient(srv.URL, "test", "client", "secret")

	_, err := client.GetUser(context.Background(), "kc-1")
	require.NoError(t, err)
	_, err = client.GetUser(context.Background(), "kc-1")
	require.NoError(t, err)

	assert.Equal(t, 1, tokenRequests)
}

// The client is shared by every handler, so parallel requests must not trip
// over the token cache. Run with -race in mind.
func TestKeycloakClient_ConcurrentRequestsShareToken(t *testing.T) {
	var tokenRequests int32
	mux := http.NewServeMux()
	mux.HandleFunc("/realms/test/protocol/openid-connect/token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tokenRequests, 1)
		json.NewEncoder(w).Encode(TokenResponse{AccessToken: "test-token", ExpiresIn: 300})
	})
	mux.HandleFunc("/admin/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(Account{ID: "kc-1", Email: "alice@example.com"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewKeycloakClient(srv.URL, "test", "client", "secret")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			account, err := client.GetUser(context.Background(), "kc-1")
			assert.NoError(t, err)
			assert.Equal(t, "alice@example.com", account.Email)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&tokenRequests))
}
