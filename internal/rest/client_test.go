package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/driftline/driftline-go/internal/session"
	"github.com/driftline/driftline-go/pkg/types"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *session.Store) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	sess := session.New()
	c, err := New(srv.URL, sess, srv.Client())
	require.NoError(t, err)
	return c, sess
}

func TestLoginWithPasswordCapturesTokenAndIdentity(t *testing.T) {
	c, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/users/login", r.URL.Path)
		require.Empty(t, r.Header.Get("Authorization"), "login must not send a credential")

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "bot@example.com", body["login_id"])

		w.Header().Set("Token", "tok-abc")
		json.NewEncoder(w).Encode(types.User{ID: "u1", Username: "bot"})
	})

	user, err := c.LoginWithPassword(context.Background(), "bot@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	token, ok := sess.Credential()
	assert.True(t, ok)
	assert.Equal(t, "tok-abc", token)
	assert.Equal(t, "u1", sess.UserID())
	assert.Equal(t, "bot", sess.Username())
}

func TestLoginWithTokenResolvesIdentity(t *testing.T) {
	c, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/users/me", r.URL.Path)
		require.Equal(t, "Bearer tok-xyz", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(types.User{ID: "u2", Username: "svc"})
	})

	user, err := c.LoginWithToken(context.Background(), "tok-xyz")
	require.NoError(t, err)
	assert.Equal(t, "u2", user.ID)
	assert.Equal(t, "u2", sess.UserID())
}

func TestLoginWithTokenClearsCredentialOnFailure(t *testing.T) {
	c, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"id": "api.auth.invalid", "message": "bad token"})
	})

	_, err := c.LoginWithToken(context.Background(), "bad")
	require.Error(t, err)
	assert.False(t, sess.Authenticated())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "bad token", apiErr.Message)
}

func TestPrivilegedCallWithoutCredentialFailsFast(t *testing.T) {
	called := false
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := c.GetMe(context.Background())
	assert.ErrorIs(t, err, types.ErrNotAuthenticated)
	assert.False(t, called, "no request may be sent without a credential")
}

func TestCreatePostAssignsPendingID(t *testing.T) {
	var received types.Post
	c, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/posts", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		received.ID = "p1"
		json.NewEncoder(w).Encode(received)
	})
	sess.SetCredential("tok")

	created, err := c.CreatePost(context.Background(), types.Post{ChannelID: "c1", Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "p1", created.ID)
	assert.NotEmpty(t, received.PendingPostID, "client must mint a pending post id")
	assert.Len(t, received.PendingPostID, 26, "pending post id is a ULID")
}

func TestListChannelsQuery(t *testing.T) {
	c, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/teams/t1/channels", r.URL.Path)
		require.Equal(t, "2", r.URL.Query().Get("page"))
		require.Equal(t, "50", r.URL.Query().Get("per_page"))
		json.NewEncoder(w).Encode([]types.Channel{{ID: "c1", Name: "town-square"}})
	})
	sess.SetCredential("tok")

	channels, err := c.ListChannels(context.Background(), "t1", 2, 50)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, "town-square", channels[0].Name)
}

func TestUploadFile(t *testing.T) {
	c, sess := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/files", r.URL.Path)
		require.Equal(t, "c1", r.URL.Query().Get("channel_id"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		file, header, err := r.FormFile("files")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "notes.txt", header.Filename)

		json.NewEncoder(w).Encode(map[string][]types.FileInfo{
			"file_infos": {{ID: "f1", Name: header.Filename, Size: header.Size}},
		})
	})
	sess.SetCredential("tok")

	info, err := c.UploadFile(context.Background(), "c1", "notes.txt", strings.NewReader("file body"))
	require.NoError(t, err)
	assert.Equal(t, "f1", info.ID)
}

func TestNewRejectsStreamSchemes(t *testing.T) {
	_, err := New("wss://chat.example.com", session.New(), nil)
	assert.Error(t, err)
}
