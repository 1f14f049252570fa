// Package testutil hosts a scripted chat server for the CI test
// suites: enough of the HTTP API and the event stream to exercise a
// real client end to end without a live deployment.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/oklog/ulid/v2"

	"github.com/driftline/driftline-go/internal/wire"
	"github.com/driftline/driftline-go/pkg/types"
)

// Default credentials the scripted server accepts.
const (
	TestLoginID  = "bot@example.com"
	TestPassword = "hunter2"
	TestToken    = "scripted-token"
	TestUserID   = "u-bot"
	TestUsername = "bot"
)

// ChatServer is an in-process chat server. Posts created over HTTP are
// stored and echoed to every live stream connection as posted events.
type ChatServer struct {
	BaseURL string

	srv      *httptest.Server
	upgrader websocket.Upgrader

	dials  atomic.Int32
	active atomic.Int32

	mu    sync.Mutex
	posts map[string]types.Post
	conns []*websocket.Conn
}

// StartChatServer boots the scripted server. Callers must Stop it.
func StartChatServer() *ChatServer {
	s := &ChatServer{posts: make(map[string]types.Post)}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/users/login", s.handleLogin)
	mux.HandleFunc("GET /api/v1/users/me", s.handleMe)
	mux.HandleFunc("POST /api/v1/users/logout", s.handleOK)
	mux.HandleFunc("POST /api/v1/posts", s.handleCreatePost)
	mux.HandleFunc("GET /api/v1/posts/{id}", s.handleGetPost)
	mux.HandleFunc("DELETE /api/v1/posts/{id}", s.handleDeletePost)
	mux.HandleFunc("/api/v1/stream", s.handleStream)

	s.srv = httptest.NewServer(mux)
	s.BaseURL = s.srv.URL
	return s
}

// Stop shuts the server down and drops all stream connections.
func (s *ChatServer) Stop() {
	s.CloseStreams()
	s.srv.Close()
}

// Dials reports how many stream connections were attempted.
func (s *ChatServer) Dials() int { return int(s.dials.Load()) }

// ActiveStreams reports how many stream connections are live.
func (s *ChatServer) ActiveStreams() int { return int(s.active.Load()) }

// CloseStreams closes every live stream connection with a normal close
// frame, as a restarting server would.
func (s *ChatServer) CloseStreams() {
	s.mu.Lock()
	conns := s.conns
	s.conns = nil
	s.mu.Unlock()
	for _, conn := range conns {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "server restart")
		conn.WriteMessage(websocket.CloseMessage, msg)
		conn.Close()
	}
}

// Push broadcasts an event frame on every live stream connection.
func (s *ChatServer) Push(f wire.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.conns {
		conn.WriteJSON(f)
	}
}

// PushPost broadcasts a posted event for the given author and message.
func (s *ChatServer) PushPost(userID, channelID, message string) {
	data, _ := json.Marshal(wire.PostedData{
		Post: types.Post{
			ID:        ulid.Make().String(),
			UserID:    userID,
			ChannelID: channelID,
			Message:   message,
		},
	})
	s.Push(wire.Frame{Event: wire.EventPosted, Data: data})
}

func (s *ChatServer) authorized(r *http.Request) bool {
	return r.Header.Get("Authorization") == "Bearer "+TestToken
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *ChatServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		LoginID  string `json:"login_id"`
		Password string `json:"password"`
	}
	if json.NewDecoder(r.Body).Decode(&body) != nil ||
		body.LoginID != TestLoginID || body.Password != TestPassword {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid credentials"})
		return
	}
	w.Header().Set("Token", TestToken)
	writeJSON(w, http.StatusOK, types.User{ID: TestUserID, Username: TestUsername})
}

func (s *ChatServer) handleMe(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid token"})
		return
	}
	writeJSON(w, http.StatusOK, types.User{ID: TestUserID, Username: TestUsername})
}

func (s *ChatServer) handleOK(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (s *ChatServer) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid token"})
		return
	}
	var post types.Post
	if err := json.NewDecoder(r.Body).Decode(&post); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}
	post.ID = ulid.Make().String()
	post.UserID = TestUserID

	s.mu.Lock()
	s.posts[post.ID] = post
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, post)

	data, _ := json.Marshal(wire.PostedData{Post: post})
	s.Push(wire.Frame{Event: wire.EventPosted, Data: data})
}

func (s *ChatServer) handleGetPost(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid token"})
		return
	}
	s.mu.Lock()
	post, ok := s.posts[r.PathValue("id")]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "no such post"})
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *ChatServer) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid token"})
		return
	}
	s.mu.Lock()
	delete(s.posts, r.PathValue("id"))
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (s *ChatServer) handleStream(w http.ResponseWriter, r *http.Request) {
	s.dials.Add(1)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.active.Add(1)
	defer s.active.Add(-1)
	defer conn.Close()

	s.mu.Lock()
	s.conns = append(s.conns, conn)
	s.mu.Unlock()

	for {
		var f wire.Frame
		if err := conn.ReadJSON(&f); err != nil {
			return
		}
		switch f.Action {
		case wire.ActionAuthChallenge:
			var body wire.AuthChallenge
			if json.Unmarshal(f.Data, &body) != nil || body.Token != TestToken {
				conn.WriteJSON(wire.Frame{SeqReply: f.Seq, Status: "error", Error: &wire.FrameError{
					Message: "invalid token",
				}})
				return
			}
			conn.WriteJSON(wire.Frame{SeqReply: f.Seq, Status: wire.StatusOK})
		case wire.ActionGetStatuses:
			data, _ := json.Marshal(map[string]string{TestUserID: types.StatusOnline})
			conn.WriteJSON(wire.Frame{SeqReply: f.Seq, Status: wire.StatusOK, Data: data})
		default:
			conn.WriteJSON(wire.Frame{SeqReply: f.Seq, Status: "error", Error: &wire.FrameError{
				Message: fmt.Sprintf("unknown action %q", f.Action),
			}})
		}
	}
}
