// Package rest implements the request/response HTTP API: stateless
// calls that share the session credential but carry no lifecycle logic
// of their own.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/driftline/driftline-go/internal/session"
	"github.com/driftline/driftline-go/pkg/types"
)

const (
	apiPrefix = "/api/v1"

	// tokenHeader is the response header carrying the session token
	// after a successful password login.
	tokenHeader = "Token"

	defaultTimeout = 30 * time.Second
)

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ID         string `json:"id"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

// Client issues HTTP calls against a Driftline server, reading the
// bearer token from the shared session store per call.
type Client struct {
	base *url.URL
	http *http.Client
	sess *session.Store
}

// New builds a REST client for the given http(s) base URL.
func New(serverURL string, sess *session.Store, httpClient *http.Client) (*Client, error) {
	base, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("unsupported server url scheme %q", base.Scheme)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{base: base, http: httpClient, sess: sess}, nil
}

// endpoint joins the API prefix, path and query onto the base URL.
func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.base
	u.Path = apiPrefix + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do runs one API call. When auth is true the session credential is
// required and attached; its absence fails before any network attempt.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any, auth bool) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		token, ok := c.sess.Credential()
		if !ok {
			return nil, types.ErrNotAuthenticated
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return resp, decodeError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp, nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err == nil && len(raw) > 0 {
		_ = json.Unmarshal(raw, apiErr)
		apiErr.StatusCode = resp.StatusCode
	}
	return apiErr
}

// LoginWithPassword exchanges a login id and password for a session
// token (returned in the Token response header) and populates the
// session store with the credential and identity.
func (c *Client) LoginWithPassword(ctx context.Context, loginID, password string) (types.User, error) {
	var user types.User
	body := map[string]string{"login_id": loginID, "password": password}
	resp, err := c.do(ctx, http.MethodPost, "/users/login", nil, body, &user, false)
	if err != nil {
		return types.User{}, err
	}

	token := resp.Header.Get(tokenHeader)
	if token == "" {
		return types.User{}, fmt.Errorf("login response missing %s header", tokenHeader)
	}
	c.sess.SetCredential(token)
	c.sess.SetIdentity(user.ID, user.Username)
	return user, nil
}

// LoginWithToken installs a pre-issued token and resolves the identity
// behind it. The credential is cleared again if the lookup fails.
func (c *Client) LoginWithToken(ctx context.Context, token string) (types.User, error) {
	c.sess.SetCredential(token)
	user, err := c.GetMe(ctx)
	if err != nil {
		c.sess.Clear()
		return types.User{}, err
	}
	c.sess.SetIdentity(user.ID, user.Username)
	return user, nil
}

// Logout invalidates the server-side session. The caller clears the
// local session store and stops the stream.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/users/logout", nil, nil, nil, true)
	return err
}

// GetMe fetches the user the current credential belongs to.
func (c *Client) GetMe(ctx context.Context) (types.User, error) {
	var user types.User
	_, err := c.do(ctx, http.MethodGet, "/users/me", nil, nil, &user, true)
	return user, err
}

// GetUser fetches a user by id.
func (c *Client) GetUser(ctx context.Context, userID string) (types.User, error) {
	var user types.User
	_, err := c.do(ctx, http.MethodGet, "/users/"+userID, nil, nil, &user, true)
	return user, err
}

// SetStatus updates a user's presence.
func (c *Client) SetStatus(ctx context.Context, userID, status string) (types.Status, error) {
	var st types.Status
	body := map[string]string{"user_id": userID, "status": status}
	_, err := c.do(ctx, http.MethodPut, "/users/"+userID+"/status", nil, body, &st, true)
	return st, err
}

// CreatePost creates a post. A client-generated pending id makes the
// call safe to retry without duplicating the post.
func (c *Client) CreatePost(ctx context.Context, post types.Post) (types.Post, error) {
	if post.PendingPostID == "" {
		post.PendingPostID = ulid.Make().String()
	}
	var created types.Post
	_, err := c.do(ctx, http.MethodPost, "/posts", nil, post, &created, true)
	return created, err
}

// GetPost fetches a post by id.
func (c *Client) GetPost(ctx context.Context, postID string) (types.Post, error) {
	var post types.Post
	_, err := c.do(ctx, http.MethodGet, "/posts/"+postID, nil, nil, &post, true)
	return post, err
}

// UpdatePost replaces a post's message.
func (c *Client) UpdatePost(ctx context.Context, post types.Post) (types.Post, error) {
	var updated types.Post
	_, err := c.do(ctx, http.MethodPut, "/posts/"+post.ID, nil, post, &updated, true)
	return updated, err
}

// DeletePost removes a post.
func (c *Client) DeletePost(ctx context.Context, postID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/posts/"+postID, nil, nil, nil, true)
	return err
}

// CreateChannel creates a channel.
func (c *Client) CreateChannel(ctx context.Context, channel types.Channel) (types.Channel, error) {
	var created types.Channel
	_, err := c.do(ctx, http.MethodPost, "/channels", nil, channel, &created, true)
	return created, err
}

// GetChannelByName fetches a channel by team and name.
func (c *Client) GetChannelByName(ctx context.Context, teamID, name string) (types.Channel, error) {
	var channel types.Channel
	path := "/teams/" + teamID + "/channels/name/" + name
	_, err := c.do(ctx, http.MethodGet, path, nil, nil, &channel, true)
	return channel, err
}

// ListChannels pages through a team's channels.
func (c *Client) ListChannels(ctx context.Context, teamID string, page, perPage int) ([]types.Channel, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))
	var channels []types.Channel
	_, err := c.do(ctx, http.MethodGet, "/teams/"+teamID+"/channels", query, nil, &channels, true)
	return channels, err
}

// JoinChannel adds the current user to a channel.
func (c *Client) JoinChannel(ctx context.Context, channelID string) error {
	body := map[string]string{"user_id": c.sess.UserID()}
	_, err := c.do(ctx, http.MethodPost, "/channels/"+channelID+"/members", nil, body, nil, true)
	return err
}

// UploadFile streams a file to a channel from r. Size is advisory;
// pass 0 when unknown.
func (c *Client) UploadFile(ctx context.Context, channelID, filename string, r io.Reader) (types.FileInfo, error) {
	token, ok := c.sess.Credential()
	if !ok {
		return types.FileInfo{}, types.ErrNotAuthenticated
	}

	pr, pw := io.Pipe()
	form := multipart.NewWriter(pw)
	go func() {
		part, err := form.CreateFormFile("files", filename)
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = form.Close()
		}
		pw.CloseWithError(err)
	}()

	query := url.Values{}
	query.Set("channel_id", channelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/files", query), pr)
	if err != nil {
		return types.FileInfo{}, err
	}
	req.Header.Set("Content-Type", form.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return types.FileInfo{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return types.FileInfo{}, decodeError(resp)
	}

	var result struct {
		FileInfos []types.FileInfo `json:"file_infos"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return types.FileInfo{}, fmt.Errorf("decode response: %w", err)
	}
	if len(result.FileInfos) == 0 {
		return types.FileInfo{}, fmt.Errorf("upload response contained no file info")
	}
	return result.FileInfos[0], nil
}
