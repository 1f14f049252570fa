// Package types contains the shared data types exchanged with a
// Driftline server over both the REST API and the event stream.
package types

// User is a Driftline account.
type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	Nickname  string `json:"nickname,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Roles     string `json:"roles,omitempty"`
	CreateAt  int64  `json:"create_at,omitempty"`
	UpdateAt  int64  `json:"update_at,omitempty"`
	DeleteAt  int64  `json:"delete_at,omitempty"`
}

// Post is a single message in a channel.
type Post struct {
	ID            string         `json:"id"`
	UserID        string         `json:"user_id"`
	ChannelID     string         `json:"channel_id"`
	RootID        string         `json:"root_id,omitempty"`
	Message       string         `json:"message"`
	PendingPostID string         `json:"pending_post_id,omitempty"`
	FileIDs       []string       `json:"file_ids,omitempty"`
	Props         map[string]any `json:"props,omitempty"`
	CreateAt      int64          `json:"create_at,omitempty"`
	UpdateAt      int64          `json:"update_at,omitempty"`
	DeleteAt      int64          `json:"delete_at,omitempty"`
}

// Channel types.
const (
	ChannelTypeOpen    = "O"
	ChannelTypePrivate = "P"
	ChannelTypeDirect  = "D"
)

// Channel is a conversation container inside a team.
type Channel struct {
	ID          string `json:"id"`
	TeamID      string `json:"team_id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Purpose     string `json:"purpose,omitempty"`
	Header      string `json:"header,omitempty"`
	CreateAt    int64  `json:"create_at,omitempty"`
	UpdateAt    int64  `json:"update_at,omitempty"`
	DeleteAt    int64  `json:"delete_at,omitempty"`
}

// FileInfo describes an uploaded file.
type FileInfo struct {
	ID       string `json:"id"`
	PostID   string `json:"post_id,omitempty"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type,omitempty"`
	CreateAt int64  `json:"create_at,omitempty"`
}

// User presence values carried by status_change events.
const (
	StatusOnline  = "online"
	StatusAway    = "away"
	StatusDND     = "dnd"
	StatusOffline = "offline"
)

// Status is a user's presence.
type Status struct {
	UserID         string `json:"user_id"`
	Status         string `json:"status"`
	Manual         bool   `json:"manual,omitempty"`
	LastActivityAt int64  `json:"last_activity_at,omitempty"`
}

// Broadcast is the routing metadata the server attaches to a stream
// event. It describes who the event was addressed to, not who sent it.
type Broadcast struct {
	OmitUsers map[string]bool `json:"omit_users,omitempty"`
	UserID    string          `json:"user_id,omitempty"`
	ChannelID string          `json:"channel_id,omitempty"`
	TeamID    string          `json:"team_id,omitempty"`
}
