package driftline

import (
	"context"

	"github.com/driftline/driftline-go/pkg/types"
)

// CreatePost posts a message to a channel.
func (c *Client) CreatePost(ctx context.Context, channelID, message string) (types.Post, error) {
	return c.rest.CreatePost(ctx, types.Post{ChannelID: channelID, Message: message})
}

// CreateReply posts a threaded reply to a root post.
func (c *Client) CreateReply(ctx context.Context, channelID, rootID, message string) (types.Post, error) {
	return c.rest.CreatePost(ctx, types.Post{ChannelID: channelID, RootID: rootID, Message: message})
}

// GetPost fetches a post by id.
func (c *Client) GetPost(ctx context.Context, postID string) (types.Post, error) {
	return c.rest.GetPost(ctx, postID)
}

// UpdatePost replaces a post's message.
func (c *Client) UpdatePost(ctx context.Context, post types.Post) (types.Post, error) {
	return c.rest.UpdatePost(ctx, post)
}

// DeletePost removes a post.
func (c *Client) DeletePost(ctx context.Context, postID string) error {
	return c.rest.DeletePost(ctx, postID)
}

// CreateChannel creates a channel.
func (c *Client) CreateChannel(ctx context.Context, channel types.Channel) (types.Channel, error) {
	return c.rest.CreateChannel(ctx, channel)
}

// GetChannelByName fetches a channel by team and name.
func (c *Client) GetChannelByName(ctx context.Context, teamID, name string) (types.Channel, error) {
	return c.rest.GetChannelByName(ctx, teamID, name)
}

// ListChannels pages through a team's channels.
func (c *Client) ListChannels(ctx context.Context, teamID string, page, perPage int) ([]types.Channel, error) {
	return c.rest.ListChannels(ctx, teamID, page, perPage)
}

// JoinChannel adds the current user to a channel.
func (c *Client) JoinChannel(ctx context.Context, channelID string) error {
	return c.rest.JoinChannel(ctx, channelID)
}

// GetUser fetches a user by id.
func (c *Client) GetUser(ctx context.Context, userID string) (types.User, error) {
	return c.rest.GetUser(ctx, userID)
}

// SetStatus updates the current user's presence.
func (c *Client) SetStatus(ctx context.Context, status string) (types.Status, error) {
	return c.rest.SetStatus(ctx, c.sess.UserID(), status)
}
