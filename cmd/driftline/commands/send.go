package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/driftline/driftline-go/pkg/types"
)

var (
	sendChannelID   string
	sendChannelName string
	sendRootID      string
)

var sendCmd = &cobra.Command{
	Use:   "send [message...]",
	Short: "Post a message to a channel",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, cancel := commandContext()
		defer cancel()

		client, err := newClient(ctx, cfg)
		if err != nil {
			return err
		}
		defer client.Dispose()

		channelID := sendChannelID
		if channelID == "" && sendChannelName != "" {
			if cfg.TeamID == "" {
				return fmt.Errorf("--channel-name requires team_id in config")
			}
			channel, err := client.GetChannelByName(ctx, cfg.TeamID, sendChannelName)
			if err != nil {
				return err
			}
			channelID = channel.ID
		}
		if channelID == "" {
			return fmt.Errorf("one of --channel-id or --channel-name is required")
		}

		message := strings.Join(args, " ")
		var created types.Post
		if sendRootID != "" {
			created, err = client.CreateReply(ctx, channelID, sendRootID, message)
		} else {
			created, err = client.CreatePost(ctx, channelID, message)
		}
		if err != nil {
			return err
		}

		fmt.Println(successStyle.Sprintf("posted %s", created.ID))
		return nil
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendChannelID, "channel-id", "", "Target channel id")
	sendCmd.Flags().StringVar(&sendChannelName, "channel-name", "", "Target channel name (requires team_id)")
	sendCmd.Flags().StringVar(&sendRootID, "root-id", "", "Reply in the thread rooted at this post id")
}
