package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var uploadChannelID string

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a file to a channel",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if uploadChannelID == "" {
			return fmt.Errorf("--channel-id is required")
		}

		ctx, cancel := commandContext()
		defer cancel()

		client, err := newClient(ctx, cfg)
		if err != nil {
			return err
		}
		defer client.Dispose()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		var size int64
		if st, err := f.Stat(); err == nil {
			size = st.Size()
		}

		name := filepath.Base(args[0])
		info, err := client.UploadFileWithProgress(ctx, uploadChannelID, name, f, size,
			func(transferred, total int64, percent float64) {
				if percent < 0 {
					fmt.Fprint(os.Stderr, dimStyle.Sprintf("\r%s: %d bytes", name, transferred))
					return
				}
				fmt.Fprint(os.Stderr, dimStyle.Sprintf("\r%s: %d/%d bytes (%.0f%%)", name, transferred, total, percent))
			})
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return err
		}

		fmt.Println(successStyle.Sprintf("uploaded %s (%s)", info.Name, info.ID))
		return nil
	},
}

func init() {
	uploadCmd.Flags().StringVar(&uploadChannelID, "channel-id", "", "Target channel id")
}
