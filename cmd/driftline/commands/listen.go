package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var listenAll bool

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Follow the event stream and print incoming messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		client, err := newClient(ctx, cfg)
		if err != nil {
			return err
		}
		defer client.Dispose()

		client.OnConnected(renderConnected)
		client.OnDisconnected(renderDisconnected)
		client.OnMessage(renderMessage)
		client.OnStatusChange(renderStatus)
		client.OnLog(renderLog)
		if listenAll {
			client.OnAnyEvent(renderAnyEvent)
		}

		if err := client.Start(ctx); err != nil {
			return err
		}

		<-ctx.Done()
		return client.Stop()
	},
}

func init() {
	listenCmd.Flags().BoolVar(&listenAll, "all", false, "Print every event kind, not just messages")
}
