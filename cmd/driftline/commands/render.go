package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"

	"github.com/driftline/driftline-go/pkg/types"
)

var (
	dimStyle     = color.New(color.FgHiBlack)
	senderStyle  = color.New(color.FgCyan, color.Bold)
	statusStyle  = color.New(color.FgYellow)
	successStyle = color.New(color.FgGreen)
	errorStyle   = color.New(color.FgRed)
)

func renderConnected(ev types.ConnectedEvent) {
	fmt.Fprintln(os.Stderr, dimStyle.Sprintf("connected to %s", ev.ServerURL))
}

func renderDisconnected(ev types.DisconnectedEvent) {
	fmt.Fprintln(os.Stderr, dimStyle.Sprintf("disconnected (%d) %s", ev.CloseCode, ev.Reason))
}

func renderMessage(ev types.MessageEvent) {
	sender := ev.SenderName
	if sender == "" {
		sender = ev.Post.UserID
	}
	channel := ev.ChannelName
	if channel == "" {
		channel = ev.Post.ChannelID
	}
	ts := time.UnixMilli(ev.Post.CreateAt).Format("15:04:05")
	fmt.Printf("%s %s %s %s\n",
		dimStyle.Sprint(ts),
		dimStyle.Sprintf("[%s]", channel),
		senderStyle.Sprintf("%s ›", sender),
		ev.Post.Message,
	)
}

func renderStatus(ev types.StatusEvent) {
	fmt.Println(statusStyle.Sprintf("%s is now %s", ev.UserID, ev.Status))
}

func renderAnyEvent(ev types.AnyEvent) {
	fmt.Println(dimStyle.Sprintf("event %s %s", ev.Kind, string(ev.Data)))
}

func renderLog(ev types.LogEvent) {
	if ev.Err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Sprintf("! %s: %v", ev.Message, ev.Err))
		return
	}
	fmt.Fprintln(os.Stderr, dimStyle.Sprintf("! %s", ev.Message))
}
