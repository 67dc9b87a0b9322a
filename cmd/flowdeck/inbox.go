package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aretw0/flowdeck/internal/cli"
	"github.com/aretw0/flowdeck/pkg/conversation"
	"github.com/aretw0/flowdeck/pkg/domain"
	"github.com/spf13/cobra"
)

var inboxCmd = &cobra.Command{
	Use:   "inbox",
	Short: "Follow WhatsApp conversations",
}

var inboxTailCmd = &cobra.Command{
	Use:   "tail [conversation-id]",
	Short: "Print live conversation messages",
	Long: `Seeds the conversation from the backend history, then prints every message
pushed by the socket. Messages missed while the socket reconnects are pulled
from the history. Without a conversation id every conversation is followed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stack, _, err := openStack(cmd)
		if err != nil {
			return err
		}
		defer stack.Close()

		var conversationID string
		if len(args) == 1 {
			conversationID = args[0]
		}
		out := cmd.OutOrStdout()
		follows := func(m domain.Message) bool {
			return conversationID == "" || m.ConversationID == conversationID
		}
		// Reconnect resyncs print from the socket goroutine.
		var mu sync.Mutex
		emit := func(kind domain.MessageEventType, m domain.Message) {
			mu.Lock()
			defer mu.Unlock()
			printMessage(out, kind, m)
		}

		inbox := conversation.NewInbox(
			conversation.WithLogger(stack.Logger),
			conversation.WithObserver(func(_ context.Context, ev domain.MessageEvent) {
				if follows(ev.Message) {
					emit(ev.Type, ev.Message)
				}
			}),
		)

		var ids []string
		if conversationID != "" {
			ids = []string{conversationID}
		}
		feed := stack.Feed(stack.Resync(inbox, func(m domain.Message) {
			if follows(m) {
				emit("missed", m)
			}
		}, ids...))
		if feed == nil {
			return errors.New("socket.url is not configured")
		}

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		if conversationID != "" && stack.History != nil {
			if _, err := inbox.Load(sigCtx, stack.History, conversationID); err != nil {
				return err
			}
			for _, m := range inbox.Messages(conversationID) {
				emit("history", m)
			}
			inbox.MarkRead(conversationID)
		}

		if err := inbox.Pump(sigCtx, feed); err != nil && !cli.IsInterrupted(err) {
			return err
		}
		return nil
	},
}

func printMessage(w io.Writer, kind domain.MessageEventType, m domain.Message) {
	status := m.Status
	if status == "" {
		status = "-"
	}
	fmt.Fprintf(w, "%s [%s] %s %s: %s (%s)\n",
		m.Timestamp.Local().Format(time.TimeOnly), kind, m.ConversationID, m.From, m.Body, status)
}

func init() {
	rootCmd.AddCommand(inboxCmd)
	inboxCmd.AddCommand(inboxTailCmd)
}
