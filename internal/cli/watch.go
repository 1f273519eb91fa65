package cli

import (
	"context"
	"fmt"

	"github.com/gorilla/websocket"
	"github.com/me/linsched/pkg/model"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream live scheduler events",
		Long:  "Stream status and result events from the server until interrupted, or until --count events have arrived.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return watch(cmd.Context(), cmd, count)
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Stop after this many events (0 = until interrupted)")
	return cmd
}

func watch(ctx context.Context, cmd *cobra.Command, count int) error {
	url := client.WebSocketURL("/api/v1/ws")
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", url, err)
	}
	defer conn.Close()
	logger.Debug("watching", "url", url)

	stop := context.AfterFunc(ctx, func() {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	})
	defer stop()

	out := cmd.OutOrStdout()
	for seen := 0; count <= 0 || seen < count; seen++ {
		var ev model.Event
		if err := conn.ReadJSON(&ev); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read event: %w", err)
		}
		printEvent(out, ev)
	}
	return nil
}
