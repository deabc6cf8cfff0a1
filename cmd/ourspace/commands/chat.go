package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"ourspace/internal/domain"
	"ourspace/internal/services/session"
	"ourspace/internal/util/memzero"
)

// chat --name --room -p: join a room, print messages and presence changes,
// send each stdin line. "/image <file>" sends a picture, "/who" lists the
// others, "/quit" leaves.
func chatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Join a room and chat interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pass, err := roomPassphrase()
			if err != nil {
				return err
			}
			defer memzero.Zero(pass)

			out := cmd.OutOrStdout()
			var mu sync.Mutex
			p := newPrinter(out, domain.Username(strings.TrimSpace(name)))
			failed := make(chan error, 1)

			c := wire.Sessions
			sess, err := c.Enter(ctx, name, room, pass, session.Handlers{
				OnMessages: func(msgs []domain.DecryptedMessage) {
					mu.Lock()
					defer mu.Unlock()
					p.print(msgs)
				},
				OnPresence: func(names []domain.Username) {
					mu.Lock()
					defer mu.Unlock()
					fmt.Fprintf(out, "-- online: %s\n", joinNames(names))
				},
				OnError: func(err error) {
					select {
					case failed <- err:
					default:
					}
				},
			})
			if err != nil {
				return err
			}
			defer func() { _ = c.Leave(context.WithoutCancel(ctx)) }()

			logger.Info().Str("room", sess.RoomAddress.String()).Msg("joined; type /quit to leave")

			lines := make(chan string)
			go func() {
				defer close(lines)
				sc := bufio.NewScanner(os.Stdin)
				for sc.Scan() {
					lines <- sc.Text()
				}
			}()

			for {
				select {
				case <-ctx.Done():
					return nil
				case err := <-failed:
					return fmt.Errorf("message stream: %w", err)
				case line, ok := <-lines:
					if !ok {
						return nil
					}
					if quit := handleLine(ctx, c, line, out); quit {
						return nil
					}
				}
			}
		},
	}
	roomFlags(cmd)
	return cmd
}

func handleLine(ctx context.Context, c *session.Controller, line string, out io.Writer) bool {
	line = strings.TrimSpace(line)
	switch {
	case line == "":
		return false
	case line == "/quit":
		return true
	case line == "/who":
		fmt.Fprintf(out, "-- online: %s\n", joinNames(c.Active()))
	case strings.HasPrefix(line, "/image "):
		raw, err := os.ReadFile(strings.TrimSpace(strings.TrimPrefix(line, "/image ")))
		if err == nil {
			err = c.PublishImage(ctx, raw)
		}
		if err != nil {
			logger.Error().Err(err).Msg("image not sent")
		}
	default:
		if err := c.Publish(ctx, domain.KindText, []byte(line)); err != nil {
			logger.Error().Err(err).Msg("message not sent")
		}
	}
	return false
}

func joinNames(names []domain.Username) string {
	if len(names) == 0 {
		return "nobody else"
	}
	s := make([]string, len(names))
	for i, n := range names {
		s[i] = n.String()
	}
	return strings.Join(s, ", ")
}
