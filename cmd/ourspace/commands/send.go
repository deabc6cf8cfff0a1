package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ourspace/internal/domain"
	"ourspace/internal/services/session"
	"ourspace/internal/util/memzero"
)

const sendTimeout = 30 * time.Second

// send --name --room -p <message>: join, publish one text message, leave.
func sendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Encrypt and send a text message to a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return oneShot(cmd.Context(), func(ctx context.Context, c *session.Controller) error {
				return c.Publish(ctx, domain.KindText, []byte(args[0]))
			})
		},
	}
	roomFlags(cmd)
	return cmd
}

// send-image --name --room -p <file>: join, publish one image, leave.
func sendImageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "send-image <file>",
		Short: "Compress, encrypt and send an image to a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			return oneShot(cmd.Context(), func(ctx context.Context, c *session.Controller) error {
				return c.PublishImage(ctx, raw)
			})
		},
	}
	roomFlags(cmd)
	return cmd
}

func oneShot(parent context.Context, fn func(context.Context, *session.Controller) error) error {
	ctx, cancel := context.WithTimeout(parent, sendTimeout)
	defer cancel()

	pass, err := roomPassphrase()
	if err != nil {
		return err
	}
	defer memzero.Zero(pass)

	c := wire.Sessions
	if _, err := c.Enter(ctx, name, room, pass, session.Handlers{}); err != nil {
		return err
	}
	defer func() { _ = c.Leave(context.WithoutCancel(ctx)) }()

	if err := fn(ctx, c); err != nil {
		return err
	}
	fmt.Println("sent")
	return nil
}
