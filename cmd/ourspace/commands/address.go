package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"ourspace/internal/crypto"
)

// address <room>: print the room's backend address and collections.
func addressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "address <room>",
		Short: "Print the backend address of a room label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := crypto.AddressOf(args[0])
			fmt.Fprintln(cmd.OutOrStdout(), addr)
			fmt.Fprintln(cmd.OutOrStdout(), "messages:", crypto.MessagesCollection(cfg.Namespace, addr))
			fmt.Fprintln(cmd.OutOrStdout(), "presence:", crypto.PresenceCollection(cfg.Namespace, addr))
			return nil
		},
	}
}
