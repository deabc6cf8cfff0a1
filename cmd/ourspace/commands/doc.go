// Package commands defines the ourspace CLI and wires dependencies for subcommands.
//
// Commands
//
//   - address      Print the backend address of a room label
//   - chat         Join a room and chat interactively
//   - send         Encrypt and send one text message
//   - send-image   Compress, encrypt and send one image
//   - config init  Write a default config file
//
// # Implementation
//
// The root command loads $HOME/.ourspace/config.yaml, applies flag
// overrides, sets up zerolog on stderr and builds the dependency graph
// before any subcommand runs.
package commands
