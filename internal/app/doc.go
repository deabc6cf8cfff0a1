// Package app wires application dependencies for the CLI.
//
// Config is read from $HOME/.ourspace/config.yaml when present and can be
// overridden by flags. NewWire builds the relay client and the message,
// presence and session services from it.
package app
