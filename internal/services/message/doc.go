// Package message publishes and streams encrypted room messages.
//
// Publish seals a payload with the session key and adds it to the room's
// collection with a server-assigned creation time. Subscribe turns every
// backend snapshot into a sorted list of decrypted messages; entries that
// fail to open are reported per message rather than as stream errors.
package message
