// Package presence keeps a participant's lease in a room alive and
// reports who else is there.
//
// A Tracker writes the local record right away and then on every
// heartbeat, letting the backend stamp lastSeen. Other participants count
// as active while their last stamp is inside the freshness window. Nobody
// needs to say goodbye: a client that stops heartbeating drops out once its
// lease ages past the window.
package presence
