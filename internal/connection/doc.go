// Package connection implements the transport connector.
//
// A Client wraps one WebSocket connection; the Connector owns a single
// Client, subscribes it to the push topic with a per-process client id, and
// keeps it alive across failures with exponential backoff. Inbound frames
// are delivered as a never-ending stream; connectivity transitions are
// reported on a separate signal channel.
package connection
