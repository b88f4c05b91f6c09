// Package notifier delivers bot messages to the configured chat.
//
// # Transport
//
// The service delegates delivery to a transport.Sender (the Telegram adapter
// in production, a writer in dry-run mode). Every failure, whatever its cause,
// comes back as a homework delivery error so the poll loop can treat it
// uniformly.
//
// # Throttling
//
// Sends pass through a token bucket so a misbehaving loop cannot flood the
// chat.
//
// # History
//
// The service keeps a small in-memory history of delivered messages and, when
// a journal is configured, appends each delivery to it (best effort).
package notifier
