// Package socket maintains a live event stream from the Amino WebSocket
// endpoint. A Manager owns at most one connection at a time, dispatches
// inbound frames to handlers registered by type, and reconnects with
// exponential backoff when the connection drops or a frame fails to decode.
// Once the reconnect budget is exhausted the manager closes and surfaces a
// terminal ConnectionError; callers never need to re-register handlers
// after a recovered failure.
package socket
