// Package connection implements the Connection Manager and Subscription
// Controller components.
//
// A Session:
//   - Maintains one best-effort always-on WebSocket per watched store
//   - Authenticates via a token in the connection URI
//   - Reconnects with exponential backoff (1s floor, 30s ceiling, reset on
//     successful connect)
//   - Re-sends the subscribe declaration on every connect
//   - Clears reconciled state on transport loss and on teardown
package connection
