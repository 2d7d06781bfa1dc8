// Package protocol implements the Message Codec component.
//
// It defines the four inbound message variants (Ready, OrderUpdated,
// OrderRemoved, EdgeStatus) as a closed sum type, the outbound Subscribe
// command, and the decoder that turns raw WebSocket text frames into typed
// messages. Malformed frames decode to (nil, false) and are dropped by the
// caller.
package protocol
