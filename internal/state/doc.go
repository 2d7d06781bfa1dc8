// Package state implements the Observable State component: the current order
// table, store-online flag, and connection phase for one subscribed store,
// exposed as immutable snapshots with a freshness-ordered list view and
// change notification for consumers.
package state
