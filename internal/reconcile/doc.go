// Package reconcile implements the State Reconciler component: a pure
// function from (current order table, incoming message, subscribed store id)
// to the next order table plus the derived store-online flag.
//
// Ready replaces the table wholesale, OrderUpdated upserts by order id,
// OrderRemoved deletes idempotently, and EdgeStatus flips the online flag and
// optionally purges orders the server declared stale. Messages for other
// stores never perturb state.
package reconcile
