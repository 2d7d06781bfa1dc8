// Package journal persists the inbound sync event feed to Postgres for the
// console's audit and statistics collaborators. It sits off the dispatch
// path behind a growable buffer: the live sync core never waits on the
// database and keeps no durable state of its own.
package journal
