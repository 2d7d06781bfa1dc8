// Package model defines the domain types shared across the sync client:
// order snapshots, line items, and payment records as delivered by the
// edge servers.
package model
