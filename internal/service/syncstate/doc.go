// Package syncstate answers "has lead L been sent to platform P" and records
// sends idempotently.
//
// The campaign_sends audit table is authoritative. The per-lead
// <platform>_synced flags are a cache: RecordSend sets them best-effort and
// Reconcile rebuilds them from the audit table. Flags are monotonic and
// never cleared.
//
// CheckStatus never fails on an internal error. It reports synced=false and
// logs, biasing toward not blocking outreach; in a rare failure window this
// can double-send a lead.
package syncstate
