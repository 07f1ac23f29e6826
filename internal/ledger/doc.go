// Package ledger keeps privacy-preserving counters in sqlite: page views and
// contact relay attempts keyed by salted IP hashes. It also provides the
// Throttle sender that caps relays per client.
//
// The default DSN is an in-memory database, so nothing outlives the process.
package ledger
