// Package storage persists canonical transactions, per-marketplace
// bookkeeping and a small key-value table.
//
// Transactions are deduplicated on write by their UniqueKey, so importing
// the same report twice inserts nothing the second time. Reads return
// records ordered by transaction time, then insertion order.
//
// SQLiteStore is the production implementation on modernc.org/sqlite.
// MemoryStore implements the same contract for tests and one-shot CLI
// runs.
package storage
