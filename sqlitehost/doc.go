// Package sqlitehost provides a SQLite-backed linkstore.Host.
//
// Each region is one row in the regions table. Mutations run inside a
// BEGIN IMMEDIATE transaction, which takes SQLite's write lock up front, so
// two writers never interleave a read-modify-write on the same region and
// a failed callback rolls back with the row untouched.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Checksums are stored alongside the data and verified on every read, the
// same check the file host applies to its region files.
package sqlitehost
