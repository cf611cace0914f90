// Package score holds the submission rules and the read/write logic for
// per-URL score records. Persistence is reached only through the Store
// interface; concrete backends live under internal/storage.
package score
