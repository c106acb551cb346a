// Package sqlstore persists tasks in a relational table. SQLite is the default
// backend (a single local file); MySQL can be selected for shared deployments.
// The package also owns the idempotent schema initialisation that must run
// before the HTTP layer starts serving.
package sqlstore
