// Package pg bootstraps the pgx connection pool backing the durable storages
// (notifications and alerts) and applies goose SQL migrations at startup.
package pg
