// Package recorder archives chat message frames to PostgreSQL.
//
// Messages are batched and flushed on a timer or when the batch fills.
// Inserts are append-only with ON CONFLICT DO NOTHING, so replaying a
// stream after a reconnect cannot duplicate rows.
package recorder
