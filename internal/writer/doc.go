// Package writer implements the tick archive: a batch writer that persists
// every applied timeslot to PostgreSQL so game history survives the viewer
// process.
//
// Rows are append-only; replays (a second INIT for the same game) are
// absorbed with ON CONFLICT DO NOTHING on (game, time_slot).
package writer
