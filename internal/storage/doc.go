// Package storage keeps an optional audit trail of post attempts.
//
// It is write-only from the bot's point of view: nothing is read back on
// startup, so duplicate tracking still resets with the process.
package storage
