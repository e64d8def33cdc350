// Package database provides connection pool management for the chat archive.
package database
