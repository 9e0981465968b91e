// Package api provides the HTTP API server for transcript ingestion and
// transcript-grounded chat.
package api

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8082")
	ListenAddr string
}
