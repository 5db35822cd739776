// Package timeouts defines the timeouts shared by arcana processes.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long a process waits for in-flight work when it
// stops: HTTP requests being served and spans being exported.
const Shutdown = 5 * time.Second
