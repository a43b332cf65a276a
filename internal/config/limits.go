package config

import "time"

// Transport timing and retry policy
const (
	// Reconnect policy: fixed delay, unbounded attempts
	ReconnectDelay = 3 * time.Second

	// Subscribe attempts are retried until the connection is ready.
	// UI surfaces mount before the connection necessarily exists.
	SubscribeRetryInterval = 750 * time.Millisecond

	// Keep-alive so idle connections aren't reclaimed by intermediaries
	PingInterval = 30 * time.Second

	// Timeouts
	DialTimeout    = 10 * time.Second
	WriteTimeout   = 10 * time.Second
	RequestTimeout = 15 * time.Second

	// Countdown sampling interval (remaining time is always recomputed
	// from the server-issued end time, never decremented locally)
	CountdownTick = 250 * time.Millisecond
)

// View model bounds
const (
	// Chat transcript kept per room view
	MaxChatMessages = 200
)
