// Package domain concentra entidades e estruturas centrais do serviço de relatórios.
package domain

import "time"

// UnknownIdentity agrupa requisições sem cabeçalho de IP do cliente.
const UnknownIdentity = "unknown"

type RateLimitRule struct {
	Requests int
	Window   time.Duration
}

// RateLimitEntry guarda o contador de uma identidade dentro da janela fixa atual.
type RateLimitEntry struct {
	Identity      string
	Count         int
	WindowResetAt time.Time
}

type Decision struct {
	Allowed    bool
	Identity   string
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}
