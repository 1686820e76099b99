// Package provider implements the gateway over interchangeable
// text-generation backends, plus the credential-less fallback job board.
//
// One capability surface (discover, extract, match, draft, summarize) is
// served by whichever backend the profile currently selects; selection is
// resolved per call so a profile change takes effect immediately.
package provider

import "context"

// Backend generates text for a prompt. Implementations are thin REST
// clients; they return transport and HTTP errors verbatim and leave output
// interpretation to the gateway.
type Backend interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}
