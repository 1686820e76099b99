// Package dispatch delivers application material over a two-tier
// mechanism: an autonomous relay endpoint when configured, otherwise a
// pre-filled compose URI the operator finishes by hand.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

const relayTimeout = 15 * time.Second

// Mode tags how a send was carried out.
type Mode string

const (
	// ModeRelay means the relay POST was submitted. Actual delivery cannot
	// be observed synchronously; submission is the only available signal.
	ModeRelay Mode = "relay"
	// ModeLocalHandoff means a compose URI was produced for the operator's
	// own mail client. Attachments cannot be embedded in this mode and
	// must be attached manually.
	ModeLocalHandoff Mode = "localHandoff"
)

// Request describes one outgoing message.
type Request struct {
	To          string
	Subject     string
	Body        string
	Attachments []string
	// CoverLetter is forwarded to the relay so it can render a PDF
	// server-side. Ignored in local handoff.
	CoverLetter string
	// RelayURL enables the autonomous tier. Empty goes straight to local
	// handoff.
	RelayURL string
}

// Result reports the mode used and, for local handoff, the compose URI and
// the attachments the operator must add manually.
type Result struct {
	Mode              Mode     `json:"mode"`
	HandoffURI        string   `json:"handoffUri,omitempty"`
	ManualAttachments []string `json:"manualAttachments,omitempty"`
}

// Drafts sometimes erroneously open with their own subject line.
var subjectLinePattern = regexp.MustCompile(`(?i)^Subject:[^\n]*\n?`)

// Gateway sends messages. Safe for concurrent use.
type Gateway struct {
	client *http.Client
	logger *zap.SugaredLogger
}

// New constructs a Gateway with a shared HTTP client.
func New(logger *zap.SugaredLogger) *Gateway {
	return &Gateway{
		client: &http.Client{Timeout: relayTimeout},
		logger: logger,
	}
}

type relayPayload struct {
	To          string   `json:"to"`
	Subject     string   `json:"subject"`
	Body        string   `json:"body"`
	Attachments []string `json:"attachments"`
	CoverLetter string   `json:"coverLetter,omitempty"`
}

// Send sanitizes the body, attempts the relay when configured, and falls
// back to local handoff on any transport error. It fails only when no
// usable fallback exists (malformed recipient).
func (g *Gateway) Send(ctx context.Context, req Request) (Result, error) {
	if !validRecipient(req.To) {
		return Result{}, fmt.Errorf("dispatch: invalid recipient %q", req.To)
	}

	body := SanitizeBody(req.Body)

	if req.RelayURL != "" {
		if err := g.postRelay(ctx, req, body); err == nil {
			return Result{Mode: ModeRelay}, nil
		} else {
			g.logger.Warnw("relay dispatch failed, falling back to local handoff",
				"relay", req.RelayURL, "err", err)
		}
	}

	uri := composeURI(req.To, req.Subject, body)
	return Result{
		Mode:              ModeLocalHandoff,
		HandoffURI:        uri,
		ManualAttachments: req.Attachments,
	}, nil
}

// postRelay submits the payload fire-and-forget. The relay's response
// status is not interpreted: like the original browser no-cors POST, a
// completed submission is the success signal.
func (g *Gateway) postRelay(ctx context.Context, req Request, body string) error {
	payload, err := json.Marshal(relayPayload{
		To:          req.To,
		Subject:     req.Subject,
		Body:        body,
		Attachments: append([]string{}, req.Attachments...),
		CoverLetter: req.CoverLetter,
	})
	if err != nil {
		return fmt.Errorf("marshal relay payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, req.RelayURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build relay request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("relay POST: %w", err)
	}
	resp.Body.Close()
	return nil
}

// SanitizeBody strips a leading duplicated subject-style line and
// surrounding whitespace from a draft body.
func SanitizeBody(body string) string {
	return strings.TrimSpace(subjectLinePattern.ReplaceAllString(body, ""))
}

func validRecipient(to string) bool {
	at := strings.Index(to, "@")
	return at > 0 && at < len(to)-1 && !strings.ContainsAny(to, " \t\n")
}

// composeURI builds a mailto URI with encoded subject and body.
func composeURI(to, subject, body string) string {
	return fmt.Sprintf("mailto:%s?subject=%s&body=%s",
		to, encodeComponent(subject), encodeComponent(body))
}

// encodeComponent percent-encodes for a mailto query; spaces must be %20,
// not '+'.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
