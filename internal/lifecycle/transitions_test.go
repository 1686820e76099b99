package lifecycle_test

import (
	"testing"

	"github.com/DK01git/JobAutomation/internal/lifecycle"
	"github.com/DK01git/JobAutomation/internal/model"
)

// ── ParseStatus ────────────────────────────────────────────────────────────

func TestParseStatus_ValidValues(t *testing.T) {
	valid := []string{"discovered", "extracted", "matched", "applied", "rejected"}
	for _, s := range valid {
		got, err := lifecycle.ParseStatus(s)
		if err != nil {
			t.Errorf("ParseStatus(%q) returned unexpected error: %v", s, err)
		}
		if string(got) != s {
			t.Errorf("ParseStatus(%q) = %q, want %q", s, got, s)
		}
	}
}

func TestParseStatus_InvalidValue(t *testing.T) {
	_, err := lifecycle.ParseStatus("UNKNOWN")
	if err == nil {
		t.Error("ParseStatus(\"UNKNOWN\") expected error, got nil")
	}
}

func TestParseStatus_EmptyString(t *testing.T) {
	_, err := lifecycle.ParseStatus("")
	if err == nil {
		t.Error("ParseStatus(\"\") expected error, got nil")
	}
}

// ── IsTransitionAllowed — valid (forward) transitions ─────────────────────

func TestIsTransitionAllowed_ValidForward(t *testing.T) {
	cases := []struct {
		from model.Status
		to   model.Status
	}{
		{model.StatusDiscovered, model.StatusExtracted},
		{model.StatusDiscovered, model.StatusMatched}, // extraction may be skipped
		{model.StatusExtracted, model.StatusMatched},
		{model.StatusMatched, model.StatusApplied},
	}
	for _, c := range cases {
		if !lifecycle.IsTransitionAllowed(c.from, c.to) {
			t.Errorf("IsTransitionAllowed(%s → %s) should be true", c.from, c.to)
		}
	}
}

// ── IsTransitionAllowed — rejection from any non-applied status ───────────

func TestIsTransitionAllowed_ToRejected(t *testing.T) {
	nonTerminals := []model.Status{
		model.StatusDiscovered,
		model.StatusExtracted,
		model.StatusMatched,
	}
	for _, from := range nonTerminals {
		if !lifecycle.IsTransitionAllowed(from, model.StatusRejected) {
			t.Errorf("IsTransitionAllowed(%s → rejected) should be true", from)
		}
	}
	if lifecycle.IsTransitionAllowed(model.StatusApplied, model.StatusRejected) {
		t.Error("IsTransitionAllowed(applied → rejected) should be false")
	}
}

// ── IsTransitionAllowed — applied is terminal ─────────────────────────────

func TestIsTransitionAllowed_FromApplied(t *testing.T) {
	targets := []model.Status{
		model.StatusDiscovered,
		model.StatusExtracted,
		model.StatusMatched,
		model.StatusApplied,
		model.StatusRejected,
	}
	for _, to := range targets {
		if lifecycle.IsTransitionAllowed(model.StatusApplied, to) {
			t.Errorf("IsTransitionAllowed(applied → %s) should be false (terminal)", to)
		}
	}
}

// ── IsTransitionAllowed — skipping matching is forbidden ──────────────────

func TestIsTransitionAllowed_SkipToApplied(t *testing.T) {
	cases := []struct {
		from model.Status
		to   model.Status
	}{
		{model.StatusDiscovered, model.StatusApplied}, // skip everything
		{model.StatusExtracted, model.StatusApplied},  // skip matching
	}
	for _, c := range cases {
		if lifecycle.IsTransitionAllowed(c.from, c.to) {
			t.Errorf("IsTransitionAllowed(%s → %s) should be false (skip-level)", c.from, c.to)
		}
	}
}

// ── IsTransitionAllowed — backwards movements are forbidden ───────────────

func TestIsTransitionAllowed_Backwards(t *testing.T) {
	cases := []struct {
		from model.Status
		to   model.Status
	}{
		{model.StatusExtracted, model.StatusDiscovered},
		{model.StatusMatched, model.StatusExtracted},
		{model.StatusMatched, model.StatusDiscovered},
	}
	for _, c := range cases {
		if lifecycle.IsTransitionAllowed(c.from, c.to) {
			t.Errorf("IsTransitionAllowed(%s → %s) should be false (backwards)", c.from, c.to)
		}
	}
}

// ── IsTransitionAllowed — self-transitions only for re-runnable stages ────

func TestIsTransitionAllowed_Self(t *testing.T) {
	rerunnable := []model.Status{model.StatusExtracted, model.StatusMatched}
	for _, s := range rerunnable {
		if !lifecycle.IsTransitionAllowed(s, s) {
			t.Errorf("IsTransitionAllowed(%s → %s) should be true (re-runnable)", s, s)
		}
	}
	frozen := []model.Status{model.StatusDiscovered, model.StatusApplied, model.StatusRejected}
	for _, s := range frozen {
		if lifecycle.IsTransitionAllowed(s, s) {
			t.Errorf("IsTransitionAllowed(%s → %s) should be false (self)", s, s)
		}
	}
}

// ── IsTerminal ─────────────────────────────────────────────────────────────

func TestIsTerminal(t *testing.T) {
	if !lifecycle.IsTerminal(model.StatusApplied) {
		t.Error("IsTerminal(applied) should return true")
	}
	for _, s := range []model.Status{
		model.StatusDiscovered,
		model.StatusExtracted,
		model.StatusMatched,
		model.StatusRejected,
	} {
		if lifecycle.IsTerminal(s) {
			t.Errorf("IsTerminal(%s) should return false", s)
		}
	}
}
