package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DK01git/JobAutomation/internal/agentlog"
	"github.com/DK01git/JobAutomation/internal/dispatch"
	"github.com/DK01git/JobAutomation/internal/model"
	"github.com/DK01git/JobAutomation/internal/store"
)

// Provider is the slice of the provider gateway the lifecycle drives.
type Provider interface {
	Extract(ctx context.Context, description string, p model.CandidateProfile) (model.RequirementSet, model.Outcome, error)
	Match(ctx context.Context, job model.JobPosting, p model.CandidateProfile) (model.MatchResult, model.Outcome)
	Draft(ctx context.Context, job model.JobPosting, p model.CandidateProfile) (model.DraftMaterials, model.Outcome, error)
}

// Dispatcher sends application material.
type Dispatcher interface {
	Send(ctx context.Context, req dispatch.Request) (dispatch.Result, error)
}

// ProfileSource yields the current candidate profile at call time.
type ProfileSource interface {
	Get() model.CandidateProfile
}

// Archiver snapshots the job set for restart survival. Optional.
type Archiver interface {
	SaveSnapshot(ctx context.Context, jobs []model.JobPosting) error
}

// ─── Sentinel errors ─────────────────────────────────────────────────────

// ErrNotFound is returned when a job id is unknown.
var ErrNotFound = fmt.Errorf("job not found")

// ValidationError reports an operator action requested against a job in an
// incompatible state. The action is rejected with no state change.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// ─── Service ─────────────────────────────────────────────────────────────

// Service drives all job transitions. Status fields are mutated only here,
// never by callers directly. Every transition appends exactly one activity
// event tagged with the owning subsystem.
type Service struct {
	jobs       *store.Memory
	provider   Provider
	dispatcher Dispatcher
	profiles   ProfileSource
	events     *agentlog.Log
	logger     *zap.SugaredLogger
	archive    Archiver // nil disables snapshots
	now        func() time.Time

	draftMu sync.Mutex
	drafts  map[string]model.DraftMaterials
}

// NewService wires a Service. archive may be nil.
func NewService(
	jobs *store.Memory,
	provider Provider,
	dispatcher Dispatcher,
	profiles ProfileSource,
	events *agentlog.Log,
	logger *zap.SugaredLogger,
	archive Archiver,
) *Service {
	return &Service{
		jobs:       jobs,
		provider:   provider,
		dispatcher: dispatcher,
		profiles:   profiles,
		events:     events,
		logger:     logger,
		archive:    archive,
		now:        time.Now,
		drafts:     make(map[string]model.DraftMaterials),
	}
}

// Seed adds an operator-supplied posting at discovered status. Postings
// whose identity already exists in the set are rejected, not merged.
func (s *Service) Seed(ctx context.Context, job model.JobPosting) (model.JobPosting, error) {
	if strings.TrimSpace(job.Title) == "" || strings.TrimSpace(job.Company) == "" {
		return model.JobPosting{}, &ValidationError{Msg: "title and company are required"}
	}

	job.ID = uuid.NewString()
	job.Status = model.StatusDiscovered
	job.MatchScore = nil
	job.Requirements = nil
	job.Application = nil
	if job.PostedDate == "" {
		job.PostedDate = s.now().Format("2006-01-02")
	}
	if job.Source == "" {
		job.Source = "Manual"
	}

	if added := s.jobs.Merge([]model.JobPosting{job}); added == 0 {
		return model.JobPosting{}, &ValidationError{
			Msg: fmt.Sprintf("%s at %s is already tracked", job.Title, job.Company),
		}
	}

	s.events.Append(agentlog.AgentOrchestrator, agentlog.LevelInfo,
		fmt.Sprintf("Manually added %s at %s to the stream.", job.Title, job.Company))
	s.persist(ctx)
	return job, nil
}

// Ingest merges a discovery batch into the job set and returns how many
// postings survived dedup.
func (s *Service) Ingest(ctx context.Context, batch []model.JobPosting) int {
	added := s.jobs.Merge(batch)
	if added > 0 {
		s.persist(ctx)
	}
	return added
}

// Extract runs requirement extraction on a posting. Allowed from
// discovered (advances to extracted) and re-runnable from extracted or
// matched (fields overwritten, status unchanged). A posting without a
// description never advances.
func (s *Service) Extract(ctx context.Context, jobID string) (model.JobPosting, error) {
	job, ok := s.jobs.Get(jobID)
	if !ok {
		return model.JobPosting{}, ErrNotFound
	}
	if IsTerminal(job.Status) {
		return model.JobPosting{}, &ValidationError{
			Msg: fmt.Sprintf("cannot extract a job in status %s", job.Status),
		}
	}
	if strings.TrimSpace(job.Description) == "" {
		s.events.Append(agentlog.AgentExtraction, agentlog.LevelError,
			fmt.Sprintf("Extraction skipped for %s: no description available.", job.Title))
		return model.JobPosting{}, &ValidationError{Msg: "job has no description to extract from"}
	}

	requirements, outcome, err := s.provider.Extract(ctx, job.Description, s.profiles.Get())
	if err != nil {
		s.events.Append(agentlog.AgentExtraction, agentlog.LevelError,
			fmt.Sprintf("Extraction failed for %s: %v", job.Title, err))
		return model.JobPosting{}, fmt.Errorf("extract %s: %w", jobID, err)
	}

	updated, ok := s.jobs.Update(jobID, func(j *model.JobPosting) {
		j.Requirements = &requirements
		if j.Status == model.StatusDiscovered {
			j.Status = model.StatusExtracted
		}
	})
	if !ok {
		return model.JobPosting{}, ErrNotFound
	}

	if outcome == model.OutcomeHeuristic {
		s.events.Append(agentlog.AgentExtraction, agentlog.LevelWarning,
			fmt.Sprintf("Extraction for %s used heuristic defaults (provider output unusable).", job.Title))
	} else {
		s.events.Append(agentlog.AgentExtraction, agentlog.LevelSuccess, "Extraction complete.")
	}
	s.persist(ctx)
	return updated, nil
}

// Match scores a posting against the current profile. Allowed from
// discovered or extracted and re-runnable from matched; always advances to
// matched — even a zero score — because matching is informational, not a
// gate.
func (s *Service) Match(ctx context.Context, jobID string) (model.JobPosting, error) {
	job, ok := s.jobs.Get(jobID)
	if !ok {
		return model.JobPosting{}, ErrNotFound
	}
	if !IsTransitionAllowed(job.Status, model.StatusMatched) {
		return model.JobPosting{}, &ValidationError{
			Msg: fmt.Sprintf("cannot match a job in status %s", job.Status),
		}
	}

	result, outcome := s.provider.Match(ctx, job, s.profiles.Get())

	updated, ok := s.jobs.Update(jobID, func(j *model.JobPosting) {
		score := result.Score
		j.MatchScore = &score
		j.MatchReasoning = result.Reasoning
		j.MissingSkills = result.MissingSkills
		j.MatchBreakdown = result.Breakdown
		j.Status = model.StatusMatched
	})
	if !ok {
		return model.JobPosting{}, ErrNotFound
	}

	if outcome == model.OutcomeHeuristic {
		s.events.Append(agentlog.AgentMatching, agentlog.LevelWarning,
			fmt.Sprintf("Match for %s used heuristic defaults (provider unusable).", job.Title))
	} else {
		s.events.Append(agentlog.AgentMatching, agentlog.LevelSuccess,
			fmt.Sprintf("Match analysis complete: %d%% fit.", result.Score))
	}
	s.persist(ctx)
	return updated, nil
}

// RequestDraft generates application materials and holds them in the
// staging area for operator review. Never changes job status; calling it
// again replaces the staged draft.
func (s *Service) RequestDraft(ctx context.Context, jobID string) (model.DraftMaterials, error) {
	job, ok := s.jobs.Get(jobID)
	if !ok {
		return model.DraftMaterials{}, ErrNotFound
	}
	if job.Status != model.StatusMatched {
		return model.DraftMaterials{}, &ValidationError{
			Msg: fmt.Sprintf("drafting requires a matched job, status is %s", job.Status),
		}
	}

	materials, outcome, err := s.provider.Draft(ctx, job, s.profiles.Get())
	if err != nil {
		s.events.Append(agentlog.AgentSubmission, agentlog.LevelError,
			fmt.Sprintf("Drafting failed for %s: %v", job.Title, err))
		return model.DraftMaterials{}, fmt.Errorf("draft %s: %w", jobID, err)
	}

	s.draftMu.Lock()
	s.drafts[jobID] = materials
	s.draftMu.Unlock()

	if outcome == model.OutcomeHeuristic {
		s.events.Append(agentlog.AgentSubmission, agentlog.LevelWarning,
			fmt.Sprintf("Draft for %s staged with placeholder text; edit before committing.", job.Title))
	} else {
		s.events.Append(agentlog.AgentSubmission, agentlog.LevelInfo,
			fmt.Sprintf("Drafts ready for review for %s.", job.Title))
	}
	return materials, nil
}

// Draft returns the staged materials for a job, if any.
func (s *Service) Draft(jobID string) (model.DraftMaterials, bool) {
	s.draftMu.Lock()
	defer s.draftMu.Unlock()
	d, ok := s.drafts[jobID]
	return d, ok
}

// CommitDraft dispatches the staged (optionally operator-edited) materials
// and, only on a successful dispatch, stamps application details and
// advances the job to applied. On dispatch failure the job stays matched
// and the draft is preserved for retry.
func (s *Service) CommitDraft(ctx context.Context, jobID, editedEmailBody, editedCoverLetter string) (model.JobPosting, dispatch.Result, error) {
	job, ok := s.jobs.Get(jobID)
	if !ok {
		return model.JobPosting{}, dispatch.Result{}, ErrNotFound
	}
	if !IsTransitionAllowed(job.Status, model.StatusApplied) {
		return model.JobPosting{}, dispatch.Result{}, &ValidationError{
			Msg: fmt.Sprintf("cannot commit a job in status %s", job.Status),
		}
	}

	s.draftMu.Lock()
	materials, hasDraft := s.drafts[jobID]
	s.draftMu.Unlock()
	if !hasDraft {
		return model.JobPosting{}, dispatch.Result{}, &ValidationError{
			Msg: "no draft staged for this job; request a draft first",
		}
	}
	if editedEmailBody != "" {
		materials.EmailBody = editedEmailBody
	}
	if editedCoverLetter != "" {
		materials.CoverLetter = editedCoverLetter
	}

	profile := s.profiles.Get()
	cvName := profile.PersonalInfo.CVName
	if cvName == "" {
		cvName = "CV.pdf"
	}
	attachments := []string{cvName, coverLetterFilename(job.Company)}

	result, err := s.dispatcher.Send(ctx, dispatch.Request{
		To:          profile.PersonalInfo.Email,
		Subject:     fmt.Sprintf("Application: %s - %s", job.Title, job.Company),
		Body:        materials.EmailBody,
		Attachments: attachments,
		CoverLetter: materials.CoverLetter,
		RelayURL:    profile.Preferences.RelayURL,
	})
	if err != nil {
		s.events.Append(agentlog.AgentSubmission, agentlog.LevelError,
			fmt.Sprintf("Submission failed for %s: %v", job.Title, err))
		return model.JobPosting{}, dispatch.Result{}, fmt.Errorf("dispatch %s: %w", jobID, err)
	}

	details := model.ApplicationDetails{
		EmailBody:   dispatch.SanitizeBody(materials.EmailBody),
		CoverLetter: materials.CoverLetter,
		SentAt:      s.now().UTC(),
		TrackingID:  newTrackingID(),
		Attachments: attachments,
	}
	updated, ok := s.jobs.Update(jobID, func(j *model.JobPosting) {
		j.Application = &details
		j.Status = model.StatusApplied
	})
	if !ok {
		return model.JobPosting{}, dispatch.Result{}, ErrNotFound
	}

	s.draftMu.Lock()
	delete(s.drafts, jobID)
	s.draftMu.Unlock()

	msg := fmt.Sprintf("Application packet for %s sent via relay. Tracking %s.", job.Title, details.TrackingID)
	if result.Mode == dispatch.ModeLocalHandoff {
		msg = fmt.Sprintf("Application packet for %s handed off to local mail client; attach %s manually. Tracking %s.",
			job.Title, strings.Join(attachments, ", "), details.TrackingID)
	}
	s.events.Append(agentlog.AgentSubmission, agentlog.LevelSuccess, msg)
	s.persist(ctx)
	return updated, result, nil
}

// Reject removes a posting from the stream entirely. Irreversible, allowed
// from any non-applied status.
func (s *Service) Reject(ctx context.Context, jobID string) error {
	job, ok := s.jobs.Get(jobID)
	if !ok {
		return ErrNotFound
	}
	if IsTerminal(job.Status) {
		return &ValidationError{Msg: "an applied job cannot be rejected"}
	}

	s.jobs.Remove(jobID)
	s.draftMu.Lock()
	delete(s.drafts, jobID)
	s.draftMu.Unlock()

	s.events.Append(agentlog.AgentOrchestrator, agentlog.LevelInfo,
		fmt.Sprintf("Job %s at %s rejected and removed from stream.", job.Title, job.Company))
	s.persist(ctx)
	return nil
}

// persist snapshots the job set when an archive is configured. Failure is
// a data-loss warning, never an operation failure.
func (s *Service) persist(ctx context.Context) {
	if s.archive == nil {
		return
	}
	if err := s.archive.SaveSnapshot(ctx, s.jobs.List()); err != nil {
		s.logger.Warnw("job set snapshot failed; current state will not survive a restart", "err", err)
	}
}

// coverLetterFilename derives the letter attachment name from the company
// name, whitespace replaced with underscores.
func coverLetterFilename(company string) string {
	return "Cover_Letter_" + strings.Join(strings.Fields(company), "_") + ".pdf"
}

// newTrackingID generates ids like TRK-9F3A21B.
func newTrackingID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "TRK-" + strings.ToUpper(hex[:7])
}
