package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DK01git/JobAutomation/internal/currency"
	"github.com/DK01git/JobAutomation/internal/jsonx"
	"github.com/DK01git/JobAutomation/internal/model"
)

const httpTimeout = 60 * time.Second

// Gateway resolves a backend from the current profile on every call and
// applies the degradation rules: discovery falls back to the free board,
// JSON operations fall back to fixed heuristic defaults, and a single
// malformed backend response never halts the lifecycle.
type Gateway struct {
	logger *zap.SugaredLogger
	client *http.Client
	board  *BoardFetcher

	// Endpoint overrides, empty in production. Tests point these at
	// httptest servers.
	geminiBaseURL      string
	openRouterBaseURL  string
	huggingFaceBaseURL string

	now func() time.Time
}

// New constructs a Gateway with a shared HTTP client.
func New(logger *zap.SugaredLogger) *Gateway {
	client := &http.Client{Timeout: httpTimeout}
	return &Gateway{
		logger: logger,
		client: client,
		board:  NewBoardFetcher("", client),
		now:    time.Now,
	}
}

// backendFor returns the backend selected by the profile, or nil when the
// selected provider has no usable credential.
func (g *Gateway) backendFor(p model.CandidateProfile) Backend {
	tokens := p.Preferences.APITokens
	switch p.Preferences.AIProvider {
	case model.ProviderHuggingFace:
		if tokens.HFToken != "" {
			return NewHuggingFace(tokens.HFToken, g.huggingFaceBaseURL, g.client)
		}
	case model.ProviderOpenRouter:
		if tokens.OpenRouterToken != "" {
			return NewOpenRouter(tokens.OpenRouterToken, g.openRouterBaseURL, g.client)
		}
	default: // gemini
		if tokens.GeminiKey != "" {
			return NewGemini(tokens.GeminiKey, g.geminiBaseURL, g.client)
		}
	}
	return nil
}

// ─── Discover ────────────────────────────────────────────────────────────

// discoveredPosting is the JSON shape the search-grounded prompt asks for.
type discoveredPosting struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Source      string `json:"source"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// Discover finds current openings for the profile's desired roles. It
// never fails: when the primary search is unusable it queries the free
// board, and when both are unavailable it returns an empty batch.
func (g *Gateway) Discover(ctx context.Context, p model.CandidateProfile) []model.JobPosting {
	if p.Preferences.AIProvider == model.ProviderGemini && p.Preferences.APITokens.GeminiKey != "" {
		if postings := g.discoverViaSearch(ctx, p); len(postings) > 0 {
			return postings
		}
	}

	postings, err := g.board.Fetch(ctx, p.DesiredRoles)
	if err != nil {
		g.logger.Warnw("fallback board unavailable, returning empty batch", "err", err)
		return nil
	}
	return postings
}

func (g *Gateway) discoverViaSearch(ctx context.Context, p model.CandidateProfile) []model.JobPosting {
	gem := NewGemini(p.Preferences.APITokens.GeminiKey, g.geminiBaseURL, g.client)

	prompt := fmt.Sprintf(`Find real, current job openings for: %s.
CRITICAL: Separate 'title' (the designated position) and 'company' (the employer).
Do NOT put the company name in the title field.
Return a JSON array of objects with fields: title, company, location, source, description, url.`,
		strings.Join(p.DesiredRoles, ", "))

	text, err := gem.GenerateWithSearch(ctx, prompt)
	if err != nil {
		g.logger.Warnw("search discovery failed, falling back to board", "err", err)
		return nil
	}

	block, ok := jsonx.ExtractBlock(text)
	if !ok {
		g.logger.Warnw("search discovery returned no JSON, falling back to board")
		return nil
	}
	var raw []discoveredPosting
	if err := json.Unmarshal([]byte(block), &raw); err != nil {
		g.logger.Warnw("search discovery returned malformed JSON, falling back to board", "err", err)
		return nil
	}

	postedDate := g.now().Format("2006-01-02")
	postings := make([]model.JobPosting, 0, len(raw))
	for _, r := range raw {
		job := model.JobPosting{
			ID:          uuid.NewString(),
			Title:       r.Title,
			Company:     r.Company,
			Location:    r.Location,
			Source:      r.Source,
			PostedDate:  postedDate,
			Description: r.Description,
			URL:         r.URL,
			Status:      model.StatusDiscovered,
		}
		if job.Title == "" {
			job.Title = "Designated Role (Extracted)"
		}
		if job.Company == "" {
			job.Company = "Unknown Enterprise"
		}
		if job.Location == "" {
			job.Location = "Remote"
		}
		if job.Source == "" {
			job.Source = "Web Search"
		}
		if job.URL == "" {
			job.URL = "#"
		}
		postings = append(postings, job)
	}
	return postings
}

// ─── Extract ─────────────────────────────────────────────────────────────

// heuristicRequirements is the documented default substituted when
// extraction output is missing or unusable.
func heuristicRequirements() model.RequirementSet {
	return model.RequirementSet{
		MustHave:   []string{"Python", "SQL"},
		NiceToHave: []string{},
	}
}

// Extract parses structured requirements out of a job description. A
// missing credential or unparseable output yields the heuristic default
// with OutcomeHeuristic; only a transport-level backend failure returns an
// error. Salary conversion is always recomputed from the static rate table.
func (g *Gateway) Extract(ctx context.Context, description string, p model.CandidateProfile) (model.RequirementSet, model.Outcome, error) {
	b := g.backendFor(p)
	if b == nil {
		g.logger.Warnw("no usable credential for provider, using heuristic requirements",
			"provider", p.Preferences.AIProvider)
		return heuristicRequirements(), model.OutcomeHeuristic, nil
	}

	prompt := fmt.Sprintf(`Task: Extract JSON requirements.
Fields: must_have (string[]), nice_to_have (string[]), salary (object with amount, currency).
Text: %q`, description)

	text, err := b.Generate(ctx, prompt)
	if err != nil {
		return model.RequirementSet{}, "", fmt.Errorf("extract via %s: %w", b.Name(), err)
	}

	block, ok := jsonx.ExtractBlock(text)
	if !ok {
		return heuristicRequirements(), model.OutcomeHeuristic, nil
	}
	var raw struct {
		MustHave   []string      `json:"must_have"`
		NiceToHave []string      `json:"nice_to_have"`
		Salary     *model.Salary `json:"salary"`
	}
	if err := json.Unmarshal([]byte(block), &raw); err != nil {
		return heuristicRequirements(), model.OutcomeHeuristic, nil
	}

	req := model.RequirementSet{
		MustHave:   raw.MustHave,
		NiceToHave: raw.NiceToHave,
		Salary:     raw.Salary,
	}
	if req.MustHave == nil {
		req.MustHave = []string{}
	}
	if req.NiceToHave == nil {
		req.NiceToHave = []string{}
	}
	if req.Salary != nil {
		if req.Salary.Amount > 0 && req.Salary.Currency != "" {
			req.Salary.ConvertedLKR = currency.ConvertToLKR(req.Salary.Amount, req.Salary.Currency)
		} else {
			req.Salary = nil
		}
	}
	return req, model.OutcomeOK, nil
}

// ─── Match ───────────────────────────────────────────────────────────────

// heuristicMatch is the documented default substituted when the matching
// backend is unusable. Matching is informational, so this operation never
// returns an error.
func heuristicMatch() model.MatchResult {
	return model.MatchResult{
		Score:         70,
		Reasoning:     "Heuristic match.",
		MissingSkills: []string{"Analysis Pending"},
		Breakdown:     &model.MatchBreakdown{Technical: 70, Culture: 70, Growth: 70, Logistics: 70},
	}
}

// Match scores a posting against the profile. When the backend supplies a
// pillar breakdown the final score is recomputed locally with fixed
// weights; backend arithmetic is not trusted.
func (g *Gateway) Match(ctx context.Context, job model.JobPosting, p model.CandidateProfile) (model.MatchResult, model.Outcome) {
	b := g.backendFor(p)
	if b == nil {
		g.logger.Warnw("no usable credential for provider, using heuristic match",
			"provider", p.Preferences.AIProvider)
		return heuristicMatch(), model.OutcomeHeuristic
	}

	desc := job.Description
	if len(desc) > 1500 {
		desc = desc[:1500]
	}
	prompt := fmt.Sprintf(`Perform a high-precision multi-dimensional weighted match.
Candidate CV Skills: %s
Candidate Nice-to-Have: %s
Job Title: %s
Job Description: %s

Task:
1. Identify EXACT missing skills (technologies, tools, or stacks mentioned in the job but NOT in the CV).
2. Analyze across 4 pillars (0-100 each).
3. Calculate final weighted score.

Return JSON:
{
  "score": number,
  "reasoning": string,
  "missing_skills": string[],
  "breakdown": { "technical": number, "culture": number, "growth": number, "logistics": number }
}`,
		strings.Join(p.Skills.MustHave, ", "),
		strings.Join(p.Skills.NiceToHave, ", "),
		job.Title, desc)

	text, err := b.Generate(ctx, prompt)
	if err != nil {
		g.logger.Warnw("match backend failed, using heuristic match", "backend", b.Name(), "err", err)
		return heuristicMatch(), model.OutcomeHeuristic
	}

	block, ok := jsonx.ExtractBlock(text)
	if !ok {
		return heuristicMatch(), model.OutcomeHeuristic
	}
	var raw struct {
		Score         int                   `json:"score"`
		Reasoning     string                `json:"reasoning"`
		MissingSkills []string              `json:"missing_skills"`
		Breakdown     *model.MatchBreakdown `json:"breakdown"`
	}
	if err := json.Unmarshal([]byte(block), &raw); err != nil {
		return heuristicMatch(), model.OutcomeHeuristic
	}

	result := model.MatchResult{
		Score:         clampScore(raw.Score),
		Reasoning:     raw.Reasoning,
		MissingSkills: raw.MissingSkills,
		Breakdown:     raw.Breakdown,
	}
	if bd := result.Breakdown; bd != nil {
		weighted := 0.4*float64(bd.Technical) + 0.2*float64(bd.Culture) +
			0.2*float64(bd.Growth) + 0.2*float64(bd.Logistics)
		result.Score = clampScore(int(math.Round(weighted)))
	}
	return result, model.OutcomeOK
}

func clampScore(s int) int {
	if s < 0 {
		return 0
	}
	if s > 100 {
		return 100
	}
	return s
}

// ─── Draft ───────────────────────────────────────────────────────────────

// heuristicDraft is staged when the backend answers but the output is not
// parseable; the operator edits it before any commit.
func heuristicDraft() model.DraftMaterials {
	return model.DraftMaterials{
		EmailBody:   "Draft generation returned unusable output. Please edit this email before sending.",
		CoverLetter: "Draft generation returned unusable output. Please edit this cover letter before sending.",
	}
}

// Draft writes application materials for a posting. A transport failure or
// missing credential returns an error (nothing is staged and the job stays
// where it was); unusable output stages an editable placeholder instead.
func (g *Gateway) Draft(ctx context.Context, job model.JobPosting, p model.CandidateProfile) (model.DraftMaterials, model.Outcome, error) {
	b := g.backendFor(p)
	if b == nil {
		return model.DraftMaterials{}, "", fmt.Errorf("draft: no usable credential for provider %q", p.Preferences.AIProvider)
	}

	info := p.PersonalInfo
	orEmpty := func(s string) string {
		if s == "" {
			return "N/A"
		}
		return s
	}
	prompt := fmt.Sprintf(`Write a professional email and cover letter for %s at %s.
Applicant Name: %s
Applicant Email: %s
Applicant Phone: %s
Applicant Location: %s
Applicant Portfolio: %s

CRITICAL INSTRUCTIONS:
1. For the "emailBody", do NOT include a "Subject:" line. Start directly with the salutation.
2. Fill in ALL placeholders. Use the provided contact info. Do NOT leave things like [Phone Number] or [LinkedIn].
3. Ensure the tone is professional but concise.

Return JSON: { "emailBody": "...", "coverLetter": "..." }`,
		job.Title, job.Company,
		info.Name, info.Email, orEmpty(info.Phone), info.Location, orEmpty(info.Portfolio))

	text, err := b.Generate(ctx, prompt)
	if err != nil {
		return model.DraftMaterials{}, "", fmt.Errorf("draft via %s: %w", b.Name(), err)
	}

	block, ok := jsonx.ExtractBlock(text)
	if !ok {
		return heuristicDraft(), model.OutcomeHeuristic, nil
	}
	var materials model.DraftMaterials
	if err := json.Unmarshal([]byte(block), &materials); err != nil || materials.EmailBody == "" {
		return heuristicDraft(), model.OutcomeHeuristic, nil
	}
	return materials, model.OutcomeOK, nil
}

// ─── Summarize ───────────────────────────────────────────────────────────

// Summarize builds the daily digest body. Purely local: the digest is a
// notification, not generated content.
func (g *Gateway) Summarize(jobs []model.JobPosting, name string) string {
	var sb strings.Builder
	if name != "" {
		fmt.Fprintf(&sb, "Hi %s,\n\n", name)
	}
	fmt.Fprintf(&sb, "Found %d new opportunities for you today.", len(jobs))
	if len(jobs) > 0 {
		sb.WriteString("\n")
		for _, j := range jobs {
			fmt.Fprintf(&sb, "\n- %s at %s (%s)", j.Title, j.Company, j.Location)
		}
	}
	sb.WriteString("\n\nLog in to the AutoApply dashboard to review them.")
	return sb.String()
}
