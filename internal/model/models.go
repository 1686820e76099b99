// Package model defines the shared data structures for the agent service.
package model

import "time"

// Status is the lifecycle stage of a tracked job posting.
type Status string

const (
	StatusDiscovered Status = "discovered"
	StatusExtracted  Status = "extracted"
	StatusMatched    Status = "matched"
	StatusApplied    Status = "applied"
	// StatusRejected is a transition target only: rejection removes the
	// record, so no stored posting ever carries this status.
	StatusRejected Status = "rejected"
)

// Outcome tags a gateway result so fallback is a modeled value rather than
// a control-flow side effect.
type Outcome string

const (
	// OutcomeOK means the backend produced usable output.
	OutcomeOK Outcome = "ok"
	// OutcomeHeuristic means the backend output was missing or unusable and
	// a documented fixed default was substituted.
	OutcomeHeuristic Outcome = "heuristicDefault"
)

// Salary is an extracted compensation figure. ConvertedLKR is always
// recomputed locally from the static rate table, never taken from a backend.
type Salary struct {
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	ConvertedLKR int     `json:"convertedLkr,omitempty"`
}

// RequirementSet holds the structured requirements extracted from a job
// description.
type RequirementSet struct {
	MustHave   []string `json:"mustHave"`
	NiceToHave []string `json:"niceToHave"`
	Salary     *Salary  `json:"salary,omitempty"`
}

// MatchBreakdown scores the four match pillars, 0-100 each.
type MatchBreakdown struct {
	Technical int `json:"technical"`
	Culture   int `json:"culture"`
	Growth    int `json:"growth"`
	Logistics int `json:"logistics"`
}

// MatchResult is the outcome of comparing a posting against the profile.
type MatchResult struct {
	Score         int             `json:"score"`
	Reasoning     string          `json:"reasoning"`
	MissingSkills []string        `json:"missingSkills,omitempty"`
	Breakdown     *MatchBreakdown `json:"breakdown,omitempty"`
}

// DraftMaterials is a staged application draft. Staging never changes job
// status; only a commit does.
type DraftMaterials struct {
	EmailBody   string `json:"emailBody"`
	CoverLetter string `json:"coverLetter"`
}

// ApplicationDetails records a committed application. Present if and only
// if the posting's status is StatusApplied.
type ApplicationDetails struct {
	EmailBody   string    `json:"emailBody"`
	CoverLetter string    `json:"coverLetter"`
	SentAt      time.Time `json:"sentAt"`
	TrackingID  string    `json:"trackingId"`
	Attachments []string  `json:"attachments"`
}

// JobPosting is a discovered job opening tracked through the lifecycle.
// The (title, company) pair — case-insensitive, whitespace-normalized — is
// the dedup identity; ID is an opaque handle assigned once at creation.
type JobPosting struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Source      string `json:"source"`
	PostedDate  string `json:"postedDate"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Status      Status `json:"status"`

	MatchScore     *int            `json:"matchScore,omitempty"`
	MatchReasoning string          `json:"matchReasoning,omitempty"`
	MissingSkills  []string        `json:"missingSkills,omitempty"`
	MatchBreakdown *MatchBreakdown `json:"matchBreakdown,omitempty"`

	Requirements *RequirementSet     `json:"extractedRequirements,omitempty"`
	Application  *ApplicationDetails `json:"applicationDetails,omitempty"`
}

// WorkMode preference values.
const (
	WorkModeRemote = "remote"
	WorkModeHybrid = "hybrid"
	WorkModeOnsite = "onsite"
	WorkModeAny    = "any"
)

// Provider selection values.
const (
	ProviderGemini      = "gemini"
	ProviderOpenRouter  = "openrouter"
	ProviderHuggingFace = "huggingface"
)

// PersonalInfo identifies the candidate.
type PersonalInfo struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Location  string `json:"location"`
	Phone     string `json:"phone,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
	CVName    string `json:"cv_name,omitempty"`
}

// SkillSet splits skills into must-have and nice-to-have.
type SkillSet struct {
	MustHave   []string `json:"must_have"`
	NiceToHave []string `json:"nice_to_have"`
}

// APITokens holds per-provider credentials.
type APITokens struct {
	GeminiKey       string `json:"gemini_key,omitempty"`
	HFToken         string `json:"hf_token,omitempty"`
	OpenRouterToken string `json:"openrouter_token,omitempty"`
}

// Preferences are the operator's search and dispatch settings.
type Preferences struct {
	Locations  []string  `json:"locations"`
	SalaryMin  int       `json:"salary_min"`
	Currency   string    `json:"currency"`
	WorkMode   string    `json:"work_mode"`
	AIProvider string    `json:"ai_provider"`
	APITokens  APITokens `json:"api_tokens"`
	// RelayURL is the optional autonomous mail relay endpoint. Empty means
	// dispatch falls back to local handoff.
	RelayURL string `json:"relay_url,omitempty"`
}

// CandidateProfile is the operator-owned profile. The core re-reads the
// current value on every gateway call; it never holds a stale snapshot.
type CandidateProfile struct {
	PersonalInfo PersonalInfo `json:"personal_info"`
	DesiredRoles []string     `json:"desired_roles"`
	Skills       SkillSet     `json:"skills"`
	Preferences  Preferences  `json:"preferences"`
}
