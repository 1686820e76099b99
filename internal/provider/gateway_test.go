package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DK01git/JobAutomation/internal/model"
)

func newTestGateway() *Gateway {
	return New(zap.NewNop().Sugar())
}

func profileWithoutCredentials() model.CandidateProfile {
	return model.CandidateProfile{
		DesiredRoles: []string{"Data Engineer"},
		Preferences:  model.Preferences{AIProvider: model.ProviderGemini},
	}
}

func profileWithOpenRouter() model.CandidateProfile {
	p := profileWithoutCredentials()
	p.Preferences.AIProvider = model.ProviderOpenRouter
	p.Preferences.APITokens.OpenRouterToken = "tok"
	p.Skills.MustHave = []string{"Go", "SQL"}
	return p
}

// chatServer returns an httptest server answering the chat-completions
// shape with the given content string.
func chatServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
}

// ── Discover ───────────────────────────────────────────────────────────────

func TestDiscover_FallsBackToBoardWithoutCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"title": "Senior Data Engineer", "company_name": "Acme", "location": "Berlin",
					"description": "<p>Build <b>pipelines</b></p>", "url": "https://a.example/1"},
				{"title": "Bakery Assistant", "company_name": "Crumbs", "location": "Hamburg",
					"description": "bread", "url": "https://a.example/2"},
				{"title": "data engineer (remote)", "company_name": "Initech", "location": "Remote",
					"description": "etl", "url": "https://a.example/3"},
			},
		})
	}))
	defer srv.Close()

	g := newTestGateway()
	g.board = NewBoardFetcher(srv.URL, g.client)

	jobs := g.Discover(context.Background(), profileWithoutCredentials())
	require.Len(t, jobs, 2) // role filter drops the bakery posting
	assert.Equal(t, "Senior Data Engineer", jobs[0].Title)
	assert.Equal(t, "Build pipelines", jobs[0].Description) // tags stripped
	assert.Equal(t, "Arbeitnow API (Free)", jobs[0].Source)
	assert.Equal(t, model.StatusDiscovered, jobs[0].Status)
	assert.Equal(t, "Initech", jobs[1].Company)
}

func TestDiscover_CapsBoardResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data := make([]map[string]any, 20)
		for i := range data {
			data[i] = map[string]any{
				"title": "Data Engineer", "company_name": "Acme", "location": "Berlin",
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
	defer srv.Close()

	g := newTestGateway()
	g.board = NewBoardFetcher(srv.URL, g.client)

	jobs := g.Discover(context.Background(), profileWithoutCredentials())
	assert.Len(t, jobs, boardMaxResults)
}

func TestDiscover_AllSourcesUnavailableReturnsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	g := newTestGateway()
	g.board = NewBoardFetcher(srv.URL, g.client)

	jobs := g.Discover(context.Background(), profileWithoutCredentials())
	assert.Empty(t, jobs)
}

func TestDiscover_SearchBackfillsMissingFields(t *testing.T) {
	content := `Here are the results: [{"title":"","company":"","description":"role desc"}]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": content}}}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	g := newTestGateway()
	g.geminiBaseURL = srv.URL

	p := profileWithoutCredentials()
	p.Preferences.APITokens.GeminiKey = "key"

	jobs := g.Discover(context.Background(), p)
	require.Len(t, jobs, 1)
	assert.Equal(t, "Designated Role (Extracted)", jobs[0].Title)
	assert.Equal(t, "Unknown Enterprise", jobs[0].Company)
	assert.Equal(t, "Remote", jobs[0].Location)
	assert.NotEmpty(t, jobs[0].ID)
}

// ── Extract ────────────────────────────────────────────────────────────────

func TestExtract_NoCredentialUsesHeuristicDefault(t *testing.T) {
	g := newTestGateway()

	req, outcome, err := g.Extract(context.Background(), "desc", profileWithoutCredentials())
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeHeuristic, outcome)
	assert.Equal(t, []string{"Python", "SQL"}, req.MustHave)
	assert.Empty(t, req.NiceToHave)
	assert.Nil(t, req.Salary)
}

func TestExtract_ParsesAndRecomputesSalary(t *testing.T) {
	content := "Sure! Here is the JSON:\n" +
		`{"must_have":["Go"],"nice_to_have":["Kafka"],"salary":{"amount":1000,"currency":"USD","convertedLkr":1}}`
	srv := chatServer(t, content)
	defer srv.Close()

	g := newTestGateway()
	g.openRouterBaseURL = srv.URL

	req, outcome, err := g.Extract(context.Background(), "desc", profileWithOpenRouter())
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeOK, outcome)
	assert.Equal(t, []string{"Go"}, req.MustHave)
	require.NotNil(t, req.Salary)
	// conversion always recomputed locally, backend figure discarded
	assert.Equal(t, 305500, req.Salary.ConvertedLKR)
}

func TestExtract_IncompleteSalaryDropped(t *testing.T) {
	srv := chatServer(t, `{"must_have":["Go"],"salary":{"amount":0,"currency":"USD"}}`)
	defer srv.Close()

	g := newTestGateway()
	g.openRouterBaseURL = srv.URL

	req, _, err := g.Extract(context.Background(), "desc", profileWithOpenRouter())
	require.NoError(t, err)
	assert.Nil(t, req.Salary)
}

func TestExtract_MalformedOutputUsesHeuristicDefault(t *testing.T) {
	srv := chatServer(t, "I could not find any requirements, sorry.")
	defer srv.Close()

	g := newTestGateway()
	g.openRouterBaseURL = srv.URL

	req, outcome, err := g.Extract(context.Background(), "desc", profileWithOpenRouter())
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeHeuristic, outcome)
	assert.Equal(t, []string{"Python", "SQL"}, req.MustHave)
}

func TestExtract_TransportFailureReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	g := newTestGateway()
	g.openRouterBaseURL = srv.URL

	_, _, err := g.Extract(context.Background(), "desc", profileWithOpenRouter())
	require.Error(t, err)
}

// ── Match ──────────────────────────────────────────────────────────────────

func TestMatch_NoCredentialUsesHeuristicDefault(t *testing.T) {
	g := newTestGateway()

	res, outcome := g.Match(context.Background(), model.JobPosting{Title: "DE"}, profileWithoutCredentials())
	assert.Equal(t, model.OutcomeHeuristic, outcome)
	assert.Equal(t, 70, res.Score)
	assert.Equal(t, "Heuristic match.", res.Reasoning)
	assert.Equal(t, []string{"Analysis Pending"}, res.MissingSkills)
	require.NotNil(t, res.Breakdown)
	assert.Equal(t, 70, res.Breakdown.Technical)
}

func TestMatch_RecomputesScoreFromBreakdown(t *testing.T) {
	srv := chatServer(t, `{"score": 12, "reasoning": "Strong overlap.",
		"missing_skills": ["Spark"],
		"breakdown": {"technical": 80, "culture": 60, "growth": 70, "logistics": 90}}`)
	defer srv.Close()

	g := newTestGateway()
	g.openRouterBaseURL = srv.URL

	res, outcome := g.Match(context.Background(), model.JobPosting{Title: "DE"}, profileWithOpenRouter())
	assert.Equal(t, model.OutcomeOK, outcome)
	// 0.4*80 + 0.2*60 + 0.2*70 + 0.2*90 = 76, backend score ignored
	assert.Equal(t, 76, res.Score)
	assert.Equal(t, []string{"Spark"}, res.MissingSkills)
}

func TestMatch_ScoreClampedWithoutBreakdown(t *testing.T) {
	srv := chatServer(t, `{"score": 400, "reasoning": "overflow"}`)
	defer srv.Close()

	g := newTestGateway()
	g.openRouterBaseURL = srv.URL

	res, _ := g.Match(context.Background(), model.JobPosting{}, profileWithOpenRouter())
	assert.Equal(t, 100, res.Score)
}

func TestMatch_BackendFailureNeverErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	g := newTestGateway()
	g.openRouterBaseURL = srv.URL

	res, outcome := g.Match(context.Background(), model.JobPosting{}, profileWithOpenRouter())
	assert.Equal(t, model.OutcomeHeuristic, outcome)
	assert.Equal(t, 70, res.Score)
}

// ── Draft ──────────────────────────────────────────────────────────────────

func TestDraft_NoCredentialIsAnError(t *testing.T) {
	g := newTestGateway()
	_, _, err := g.Draft(context.Background(), model.JobPosting{}, profileWithoutCredentials())
	require.Error(t, err)
}

func TestDraft_ParsesMaterials(t *testing.T) {
	srv := chatServer(t, `{"emailBody": "Dear team,", "coverLetter": "To whom it may concern,"}`)
	defer srv.Close()

	g := newTestGateway()
	g.openRouterBaseURL = srv.URL

	materials, outcome, err := g.Draft(context.Background(), model.JobPosting{Title: "DE", Company: "Acme"}, profileWithOpenRouter())
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeOK, outcome)
	assert.Equal(t, "Dear team,", materials.EmailBody)
}

func TestDraft_MalformedOutputStagesPlaceholder(t *testing.T) {
	srv := chatServer(t, "I'd be happy to help, but first tell me more.")
	defer srv.Close()

	g := newTestGateway()
	g.openRouterBaseURL = srv.URL

	materials, outcome, err := g.Draft(context.Background(), model.JobPosting{}, profileWithOpenRouter())
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeHeuristic, outcome)
	assert.Contains(t, materials.EmailBody, "edit this email")
}

// ── Summarize ──────────────────────────────────────────────────────────────

func TestSummarize_ListsJobs(t *testing.T) {
	g := newTestGateway()
	body := g.Summarize([]model.JobPosting{
		{Title: "Data Engineer", Company: "Acme", Location: "Berlin"},
	}, "Nadia")
	assert.Contains(t, body, "Hi Nadia,")
	assert.Contains(t, body, "Found 1 new opportunities")
	assert.Contains(t, body, "- Data Engineer at Acme (Berlin)")
}

func TestSummarize_EmptyBatch(t *testing.T) {
	g := newTestGateway()
	body := g.Summarize(nil, "")
	assert.Contains(t, body, "Found 0 new opportunities")
	assert.NotContains(t, body, "Hi ")
}
