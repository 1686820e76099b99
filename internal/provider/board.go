package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/DK01git/JobAutomation/internal/model"
)

const (
	boardBaseURL = "https://www.arbeitnow.com/api/job-board-api"
	boardSource  = "Arbeitnow API (Free)"
	// boardMaxResults caps how many fallback postings enter the pipeline
	// per discovery pass.
	boardMaxResults = 8
)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// BoardFetcher queries the free public job board used when no provider
// credential is usable. No authentication required.
type BoardFetcher struct {
	baseURL string
	client  *http.Client
	now     func() time.Time
}

// NewBoardFetcher constructs a fetcher. baseURL may be empty for the public
// endpoint.
func NewBoardFetcher(baseURL string, client *http.Client) *BoardFetcher {
	if baseURL == "" {
		baseURL = boardBaseURL
	}
	return &BoardFetcher{baseURL: baseURL, client: client, now: time.Now}
}

type boardResponse struct {
	Data []boardJob `json:"data"`
}

type boardJob struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	CompanyName string `json:"company_name"`
	Location    string `json:"location"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// Fetch returns postings whose title contains one of the desired roles,
// case-insensitive substring match, newest board order preserved.
func (b *BoardFetcher) Fetch(ctx context.Context, desiredRoles []string) ([]model.JobPosting, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("board: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("board: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("board: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("board: API returned %d: %s", resp.StatusCode, string(body))
	}

	var apiResp boardResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("board: decode response: %w", err)
	}

	postedDate := b.now().Format("2006-01-02")
	postings := make([]model.JobPosting, 0, boardMaxResults)
	for _, j := range apiResp.Data {
		if !matchesAnyRole(j.Title, desiredRoles) {
			continue
		}
		postings = append(postings, model.JobPosting{
			ID:          uuid.NewString(),
			Title:       j.Title,
			Company:     j.CompanyName,
			Location:    j.Location,
			Source:      boardSource,
			PostedDate:  postedDate,
			Description: stripHTML(j.Description),
			URL:         j.URL,
			Status:      model.StatusDiscovered,
		})
		if len(postings) == boardMaxResults {
			break
		}
	}
	return postings, nil
}

func matchesAnyRole(title string, roles []string) bool {
	lower := strings.ToLower(title)
	for _, role := range roles {
		if role == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(role)) {
			return true
		}
	}
	return false
}

func stripHTML(s string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(s, ""))
}
