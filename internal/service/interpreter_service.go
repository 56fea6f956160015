package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"personaforge/internal/config"
	"personaforge/internal/model"
)

// InterpreterService is the boundary to the external semantic collaborator.
// It handles the two tasks the engine refuses to do itself: abbreviating
// long column headers into question ids, and naming discovered clusters.
// Every call degrades to a deterministic local fallback when the API is
// unconfigured or unreachable.
type InterpreterService struct {
	config *config.InterpreterConfig
	client *http.Client
}

// NewInterpreterService creates a new interpreter service
func NewInterpreterService() *InterpreterService {
	cfg := config.DefaultInterpreterConfig()
	return &InterpreterService{
		config: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
	}
}

// NewInterpreterServiceWithConfig creates an interpreter service with an
// explicit configuration, used by tests to force the fallback path.
func NewInterpreterServiceWithConfig(cfg *config.InterpreterConfig) *InterpreterService {
	return &InterpreterService{
		config: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
	}
}

// AbbreviateColumns asks the interpreter for short question ids for each
// long column name. Missing or duplicate abbreviations fall back to
// col_<n> per column, so the returned mapping always covers every input.
func (s *InterpreterService) AbbreviateColumns(ctx context.Context, longNames []string) ([]model.ColumnMapping, error) {
	if !s.config.IsEnabled() {
		return s.fallbackAbbreviate(longNames), nil
	}

	prompt := s.buildAbbreviatePrompt(longNames)
	response, err := s.callModel(ctx, s.config.Models.Abbreviate, prompt)
	if err != nil {
		return s.fallbackAbbreviate(longNames), nil
	}

	var parsed struct {
		ShortNames []string `json:"shortNames"`
	}
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		return s.fallbackAbbreviate(longNames), nil
	}

	return s.mergeAbbreviations(longNames, parsed.ShortNames), nil
}

// NameClusterProfiles asks the interpreter to name and describe each
// discovered cluster. Calls run concurrently, bounded by MaxConcurrency;
// a failed call yields a placeholder profile rather than failing the run.
func (s *InterpreterService) NameClusterProfiles(ctx context.Context, statsList []model.ClusterStats) ([]model.SegmentProfile, error) {
	profiles := make([]model.SegmentProfile, len(statsList))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.MaxConcurrency)

	for i, stats := range statsList {
		i, stats := i, stats
		g.Go(func() error {
			profiles[i] = model.SegmentProfile{
				ClusterIndex: stats.ClusterIndex,
				Profile:      s.nameOneCluster(gctx, stats),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (s *InterpreterService) nameOneCluster(ctx context.Context, stats model.ClusterStats) model.NamedProfile {
	if !s.config.IsEnabled() {
		return s.fallbackProfile(stats)
	}

	prompt := s.buildProfilePrompt(stats)
	response, err := s.callModel(ctx, s.config.Models.Profile, prompt)
	if err != nil {
		return s.fallbackProfile(stats)
	}

	var profile model.NamedProfile
	if err := json.Unmarshal([]byte(response), &profile); err != nil {
		return s.fallbackProfile(stats)
	}
	if profile.Name == "" {
		return s.fallbackProfile(stats)
	}
	return profile
}

func (s *InterpreterService) callModel(ctx context.Context, modelName, prompt string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= s.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * 500 * time.Millisecond):
			}
		}

		text, err := s.callModelOnce(ctx, modelName, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", lastErr
}

func (s *InterpreterService) callModelOnce(ctx context.Context, modelName, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]string{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s?key=%s", s.config.ModelEndpoint(modelName), s.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var modelResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	if err := json.Unmarshal(body, &modelResp); err != nil {
		return "", err
	}

	if len(modelResp.Candidates) > 0 && len(modelResp.Candidates[0].Content.Parts) > 0 {
		return modelResp.Candidates[0].Content.Parts[0].Text, nil
	}

	return "", fmt.Errorf("empty response from model")
}

// Prompt builders

func (s *InterpreterService) buildAbbreviatePrompt(longNames []string) string {
	var b strings.Builder
	b.WriteString("Abbreviate each survey column name into a short snake_case question id (max 30 chars, unique).\n")
	b.WriteString("Respond with JSON: {\"shortNames\": [\"...\"]} in the same order as the input.\n\nColumns:\n")
	for i, name := range longNames {
		fmt.Fprintf(&b, "%d. %s\n", i, name)
	}
	return b.String()
}

func (s *InterpreterService) buildProfilePrompt(stats model.ClusterStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name and describe a consumer segment of %d survey respondents.\n", stats.MemberCount)
	b.WriteString("Respond with JSON: {\"name\": \"...\", \"characteristics\": {\"field\": \"description\"}, \"valueSystem\": {\"value\": 0.0-1.0}}.\n\n")

	b.WriteString("Per-question mean scores (0-1 scale):\n")
	for field, mean := range stats.PerFieldMeans {
		fmt.Fprintf(&b, "  %s: %.2f\n", field, mean)
	}
	if len(stats.DominantValueFlags) > 0 {
		b.WriteString("Extreme fields:\n")
		for field, flag := range stats.DominantValueFlags {
			fmt.Fprintf(&b, "  %s: %s\n", field, flag)
		}
	}
	return b.String()
}

// Fallbacks

// fallbackAbbreviate derives short ids locally: lowercase the last header
// segment, squash non-alphanumerics to underscores, truncate, and
// disambiguate duplicates with the column index.
func (s *InterpreterService) fallbackAbbreviate(longNames []string) []model.ColumnMapping {
	const maxLen = 30

	mapping := make([]model.ColumnMapping, len(longNames))
	seen := make(map[string]bool, len(longNames))
	for i, long := range longNames {
		short := abbreviateLocally(long, maxLen)
		if short == "" || seen[short] {
			short = fmt.Sprintf("col_%d", i)
		}
		seen[short] = true
		mapping[i] = model.ColumnMapping{Column: i, LongName: long, ShortName: short}
	}
	return mapping
}

func abbreviateLocally(long string, maxLen int) string {
	// The last " | " segment is the most specific header row
	parts := strings.Split(long, " | ")
	last := strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))

	var b strings.Builder
	prevUnderscore := true
	for _, r := range last {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		default:
			if !prevUnderscore {
				b.WriteByte('_')
				prevUnderscore = true
			}
		}
	}

	short := strings.Trim(b.String(), "_")
	if len(short) > maxLen {
		short = strings.Trim(short[:maxLen], "_")
	}
	return short
}

// mergeAbbreviations pairs interpreter output with columns, replacing
// missing, empty, or duplicate short names with col_<n>.
func (s *InterpreterService) mergeAbbreviations(longNames, shortNames []string) []model.ColumnMapping {
	mapping := make([]model.ColumnMapping, len(longNames))
	seen := make(map[string]bool, len(longNames))
	for i, long := range longNames {
		short := ""
		if i < len(shortNames) {
			short = strings.TrimSpace(shortNames[i])
		}
		if short == "" || seen[short] {
			short = fmt.Sprintf("col_%d", i)
		}
		seen[short] = true
		mapping[i] = model.ColumnMapping{Column: i, LongName: long, ShortName: short}
	}
	return mapping
}

func (s *InterpreterService) fallbackProfile(stats model.ClusterStats) model.NamedProfile {
	characteristics := make(map[string]string, len(stats.DominantValueFlags))
	valueSystem := make(map[string]float64, len(stats.DominantValueFlags))
	for field, flag := range stats.DominantValueFlags {
		characteristics[field] = flag
		if flag == "high" {
			valueSystem[field] = 1.0
		} else {
			valueSystem[field] = 0.0
		}
	}

	return model.NamedProfile{
		Name:            fmt.Sprintf("Segment %d", stats.ClusterIndex+1),
		Characteristics: characteristics,
		ValueSystem:     valueSystem,
	}
}
