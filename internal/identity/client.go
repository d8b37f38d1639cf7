package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/JakeFAU/diamond-entries/internal/policy/ratelimit"
)

const searchQuery = `query SearchCompetitors($query: String, $gender: GenderType, $disciplineCode: String, $environment: String) {
  searchCompetitors(query: $query, gender: $gender, disciplineCode: $disciplineCode, environment: $environment) {
    id
    birthDate
    country
    givenName
    familyName
  }
}`

// ClientConfig locates the registry search endpoint.
type ClientConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// Client searches the athlete registry over its GraphQL endpoint.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	limiter  *ratelimit.Limiter
}

// NewClient validates cfg and builds a Client. limiter may be nil.
func NewClient(cfg ClientConfig, limiter *ratelimit.Limiter) (*Client, error) {
	if strings.TrimSpace(cfg.Endpoint) == "" {
		return nil, errors.New("registry endpoint is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		http:     &http.Client{Timeout: timeout},
		limiter:  limiter,
	}, nil
}

type searchVariables struct {
	Query          string  `json:"query"`
	Gender         *string `json:"gender,omitempty"`
	DisciplineCode *string `json:"disciplineCode,omitempty"`
	Environment    *string `json:"environment,omitempty"`
}

type searchRequest struct {
	Query     string          `json:"query"`
	Variables searchVariables `json:"variables"`
}

type searchResponse struct {
	Data struct {
		SearchCompetitors []Candidate `json:"searchCompetitors"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func variablesFor(q Query) searchVariables {
	v := searchVariables{Query: q.Name()}
	if q.Gender != "" {
		g := string(q.Gender)
		v.Gender = &g
	}
	if q.Discipline != "" {
		d := q.Discipline
		v.DisciplineCode = &d
	}
	if q.Indoor {
		env := "indoor"
		v.Environment = &env
	}
	return v
}

// Search returns the registry's candidates for q. The server filters by the
// gender, discipline and environment hints; the name match is fuzzy.
func (c *Client) Search(ctx context.Context, q Query) ([]Candidate, error) {
	payload, err := json.Marshal(searchRequest{Query: searchQuery, Variables: variablesFor(q)})
	if err != nil {
		return nil, fmt.Errorf("encode search: %w", err)
	}
	if err := c.limiter.Wait(ctx, c.endpoint); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", q.Name(), err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("search %q: status %d", q.Name(), resp.StatusCode)
	}
	var out searchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	if len(out.Errors) > 0 {
		return nil, fmt.Errorf("search %q: %s", q.Name(), out.Errors[0].Message)
	}
	return out.Data.SearchCompetitors, nil
}
