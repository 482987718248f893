// Package redmine implements the remote ticket source: a REST client
// for Redmine-compatible trackers. Retries, rate limiting and paging
// live here; the sync layer only sees the TicketSource interface it
// defines for itself.
package redmine

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"rdburn/internal/config"
	"rdburn/internal/domain"

	"github.com/rs/zerolog"
)

// APIError is a failed remote call. StatusCode is 0 for transport-level
// failures.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("redmine: %s", e.Message)
	}
	return fmt.Sprintf("redmine: %s (status %d)", e.Message, e.StatusCode)
}

const (
	pageLimit          = 100
	maxAttempts        = 3
	minRequestInterval = 200 * time.Millisecond
)

// Client is a Redmine REST API client.
type Client struct {
	baseURL   string
	apiKey    string
	http      *http.Client
	log       zerolog.Logger
	converter *Converter

	lastRequest time.Time
}

// NewClient builds a client from the tracker connection settings.
func NewClient(cfg config.RedmineConfig, converter *Converter, log zerolog.Logger) *Client {
	transport := http.DefaultTransport
	if !cfg.VerifySSL {
		transport = &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.URL, "/"),
		apiKey:    cfg.APIKey,
		http:      &http.Client{Timeout: cfg.Timeout, Transport: transport},
		log:       log,
		converter: converter,
	}
}

// FetchProject returns the remote project metadata.
func (c *Client) FetchProject(ctx context.Context, projectID int) (*domain.Project, error) {
	var resp struct {
		Project wireProject `json:"project"`
	}
	q := url.Values{}
	q.Set("include", "versions")
	if err := c.get(ctx, fmt.Sprintf("/projects/%d.json", projectID), q, &resp); err != nil {
		return nil, err
	}
	return c.converter.Project(resp.Project)
}

// FetchVersions returns the project's versions/milestones.
func (c *Client) FetchVersions(ctx context.Context, projectID int) ([]domain.Version, error) {
	var resp struct {
		Versions []wireVersion `json:"versions"`
	}
	if err := c.get(ctx, fmt.Sprintf("/projects/%d/versions.json", projectID), nil, &resp); err != nil {
		return nil, err
	}
	versions := make([]domain.Version, 0, len(resp.Versions))
	for _, v := range resp.Versions {
		versions = append(versions, c.converter.Version(v))
	}
	return versions, nil
}

// FetchAllTickets returns every ticket of the project, paging through
// the remote API. Closed tickets are skipped unless includeClosed.
func (c *Client) FetchAllTickets(ctx context.Context, projectID int, includeClosed bool) ([]*domain.Ticket, error) {
	return c.fetchTickets(ctx, projectID, nil, includeClosed)
}

// FetchUpdatedTickets returns the tickets updated since the given time.
// A nil since fetches everything, closed tickets included.
func (c *Client) FetchUpdatedTickets(ctx context.Context, projectID int, since *time.Time) ([]*domain.Ticket, error) {
	return c.fetchTickets(ctx, projectID, since, true)
}

// TestConnection verifies base URL and credentials.
func (c *Client) TestConnection(ctx context.Context) error {
	var resp struct {
		User json.RawMessage `json:"user"`
	}
	return c.get(ctx, "/users/current.json", nil, &resp)
}

func (c *Client) fetchTickets(ctx context.Context, projectID int, since *time.Time, includeClosed bool) ([]*domain.Ticket, error) {
	var tickets []*domain.Ticket
	offset := 0

	for {
		q := url.Values{}
		q.Set("project_id", fmt.Sprint(projectID))
		q.Set("limit", fmt.Sprint(pageLimit))
		q.Set("offset", fmt.Sprint(offset))
		if since != nil {
			q.Set("updated_on", ">="+since.UTC().Format("2006-01-02T15:04:05Z"))
		}
		if !includeClosed {
			q.Set("status_id", "open")
		}

		var resp struct {
			Issues     []wireIssue `json:"issues"`
			TotalCount int         `json:"total_count"`
		}
		if err := c.get(ctx, "/issues.json", q, &resp); err != nil {
			return nil, err
		}
		if len(resp.Issues) == 0 {
			break
		}

		for _, issue := range resp.Issues {
			t, err := c.converter.Ticket(issue)
			if err != nil {
				return nil, err
			}
			tickets = append(tickets, t)
		}

		offset += pageLimit
		if offset >= resp.TotalCount {
			break
		}
	}

	c.log.Debug().Int("project_id", projectID).Int("count", len(tickets)).Msg("fetched tickets")
	return tickets, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		c.throttle()

		body, err := c.doOnce(ctx, u)
		if err == nil {
			if decodeErr := json.Unmarshal(body, out); decodeErr != nil {
				return &APIError{Message: fmt.Sprintf("decoding response: %v", decodeErr)}
			}
			return nil
		}

		lastErr = err
		if !retryable(err) || attempt == maxAttempts {
			break
		}
		c.log.Warn().Err(err).Int("attempt", attempt).Str("url", u).Msg("retrying request")
		select {
		case <-ctx.Done():
			return &APIError{Message: ctx.Err().Error()}
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	return lastErr
}

func (c *Client) doOnce(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &APIError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Redmine-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &APIError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Message: err.Error()}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "authentication failed, check the API key"}
	case resp.StatusCode == http.StatusForbidden:
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "access denied"}
	case resp.StatusCode == http.StatusNotFound:
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "resource not found"}
	case resp.StatusCode >= 400:
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(body)}
	}
	return body, nil
}

// throttle enforces the minimum interval between requests.
func (c *Client) throttle() {
	elapsed := time.Since(c.lastRequest)
	if elapsed < minRequestInterval {
		time.Sleep(minRequestInterval - elapsed)
	}
	c.lastRequest = time.Now()
}

func retryable(err error) bool {
	apiErr, ok := err.(*APIError)
	if !ok {
		return false
	}
	if apiErr.StatusCode == 0 {
		return true // transport error
	}
	return apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500
}
