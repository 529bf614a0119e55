package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultOpenTDBURL = "https://opentdb.com"

// Open Trivia DB response codes.
const (
	CodeSuccess          = 0
	CodeNoResults        = 1
	CodeInvalidParameter = 2
	CodeTokenNotFound    = 3
	CodeTokenEmpty       = 4
	CodeRateLimit        = 5
)

// OpenTDBClient fetches questions from the Open Trivia DB (no API key).
type OpenTDBClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewOpenTDBClient(baseURL string, httpClient *http.Client) *OpenTDBClient {
	if baseURL == "" {
		baseURL = defaultOpenTDBURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &OpenTDBClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

type OpenTDBQuestion struct {
	Category         string   `json:"category"`
	Type             string   `json:"type"`
	Difficulty       string   `json:"difficulty"`
	Question         string   `json:"question"`
	CorrectAnswer    string   `json:"correct_answer"`
	IncorrectAnswers []string `json:"incorrect_answers"`
}

type openTDBResponse struct {
	ResponseCode int               `json:"response_code"`
	Results      []OpenTDBQuestion `json:"results"`
}

// Category is one entry of api_category.php.
type Category struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type categoriesResponse struct {
	Categories []Category `json:"trivia_categories"`
}

// Request holds api.php filters. Empty strings are omitted from the query.
type Request struct {
	Amount     int
	Category   string
	Difficulty string
	Type       string
}

// ResponseCodeError is returned when the API answers with a non-zero response_code.
type ResponseCodeError struct {
	Code int
}

func (e *ResponseCodeError) Error() string {
	return fmt.Sprintf("opentdb response code %d (%s)", e.Code, codeText(e.Code))
}

func codeText(code int) string {
	switch code {
	case CodeNoResults:
		return "not enough questions for query"
	case CodeInvalidParameter:
		return "invalid parameter"
	case CodeTokenNotFound:
		return "session token not found"
	case CodeTokenEmpty:
		return "session token exhausted"
	case CodeRateLimit:
		return "rate limited"
	default:
		return "unknown"
	}
}

// Fetch issues one api.php request.
func (c *OpenTDBClient) Fetch(ctx context.Context, r Request) ([]OpenTDBQuestion, error) {
	values := url.Values{}
	values.Set("amount", strconv.Itoa(r.Amount))
	if r.Category != "" {
		values.Set("category", r.Category)
	}
	if r.Difficulty != "" {
		values.Set("difficulty", r.Difficulty)
	}
	if r.Type != "" {
		values.Set("type", r.Type)
	}

	var payload openTDBResponse
	if err := c.get(ctx, "/api.php?"+values.Encode(), &payload); err != nil {
		return nil, err
	}
	if payload.ResponseCode != CodeSuccess {
		return nil, &ResponseCodeError{Code: payload.ResponseCode}
	}
	return payload.Results, nil
}

// Categories lists the categories the API knows about.
func (c *OpenTDBClient) Categories(ctx context.Context) ([]Category, error) {
	var payload categoriesResponse
	if err := c.get(ctx, "/api_category.php", &payload); err != nil {
		return nil, err
	}
	return payload.Categories, nil
}

func (c *OpenTDBClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("opentdb non-200: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode opentdb response: %w", err)
	}
	return nil
}
