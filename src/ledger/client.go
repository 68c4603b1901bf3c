package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"expense-tracker-server/src/models"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// Client talks to the /api/transactions REST surface with a bearer token.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Count   int             `json:"count"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
	Msg     string          `json:"msg"`
}

func (c *Client) List(ctx context.Context) ([]models.Transaction, error) {
	var records []models.Transaction
	if err := c.do(ctx, http.MethodGet, "/api/transactions", nil, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) Create(ctx context.Context, fields models.TransactionFields) (*models.Transaction, error) {
	var tx models.Transaction
	if err := c.do(ctx, http.MethodPost, "/api/transactions", fields, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (c *Client) Update(ctx context.Context, id string, fields models.TransactionFields) (*models.Transaction, error) {
	var tx models.Transaction
	if err := c.do(ctx, http.MethodPut, "/api/transactions/"+id, fields, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/transactions/"+id, nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && err != io.EOF {
		return fmt.Errorf("decode response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: env.message()}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("decode data: %w", err)
		}
	}
	return nil
}

// message flattens the error shapes the server uses: {"msg"}, {"error": "..."}
// and {"error": ["...", "..."]}.
func (e envelope) message() string {
	if e.Msg != "" {
		return e.Msg
	}
	var single string
	if err := json.Unmarshal(e.Error, &single); err == nil {
		return single
	}
	var many []string
	if err := json.Unmarshal(e.Error, &many); err == nil {
		return strings.Join(many, "; ")
	}
	return "request failed"
}
