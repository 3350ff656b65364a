package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/interfaces"
	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/models"
)

// Client talks to the payment processor's payment-intents API over HTTP.
// Non-2xx responses are surfaced as *models.ProcessorError.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type intentResponse struct {
	ID               string `json:"id"`
	ClientSecret     string `json:"client_secret"`
	Status           string `json:"status"`
	LastPaymentError *struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) CreateIntent(ctx context.Context, req models.IntentRequest) (*models.Intent, error) {
	payload := map[string]any{
		"amount":      req.AmountCents,
		"currency":    req.Currency,
		"description": req.Description,
		"metadata":    req.Metadata,
	}

	resp, err := c.do(ctx, http.MethodPost, "/v1/payment_intents", payload, "create intent")
	if err != nil {
		return nil, err
	}
	return &models.Intent{ID: resp.ID, ClientSecret: resp.ClientSecret}, nil
}

func (c *Client) RetrieveIntent(ctx context.Context, intentID string) (*models.IntentState, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/payment_intents/"+url.PathEscape(intentID), nil, "retrieve intent")
	if err != nil {
		return nil, err
	}

	state := &models.IntentState{Status: models.ProcessorStatus(resp.Status)}
	if resp.LastPaymentError != nil {
		state.LastError = resp.LastPaymentError.Message
	}
	return state, nil
}

func (c *Client) CancelIntent(ctx context.Context, intentID string) error {
	_, err := c.do(ctx, http.MethodPost, "/v1/payment_intents/"+url.PathEscape(intentID)+"/cancel", nil, "cancel intent")
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload any, op string) (*intentResponse, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.ProcessorError{Op: op, Message: err.Error()}
	}
	defer resp.Body.Close()

	var decoded intentResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&decoded); decodeErr != nil && resp.StatusCode < 300 {
		return nil, &models.ProcessorError{Op: op, Message: "malformed processor response: " + decodeErr.Error()}
	}

	if resp.StatusCode >= 300 {
		msg := fmt.Sprintf("unexpected status %d", resp.StatusCode)
		if decoded.Error != nil && decoded.Error.Message != "" {
			msg = decoded.Error.Message
		}
		return nil, &models.ProcessorError{Op: op, Message: msg}
	}
	return &decoded, nil
}

var _ interfaces.ProcessorGateway = (*Client)(nil)
