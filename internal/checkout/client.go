package checkout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"tuition/internal/money"
)

// Client talks to the externally hosted checkout provider. The provider
// renders the payment page; this side only opens sessions and reads their
// outcome back.
type Client struct {
	baseURL    string
	secret     string
	returnURL  string
	httpClient *http.Client
}

func NewClient(baseURL, secret, returnURL string) *Client {
	return &Client{
		baseURL:   baseURL,
		secret:    secret,
		returnURL: returnURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type SessionRequest struct {
	ReferenceID string
	AmountMinor int64
	Currency    string
	PayerEmail  string
	PayeeEmail  string
	Description string
}

type Session struct {
	ID  string
	URL string
}

type SessionStatus struct {
	ID            string
	Paid          bool
	TransactionID string
	AmountMinor   int64
}

type createSessionPayload struct {
	Reference   string `json:"reference"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	PayerEmail  string `json:"payer_email"`
	PayeeEmail  string `json:"payee_email"`
	Description string `json:"description"`
	ReturnURL   string `json:"return_url"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

type sessionStatusResponse struct {
	SessionID     string `json:"session_id"`
	Status        string `json:"status"`
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
}

func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	payload := createSessionPayload{
		Reference:   req.ReferenceID,
		Amount:      money.FormatMinor(req.AmountMinor),
		Currency:    req.Currency,
		PayerEmail:  req.PayerEmail,
		PayeeEmail:  req.PayeeEmail,
		Description: req.Description,
		ReturnURL:   c.returnURL,
	}
	var resp createSessionResponse
	if err := c.post(ctx, "/checkout/sessions", payload, &resp); err != nil {
		return Session{}, fmt.Errorf("create checkout session: %w", err)
	}
	if resp.SessionID == "" || resp.URL == "" {
		return Session{}, fmt.Errorf("checkout provider returned incomplete session")
	}
	return Session{ID: resp.SessionID, URL: resp.URL}, nil
}

func (c *Client) RetrieveSession(ctx context.Context, sessionID string) (SessionStatus, error) {
	var resp sessionStatusResponse
	if err := c.get(ctx, "/checkout/sessions/"+sessionID, &resp); err != nil {
		return SessionStatus{}, fmt.Errorf("retrieve checkout session: %w", err)
	}
	amountMinor, err := money.ParseMinor(resp.Amount)
	if err != nil {
		amountMinor = 0
	}
	return SessionStatus{
		ID:            resp.SessionID,
		Paid:          resp.Status == "paid" || resp.Status == "complete",
		TransactionID: resp.TransactionID,
		AmountMinor:   amountMinor,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secret)
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secret)
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("provider responded %d: %s", resp.StatusCode, string(raw))
	}
	return json.Unmarshal(raw, out)
}
