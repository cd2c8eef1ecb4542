package payos

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/khiels/storefront-backend/pkg/config"
	pkgerrors "github.com/khiels/storefront-backend/pkg/errors"
	"github.com/khiels/storefront-backend/pkg/logger"
)

var (
	errClientIDRequired    = errors.New("payos client id is required")
	errAPIKeyRequired      = errors.New("payos api key is required")
	errChecksumKeyRequired = errors.New("payos checksum key is required")
	errLoggerRequired      = errors.New("payos logger is required")
)

const paymentRequestsPath = "/v2/payment-requests"

// Item is one line forwarded to the hosted checkout page.
type Item struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
	Price    int64  `json:"price"`
}

// PaymentLinkRequest describes the hosted checkout session to create.
type PaymentLinkRequest struct {
	OrderCode   string
	AmountCents int64
	Description string
	Items       []Item
	ReturnURL   string
	CancelURL   string
}

// PaymentLink is the provider's answer: where to send the customer.
type PaymentLink struct {
	CheckoutURL   string `json:"checkoutUrl"`
	PaymentLinkID string `json:"paymentLinkId"`
}

// Client talks to the hosted payment gateway. The provider is a black
// box: amount, description and item list go in, a redirect URL comes out.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	clientID    string
	apiKey      string
	checksumKey string
	logger      *logger.Logger
}

// NewClient initializes the gateway wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.PayOSConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	clientID := strings.TrimSpace(cfg.ClientID)
	if clientID == "" {
		return nil, errClientIDRequired
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errAPIKeyRequired
	}
	checksumKey := strings.TrimSpace(cfg.ChecksumKey)
	if checksumKey == "" {
		return nil, errChecksumKeyRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		clientID:    clientID,
		apiKey:      apiKey,
		checksumKey: checksumKey,
		logger:      logg,
	}

	logg.Info(ctx, "payos client initialized")
	return c, nil
}

type paymentRequestBody struct {
	OrderCode   string `json:"orderCode"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	Items       []Item `json:"items"`
	ReturnURL   string `json:"returnUrl"`
	CancelURL   string `json:"cancelUrl"`
	Signature   string `json:"signature"`
}

type paymentResponseBody struct {
	Code string      `json:"code"`
	Desc string      `json:"desc"`
	Data PaymentLink `json:"data"`
}

// CreatePaymentLink asks the gateway for a hosted checkout session and
// returns the redirect URL.
func (c *Client) CreatePaymentLink(ctx context.Context, req PaymentLinkRequest) (*PaymentLink, error) {
	if req.OrderCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order code required")
	}
	if req.AmountCents <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	body := paymentRequestBody{
		OrderCode:   req.OrderCode,
		Amount:      req.AmountCents,
		Description: req.Description,
		Items:       req.Items,
		ReturnURL:   req.ReturnURL,
		CancelURL:   req.CancelURL,
	}
	body.Signature = c.Sign(map[string]string{
		"amount":      fmt.Sprintf("%d", body.Amount),
		"cancelUrl":   body.CancelURL,
		"description": body.Description,
		"orderCode":   body.OrderCode,
		"returnUrl":   body.ReturnURL,
	})

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding payment request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+paymentRequestsPath, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building payment request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-client-id", c.clientID)
	httpReq.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentProvider, err, "calling payment provider")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.New(pkgerrors.CodePaymentProvider, fmt.Sprintf("payment provider returned status %d", resp.StatusCode))
	}

	var decoded paymentResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentProvider, err, "decoding provider response")
	}
	if decoded.Code != "00" {
		return nil, pkgerrors.New(pkgerrors.CodePaymentProvider, fmt.Sprintf("payment provider rejected request: %s", decoded.Desc))
	}
	if decoded.Data.CheckoutURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodePaymentProvider, "provider response missing checkout url")
	}

	return &decoded.Data, nil
}

// Sign computes the HMAC-SHA256 checksum of the fields in key order.
func (c *Client) Sign(fields map[string]string) string {
	keys := []string{"amount", "cancelUrl", "description", "orderCode", "returnUrl"}
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		if v, ok := fields[k]; ok {
			pairs = append(pairs, k+"="+v)
		}
	}
	mac := hmac.New(sha256.New, []byte(c.checksumKey))
	mac.Write([]byte(strings.Join(pairs, "&")))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks a webhook signature against the raw payload.
func (c *Client) VerifySignature(payload []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.checksumKey))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
