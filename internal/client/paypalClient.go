package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"apikey-store/internal/config"
)

const (
	PaypalSandboxURL    = "https://api-m.sandbox.paypal.com"
	PaypalProductionURL = "https://api-m.paypal.com"
)

// PaypalClient talks to the PayPal Orders v2 API. Order calls hand back
// PayPal's status code and body untouched so they can be relayed to the
// browser SDK as is.
type PaypalClient interface {
	CreateOrder(ctx context.Context, req *PaypalCreateOrderRequest) (*PaypalResponse, error)
	CaptureOrder(ctx context.Context, orderID string) (*PaypalResponse, error)
	GenerateClientToken(ctx context.Context) (string, error)
}

type paypalClientImpl struct {
	httpClient         *http.Client
	baseApiURL         string
	paypalClientID     string
	paypalClientSecret string
}

type PaypalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type PaypalPurchaseUnit struct {
	Amount PaypalAmount `json:"amount"`
}

type PaypalCreateOrderRequest struct {
	Intent        string               `json:"intent"`
	PurchaseUnits []PaypalPurchaseUnit `json:"purchase_units"`
}

type PaypalResponse struct {
	StatusCode int
	Body       json.RawMessage
}

type paypalTokenResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
}

// NewPaypalClient targets the configured base URL, or the sandbox outside
// production.
func NewPaypalClient(paypalCfg *config.Paypal, production bool) PaypalClient {
	baseURL := strings.TrimRight(paypalCfg.BaseApiURL, "/")
	if baseURL == "" {
		baseURL = PaypalSandboxURL
		if production {
			baseURL = PaypalProductionURL
		}
	}

	return &paypalClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL:         baseURL,
		paypalClientID:     paypalCfg.ClientID,
		paypalClientSecret: paypalCfg.ClientSecret,
	}
}

func (c *paypalClientImpl) token(ctx context.Context, form url.Values) (*paypalTokenResponse, error) {
	auth := base64.StdEncoding.EncodeToString(
		[]byte(c.paypalClientID + ":" + c.paypalClientSecret),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseApiURL+"/v1/oauth2/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("paypal token error %d: %s", resp.StatusCode, string(b))
	}

	var res paypalTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	return &res, nil
}

func (c *paypalClientImpl) getAccessToken(ctx context.Context) (string, error) {
	res, err := c.token(ctx, url.Values{"grant_type": {"client_credentials"}})
	if err != nil {
		return "", err
	}
	if res.AccessToken == "" {
		return "", fmt.Errorf("paypal token response has no access_token")
	}
	return res.AccessToken, nil
}

// GenerateClientToken returns the token the JS SDK needs to render card
// fields.
func (c *paypalClientImpl) GenerateClientToken(ctx context.Context) (string, error) {
	res, err := c.token(ctx, url.Values{
		"grant_type":    {"client_credentials"},
		"response_type": {"client_token"},
		"intent":        {"sdk_init"},
	})
	if err != nil {
		return "", fmt.Errorf("get paypal client token: %w", err)
	}
	if res.AccessToken == "" {
		return "", fmt.Errorf("paypal token response has no client token")
	}
	return res.AccessToken, nil
}

func (c *paypalClientImpl) CreateOrder(ctx context.Context, payload *PaypalCreateOrderRequest) (*PaypalResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}
	return c.do(ctx, c.baseApiURL+"/v2/checkout/orders", body)
}

func (c *paypalClientImpl) CaptureOrder(ctx context.Context, orderID string) (*PaypalResponse, error) {
	endpoint := fmt.Sprintf(
		"%s/v2/checkout/orders/%s/capture",
		c.baseApiURL,
		url.PathEscape(orderID),
	)
	return c.do(ctx, endpoint, nil)
}

func (c *paypalClientImpl) do(ctx context.Context, endpoint string, body []byte) (*PaypalResponse, error) {
	accessToken, err := c.getAccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get paypal access token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "return=minimal")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("paypal request failed: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read paypal response: %w", err)
	}
	if !json.Valid(b) {
		return nil, fmt.Errorf("paypal returned non-json body with status %d", resp.StatusCode)
	}

	return &PaypalResponse{
		StatusCode: resp.StatusCode,
		Body:       json.RawMessage(b),
	}, nil
}
