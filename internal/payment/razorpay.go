package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// RazorpayClient talks to the Razorpay REST API with basic auth. Only
// the three endpoints the lifecycle needs are implemented.
type RazorpayClient struct {
	baseURL   *url.URL
	keyID     string
	keySecret string
	http      *http.Client
}

func NewRazorpayClient(baseURL, keyID, keySecret string, httpClient *http.Client) (*RazorpayClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid gateway base url %q: %w", baseURL, err)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &RazorpayClient{baseURL: u, keyID: keyID, keySecret: keySecret, http: httpClient}, nil
}

func (c *RazorpayClient) KeyID() string { return c.keyID }

func (c *RazorpayClient) VerifySignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	return VerifySignature(c.keySecret, gatewayOrderID, gatewayPaymentID, signature)
}

func (c *RazorpayClient) CreateOrder(ctx context.Context, req GatewayOrderRequest) (GatewayOrder, error) {
	var out GatewayOrder
	if err := c.do(ctx, http.MethodPost, "/v1/orders", req, &out); err != nil {
		return GatewayOrder{}, err
	}
	return out, nil
}

func (c *RazorpayClient) FetchPayment(ctx context.Context, gatewayPaymentID string) (GatewayPayment, error) {
	var out GatewayPayment
	path := "/v1/payments/" + url.PathEscape(gatewayPaymentID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return GatewayPayment{}, err
	}
	return out, nil
}

func (c *RazorpayClient) Refund(ctx context.Context, gatewayPaymentID string, req GatewayRefundRequest) (GatewayRefund, error) {
	var out GatewayRefund
	path := "/v1/payments/" + url.PathEscape(gatewayPaymentID) + "/refund"
	if err := c.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return GatewayRefund{}, err
	}
	return out, nil
}

func (c *RazorpayClient) do(ctx context.Context, method, path string, in, out any) error {
	u := c.baseURL.ResolveReference(&url.URL{Path: path})

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal gateway request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("gateway %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("gateway %s %s: status %d: %s", method, path, resp.StatusCode, snippet)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode gateway response: %w", err)
		}
	}
	return nil
}
