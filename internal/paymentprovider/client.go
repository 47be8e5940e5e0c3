// Package paymentprovider реализует HTTP-клиент Paystack: инициализация
// транзакции и проверка её статуса по reference. Провайдер рассматривается
// как внешний сервис с контрактом initialize/verify.
package paymentprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client клиент Paystack API.
type Client struct {
	secretKey  string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт новый клиент Paystack. Пустой apiURL заменяется
// боевым адресом.
func NewClient(secretKey, apiURL string, timeout time.Duration) *Client {
	if apiURL == "" {
		apiURL = "https://api.paystack.co"
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		secretKey:  secretKey,
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	url := c.apiURL + path
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// Initialize отправляет запрос на создание транзакции. Возвращённый
// reference назначается провайдером и дальше служит ключом идемпотентности.
func (c *Client) Initialize(ctx context.Context, reqParams InitializeRequest) (*InitializeResponse, []byte, error) {
	const op = "paymentprovider.Initialize"
	req, err := c.newRequest(ctx, http.MethodPost, "/transaction/initialize", reqParams)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, raw, fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	var initResp InitializeResponse
	if err := json.Unmarshal(raw, &initResp); err != nil {
		return nil, raw, fmt.Errorf("%s: %w", op, err)
	}
	if !initResp.Status || initResp.Data.Reference == "" {
		return nil, raw, errors.New(op + ": provider rejected initialization: " + initResp.Message)
	}
	return &initResp, raw, nil
}

// Verify запрашивает у провайдера статус транзакции по reference.
func (c *Client) Verify(ctx context.Context, reference string) (*VerifyResponse, []byte, error) {
	const op = "paymentprovider.Verify"
	req, err := c.newRequest(ctx, http.MethodGet, "/transaction/verify/"+reference, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, raw, fmt.Errorf("%s: unexpected status: %s", op, resp.Status)
	}

	var verifyResp VerifyResponse
	if err := json.Unmarshal(raw, &verifyResp); err != nil {
		return nil, raw, fmt.Errorf("%s: %w", op, err)
	}
	if !verifyResp.Status {
		return nil, raw, errors.New(op + ": invalid response from provider: " + verifyResp.Message)
	}
	return &verifyResp, raw, nil
}
