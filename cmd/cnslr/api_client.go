package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultClientTimeout is the default timeout for API requests.
const DefaultClientTimeout = 15 * time.Second

var apiClient = &http.Client{
	Timeout: DefaultClientTimeout,
}

// apiError is a non-2xx answer from the server with its decoded body.
type apiError struct {
	Status   int      `json:"-"`
	Category string   `json:"error"`
	Message  string   `json:"message"`
	Errors   []string `json:"errors"`
}

func (e *apiError) Error() string {
	msg := fmt.Sprintf("API error (%d): %s", e.Status, e.Category)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	for _, m := range e.Errors {
		msg += "\n  - " + m
	}
	return msg
}

func readResponse(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		apiErr := &apiError{Status: resp.StatusCode}
		if json.Unmarshal(body, apiErr) != nil || apiErr.Category == "" {
			apiErr.Category = string(bytes.TrimSpace(body))
		}
		return nil, apiErr
	}
	return body, nil
}

// apiGet performs a GET request to the API with timeout.
func apiGet(path string) ([]byte, error) {
	resp, err := apiClient.Get(apiAddr + path)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	return readResponse(resp)
}

// apiPost performs a POST request to the API with timeout.
func apiPost(path string, data []byte) ([]byte, error) {
	resp, err := apiClient.Post(apiAddr+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	return readResponse(resp)
}

// CheckHealth returns the parsed health payload even on non-200 responses so
// callers can show which component failed.
func CheckHealth() (*HealthResponse, error) {
	resp, err := apiClient.Get(apiAddr + "/health")
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var health HealthResponse
	if err := json.Unmarshal(body, &health); err != nil {
		return nil, fmt.Errorf("failed to parse health response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return &health, fmt.Errorf("health check failed (status %d): %s", resp.StatusCode, string(body))
	}
	return &health, nil
}

// HealthResponse matches the server's health response structure.
type HealthResponse struct {
	OK      bool   `json:"ok"`
	DB      string `json:"db"`
	Mode    string `json:"mode"`
	Version string `json:"version"`
	Time    string `json:"time"`
}
