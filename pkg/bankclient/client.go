/**
 * @description
 * This package provides a client for the remote banking API. It encapsulates
 * the logic for making HTTP requests to the account endpoints, handling
 * request construction, and parsing responses into typed results.
 *
 * The session service's only dependency on the backend is the UserDetails
 * surface: fetch by PAN, fetch by email (login), and registration. Ledger,
 * cards, payees and pots are consumed directly by view clients and are not
 * part of this package.
 */
package bankclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ALTER-2357/bank-app-thing/internal/domain"
)

const defaultTimeout = 15 * time.Second

// Client is a client for the banking API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new banking API client. A non-positive timeout falls
// back to the default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// UserDetails mirrors the JSON shape returned by GET /UserDetails. Field
// names match the wire contract exactly; everything arrives as a string.
type UserDetails struct {
	Address        string `json:"Address"`
	CardNumber     string `json:"CardNumber"`
	Email          string `json:"Email"`
	FirstName      string `json:"FirstName"`
	LastName       string `json:"LastName"`
	LedgerEntry    string `json:"LedgerEntry"`
	Balance        string `json:"balance"`
	OverdraftTotal string `json:"Overdraft_total"`
	OverdraftState string `json:"Overdraftstate"`
	PAN            string `json:"PAN"`
	Opened         string `json:"opened"`
	Status         string `json:"status"`
}

// Registration is the payload for opening a new account.
type Registration struct {
	FirstName    string
	LastName     string
	Email        string
	Address      string
	MobileNumber string
}

// GetUserDetails fetches the authoritative account record for a PAN.
func (c *Client) GetUserDetails(ctx context.Context, pan string) (*UserDetails, error) {
	if strings.TrimSpace(pan) == "" {
		return nil, &domain.InvalidRequestError{Reason: "empty PAN"}
	}
	endpoint := fmt.Sprintf("%s/UserDetails?PAN=%s", c.baseURL, url.QueryEscape(pan))
	return c.getUserDetails(ctx, endpoint)
}

// GetUserDetailsByEmail fetches the account record via the email login path.
func (c *Client) GetUserDetailsByEmail(ctx context.Context, email string) (*UserDetails, error) {
	if strings.TrimSpace(email) == "" {
		return nil, &domain.InvalidRequestError{Reason: "empty email"}
	}
	endpoint := fmt.Sprintf("%s/login?Email=%s", c.baseURL, url.QueryEscape(email))
	return c.getUserDetails(ctx, endpoint)
}

func (c *Client) getUserDetails(ctx context.Context, endpoint string) (*UserDetails, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &domain.InvalidRequestError{Reason: err.Error()}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.ServerError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(bodyBytes))}
	}

	var details UserDetails
	if err := json.Unmarshal(bodyBytes, &details); err != nil {
		return nil, &domain.DecodingError{Err: err}
	}
	if details.PAN == "" {
		return nil, &domain.DecodingError{Err: fmt.Errorf("response missing PAN")}
	}

	return &details, nil
}

// Register opens a new account. The backend answers a 2xx with the raw PAN
// as a plain-text body, not JSON.
func (c *Client) Register(ctx context.Context, reg Registration) (string, error) {
	form := url.Values{}
	form.Set("FirstName", reg.FirstName)
	form.Set("LastName", reg.LastName)
	form.Set("Email", reg.Email)
	form.Set("Address", reg.Address)
	form.Set("MobileNumber", reg.MobileNumber)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/UserDetails", strings.NewReader(form.Encode()))
	if err != nil {
		return "", &domain.InvalidRequestError{Reason: err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &domain.NetworkError{Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &domain.NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &domain.ServerError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(bodyBytes))}
	}

	pan := strings.TrimSpace(string(bodyBytes))
	if pan == "" {
		return "", &domain.DecodingError{Err: fmt.Errorf("registration response carried no PAN")}
	}

	return pan, nil
}
