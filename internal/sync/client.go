// Package sync implements the client side of the vault protocol: an explicit
// HTTP client, the session vault holding the derived key, and the incremental
// push/pull engine over the local cache.
package sync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/iota-pi/flock-sub001/internal/errs"
	"github.com/iota-pi/flock-sub001/internal/model"
)

// authScheme is the word the server strips from the Authorization header.
const authScheme = "Basic"

// Client is the wire client for one account. It is constructed per login and
// passed by reference; there is no global shared instance.
type Client struct {
	baseURL string
	http    *http.Client
	account string
	session string
}

// NewClient constructs a client for the given server base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Account returns the account id the client is bound to, if logged in.
func (c *Client) Account() string { return c.account }

// Session returns the current session secret, if logged in.
func (c *Client) Session() string { return c.session }

// SetCredentials binds the client to an account and session secret, e.g. when
// restoring a persisted session.
func (c *Client) SetCredentials(account, session string) {
	c.account, c.session = account, session
}

// wireItem is the batch-write body shape: the account comes from the URL, not
// the payload.
type wireItem struct {
	ID       string         `json:"id"`
	Cipher   string         `json:"cipher"`
	IV       string         `json:"iv"`
	Modified int64          `json:"modified"`
	Type     model.ItemType `json:"type"`
}

type wireError struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// do performs one JSON request. Non-2xx statuses map onto the sentinel
// taxonomy; everything else surfaces as a transport error, which is kept
// distinct from decryption failures by construction.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != "" {
		req.Header.Set("Authorization", authScheme+" "+c.session)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var we wireError
		_ = json.NewDecoder(resp.Body).Decode(&we)
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return errs.ErrExpiredSession
		case http.StatusForbidden:
			return errs.ErrAuthentication
		case http.StatusNotFound:
			return errs.ErrNotFound
		case http.StatusTooManyRequests:
			return errs.ErrRateLimited
		default:
			if we.Error != "" {
				return fmt.Errorf("server: %s", we.Error)
			}
			return fmt.Errorf("server: status %d", resp.StatusCode)
		}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// CreateAccount registers a new account and returns its allocated id.
func (c *Client) CreateAccount(ctx context.Context, salt, authToken string) (string, error) {
	var resp struct {
		Account string `json:"account"`
	}
	body := map[string]string{"salt": salt, "authToken": authToken}
	if err := c.do(ctx, http.MethodPost, "/account", body, &resp); err != nil {
		return "", err
	}
	return resp.Account, nil
}

// GetSalt fetches the per-account KDF salt. Works before login.
func (c *Client) GetSalt(ctx context.Context, account string) (string, error) {
	var resp struct {
		Success bool   `json:"success"`
		Salt    string `json:"salt"`
	}
	if err := c.do(ctx, http.MethodGet, "/"+account+"/salt", nil, &resp); err != nil {
		return "", err
	}
	return resp.Salt, nil
}

// Login exchanges the auth token for a fresh session secret and binds the
// client to it. Any previously issued session for the account is invalidated
// server-side.
func (c *Client) Login(ctx context.Context, account, authToken string) (string, error) {
	var resp struct {
		Success bool   `json:"success"`
		Session string `json:"session"`
	}
	body := map[string]string{"authToken": authToken}
	if err := c.do(ctx, http.MethodPost, "/"+account+"/login", body, &resp); err != nil {
		return "", err
	}
	c.account, c.session = account, resp.Session
	return resp.Session, nil
}

type wireMetadata struct {
	Cipher string `json:"cipher"`
	IV     string `json:"iv"`
}

// GetMetadata fetches the encrypted account settings blob.
func (c *Client) GetMetadata(ctx context.Context) (cipher, iv string, err error) {
	var resp struct {
		Success  bool         `json:"success"`
		Metadata wireMetadata `json:"metadata"`
	}
	if err := c.do(ctx, http.MethodGet, "/"+c.account, nil, &resp); err != nil {
		return "", "", err
	}
	return resp.Metadata.Cipher, resp.Metadata.IV, nil
}

// SetMetadata replaces the encrypted account settings blob.
func (c *Client) SetMetadata(ctx context.Context, cipher, iv string) error {
	body := map[string]wireMetadata{"metadata": {Cipher: cipher, IV: iv}}
	return c.do(ctx, http.MethodPatch, "/"+c.account, body, &struct{}{})
}

// FetchItems requests items: by exact ids when given, otherwise a full or
// incremental scan (since nil means full snapshot).
func (c *Client) FetchItems(ctx context.Context, since *int64, ids []string) ([]model.VaultItem, error) {
	path := "/" + c.account + "/items"
	params := []string{}
	if since != nil {
		params = append(params, "since="+strconv.FormatInt(*since, 10))
	}
	if len(ids) > 0 {
		params = append(params, "ids="+strings.Join(ids, ","))
	}
	if len(params) > 0 {
		path += "?" + strings.Join(params, "&")
	}
	var resp struct {
		Success bool              `json:"success"`
		Items   []model.VaultItem `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// GetItem fetches a single item by id.
func (c *Client) GetItem(ctx context.Context, id string) (*model.VaultItem, error) {
	var resp struct {
		Success bool              `json:"success"`
		Items   []model.VaultItem `json:"items"`
	}
	if err := c.do(ctx, http.MethodGet, "/"+c.account+"/items/"+id, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Items) == 0 {
		return nil, errs.ErrNotFound
	}
	return &resp.Items[0], nil
}

// PutItem writes one item, replacing the whole ciphertext.
func (c *Client) PutItem(ctx context.Context, it model.VaultItem) error {
	body := map[string]any{
		"cipher":   it.Cipher,
		"iv":       it.IV,
		"modified": it.Modified,
		"type":     it.Type,
	}
	return c.do(ctx, http.MethodPut, "/"+c.account+"/items/"+it.ID, body, &struct{}{})
}

// PutItems writes a batch and returns the per-item report.
func (c *Client) PutItems(ctx context.Context, items []model.VaultItem) ([]model.ItemResult, error) {
	entries := make([]wireItem, len(items))
	for i, it := range items {
		entries[i] = wireItem{ID: it.ID, Cipher: it.Cipher, IV: it.IV, Modified: it.Modified, Type: it.Type}
	}
	var resp struct {
		Success bool               `json:"success"`
		Details []model.ItemResult `json:"details"`
	}
	if err := c.do(ctx, http.MethodPut, "/"+c.account+"/items", entries, &resp); err != nil {
		return nil, err
	}
	return resp.Details, nil
}

// DeleteItem removes one item.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/"+c.account+"/items/"+id, nil, &struct{}{})
}

// DeleteItems removes a batch of ids and returns the per-item report.
func (c *Client) DeleteItems(ctx context.Context, ids []string) ([]model.ItemResult, error) {
	var resp struct {
		Success bool               `json:"success"`
		Details []model.ItemResult `json:"details"`
	}
	if err := c.do(ctx, http.MethodDelete, "/"+c.account+"/items", ids, &resp); err != nil {
		return nil, err
	}
	return resp.Details, nil
}

// GetSubscription fetches push-delivery preferences.
func (c *Client) GetSubscription(ctx context.Context, id string) (*model.Subscription, error) {
	var resp struct {
		Success      bool                `json:"success"`
		Subscription *model.Subscription `json:"subscription"`
	}
	if err := c.do(ctx, http.MethodGet, "/"+c.account+"/subscriptions/"+id, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Subscription, nil
}

// PutSubscription upserts push-delivery preferences.
func (c *Client) PutSubscription(ctx context.Context, sub model.Subscription) error {
	return c.do(ctx, http.MethodPut, "/"+c.account+"/subscriptions/"+sub.ID, sub, &struct{}{})
}

// DeleteSubscription removes push-delivery preferences.
func (c *Client) DeleteSubscription(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/"+c.account+"/subscriptions/"+id, nil, &struct{}{})
}
