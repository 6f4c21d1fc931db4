package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/edgefleet/fleetctl/internal/script"
)

// moduleContentType tags a multipart part as a JavaScript module.
const moduleContentType = "application/javascript+module"

// Client talks to the provider's account-scoped workers API with bearer
// auth. It does not retry; a failed call is reported once.
type Client struct {
	baseURL    string
	accountID  string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a Client for the given account. A nil logger disables
// client logging.
func NewClient(apiBase, accountID, token string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(apiBase, "/"),
		accountID:  accountID,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// UploadScript creates or updates the named worker script via a multipart
// PUT: a "metadata" JSON part describing the module layout and bindings,
// and the module source itself.
func (c *Client) UploadScript(ctx context.Context, name string, meta Metadata, src script.Source) error {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode script metadata: %w", err)
	}
	metaPart, err := mw.CreatePart(partHeader("metadata", "application/json"))
	if err != nil {
		return fmt.Errorf("create metadata part: %w", err)
	}
	if _, err := metaPart.Write(metaJSON); err != nil {
		return fmt.Errorf("write metadata part: %w", err)
	}

	modulePart, err := mw.CreatePart(partHeader(src.FileName, moduleContentType))
	if err != nil {
		return fmt.Errorf("create module part: %w", err)
	}
	if _, err := modulePart.Write(src.Body); err != nil {
		return fmt.Errorf("write module part: %w", err)
	}

	if err := mw.Close(); err != nil {
		return fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.scriptURL(name), body)
	if err != nil {
		return fmt.Errorf("create upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	if err := c.do(req); err != nil {
		return fmt.Errorf("upload script %s: %w", name, err)
	}
	c.logger.Debug("script uploaded", zap.String("worker", name))
	return nil
}

// DeleteScript removes the named worker script from the account.
func (c *Client) DeleteScript(ctx context.Context, name string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.scriptURL(name), nil)
	if err != nil {
		return fmt.Errorf("create delete request: %w", err)
	}
	if err := c.do(req); err != nil {
		return fmt.Errorf("delete script %s: %w", name, err)
	}
	c.logger.Debug("script deleted", zap.String("worker", name))
	return nil
}

// do executes the request and interprets the provider's response envelope.
func (c *Client) do(req *http.Request) error {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if !env.Success || resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Errors: env.Errors}
	}
	return nil
}

func (c *Client) scriptURL(name string) string {
	return fmt.Sprintf("%s/accounts/%s/workers/scripts/%s",
		c.baseURL, url.PathEscape(c.accountID), url.PathEscape(name))
}

func partHeader(name, contentType string) textproto.MIMEHeader {
	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, name, name))
	hdr.Set("Content-Type", contentType)
	return hdr
}
