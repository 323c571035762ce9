package civichttp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseBytes = 2 * 1024 * 1024

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// RequestError carries the transport-level outcome of one API call. Detail
// holds the server's human-readable "detail" message when the error body was
// a JSON object; handlers surface it verbatim and fall back to a generic
// message otherwise.
type RequestError struct {
	Op         string
	StatusCode int
	Detail     string
	Err        error
}

func (e *RequestError) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Err != nil && e.StatusCode > 0:
		return fmt.Sprintf("%s: status=%d: %v", e.Op, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.StatusCode > 0:
		return fmt.Sprintf("%s: status=%d", e.Op, e.StatusCode)
	default:
		return e.Op
	}
}

func (e *RequestError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ErrNotFound is returned when the referenced object no longer exists on the
// server, typically because another session already processed it.
var ErrNotFound = errors.New("not found")

// ErrUnauthorized covers both 401 and 403: an absent, expired or
// insufficient token.
var ErrUnauthorized = errors.New("unauthorized")

type tokenContextKeyType struct{}

var tokenContextKey tokenContextKeyType

// WithToken attaches the session bearer token to the context. Requests made
// without a token go out bare (login, signup, password reset).
func WithToken(ctx context.Context, token string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, tokenContextKey, strings.TrimSpace(token))
}

func TokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, ok := ctx.Value(tokenContextKey).(string)
	if !ok {
		return ""
	}
	return value
}

func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	trimmedBaseURL := strings.TrimSpace(baseURL)
	if trimmedBaseURL == "" {
		return nil, &RequestError{
			Op:  "create api client",
			Err: errors.New("api base url is empty"),
		}
	}

	parsed, err := url.Parse(trimmedBaseURL)
	if err != nil {
		return nil, &RequestError{Op: "parse api base url", Err: err}
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, &RequestError{
			Op:  "validate api base url",
			Err: fmt.Errorf("invalid api base url: %s", trimmedBaseURL),
		}
	}

	if timeout <= 0 {
		timeout = 8 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(trimmedBaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

func (c *Client) DoJSON(ctx context.Context, method string, path string, requestBody interface{}, responseBody interface{}) error {
	if c == nil || c.httpClient == nil {
		return &RequestError{
			Op:  "do json request",
			Err: errors.New("api client is not initialized"),
		}
	}

	var bodyReader io.Reader
	if requestBody != nil {
		payload, err := json.Marshal(requestBody)
		if err != nil {
			return &RequestError{Op: "marshal request body", Err: err}
		}
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+ensureLeadingSlash(path), bodyReader)
	if err != nil {
		return &RequestError{Op: "create http request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	statusCode, responseBytes, err := c.execute(ctx, req)
	if err != nil {
		return err
	}
	if responseBody == nil || len(responseBytes) == 0 {
		return nil
	}

	if err := json.Unmarshal(responseBytes, responseBody); err != nil {
		return &RequestError{
			Op:         "decode http response",
			StatusCode: statusCode,
			Err:        err,
		}
	}

	return nil
}

// UploadMultipart posts one file as a multipart form. Fields carry the
// description and the parent identifier next to the "file" part.
func (c *Client) UploadMultipart(ctx context.Context, path string, fileName string, fileBody io.Reader, fields map[string]string, responseBody interface{}) error {
	if c == nil || c.httpClient == nil {
		return &RequestError{
			Op:  "upload multipart",
			Err: errors.New("api client is not initialized"),
		}
	}
	if fileBody == nil {
		return &RequestError{Op: "upload multipart", Err: errors.New("file body is nil")}
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", strings.TrimSpace(fileName))
	if err != nil {
		return &RequestError{Op: "create form file", Err: err}
	}
	if _, err := io.Copy(part, fileBody); err != nil {
		return &RequestError{Op: "copy file body", Err: err}
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return &RequestError{Op: "write form field", Err: err}
		}
	}
	if err := writer.Close(); err != nil {
		return &RequestError{Op: "close multipart writer", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ensureLeadingSlash(path), &buf)
	if err != nil {
		return &RequestError{Op: "create http request", Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	statusCode, responseBytes, err := c.execute(ctx, req)
	if err != nil {
		return err
	}
	if responseBody == nil || len(responseBytes) == 0 {
		return nil
	}

	if err := json.Unmarshal(responseBytes, responseBody); err != nil {
		return &RequestError{
			Op:         "decode upload response",
			StatusCode: statusCode,
			Err:        err,
		}
	}

	return nil
}

func (c *Client) execute(ctx context.Context, req *http.Request) (int, []byte, error) {
	if token := TokenFromContext(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, &RequestError{
			Op:  "execute http request",
			Err: wrapTransportError(err),
		}
	}
	defer resp.Body.Close()

	responseBytes, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if readErr != nil {
		return resp.StatusCode, nil, &RequestError{
			Op:         "read http response",
			StatusCode: resp.StatusCode,
			Err:        readErr,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, responseBytes, statusError(resp.StatusCode, responseBytes)
	}

	return resp.StatusCode, responseBytes, nil
}

func statusError(statusCode int, body []byte) *RequestError {
	detail := extractDetail(body)

	var cause error
	switch statusCode {
	case http.StatusNotFound:
		cause = ErrNotFound
	case http.StatusUnauthorized, http.StatusForbidden:
		cause = ErrUnauthorized
	default:
		message := detail
		if message == "" {
			message = strings.TrimSpace(string(body))
		}
		if message == "" {
			message = http.StatusText(statusCode)
		}
		cause = errors.New(message)
	}

	return &RequestError{
		Op:         "unexpected http status",
		StatusCode: statusCode,
		Detail:     detail,
		Err:        cause,
	}
}

func extractDetail(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return strings.TrimSpace(payload.Detail)
}

// Detail returns the server's human-readable failure message when the error
// carried one, or the empty string.
func Detail(err error) string {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Detail
	}
	return ""
}

func wrapTransportError(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("request timed out: %w", err)
	}
	return err
}

func ensureLeadingSlash(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "/"
	}
	if strings.HasPrefix(trimmed, "/") {
		return trimmed
	}
	return "/" + trimmed
}
