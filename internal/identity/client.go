// Package identity provides the HTTP client for the identity service:
// email lookup and the register/login hand-off paths that finalize a
// draft into persisted state. Service-reported errors are typed so the
// stage controller can redisplay them verbatim without changing flow.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/kiqmontajes/quotechat/internal/domain"
)

var (
	// ErrUnavailable covers transport and server failures.
	ErrUnavailable = errors.New("identity service unavailable")
	// ErrEmailTaken is returned when registering an existing email.
	ErrEmailTaken = errors.New("ese email ya está registrado")
	// ErrInvalidCredentials is returned on a failed login.
	ErrInvalidCredentials = errors.New("contraseña incorrecta")
)

// ValidationError carries a service-side validation message that is
// shown to the user as-is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Config holds client configuration.
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration
}

// DefaultConfig returns default client configuration.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		RequestTimeout: 15 * time.Second,
	}
}

// Client talks to the identity service.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a client for the identity service.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.RequestTimeout},
		logger: logger,
	}
}

// CheckEmail reports whether the email already has an account.
func (c *Client) CheckEmail(ctx context.Context, email string) (bool, error) {
	var result struct {
		Status string `json:"status"`
	}
	if err := c.post(ctx, "/auth/check-email", map[string]string{"email": email}, &result, nil); err != nil {
		return false, err
	}
	return result.Status == "existing" || result.Status == "existente", nil
}

// draftPayload is the draft portion shared by both hand-off calls.
type draftPayload struct {
	Description string            `json:"descripcion"`
	Address     string            `json:"direccion"`
	Price       float64           `json:"precio_calculado"`
	ImageURLs   []string          `json:"imagenes"`
	ImageLabels []string          `json:"etiquetas"`
	Breakdown   *domain.Breakdown `json:"desglose"`
}

func newDraftPayload(draft domain.JobDraft) draftPayload {
	return draftPayload{
		Description: draft.FreeTextDescription,
		Address:     draft.Address,
		Price:       draft.PriceBase,
		ImageURLs:   draft.ImageRefs,
		ImageLabels: draft.ImageLabels,
		Breakdown:   draft.Breakdown,
	}
}

// RegisterAndPublish creates the account and saves the draft in one
// call, returning the session token.
func (c *Client) RegisterAndPublish(ctx context.Context, name, email, password string, draft domain.JobDraft) (string, error) {
	body := struct {
		Name     string `json:"nombre"`
		Email    string `json:"email"`
		Password string `json:"password"`
		draftPayload
	}{Name: name, Email: email, Password: password, draftPayload: newDraftPayload(draft)}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.post(ctx, "/auth/register-and-publish", body, &result, registerError); err != nil {
		return "", err
	}
	return result.AccessToken, nil
}

// LoginAndPublish authenticates and saves the draft in one call,
// returning the session token.
func (c *Client) LoginAndPublish(ctx context.Context, email, password string, draft domain.JobDraft) (string, error) {
	body := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		draftPayload
	}{Email: email, Password: password, draftPayload: newDraftPayload(draft)}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.post(ctx, "/auth/login-and-publish", body, &result, loginError); err != nil {
		return "", err
	}
	return result.AccessToken, nil
}

// errorMapper turns a non-2xx response into a typed error.
type errorMapper func(status int, message string) error

func registerError(status int, message string) error {
	if status == http.StatusConflict {
		return ErrEmailTaken
	}
	if status >= 400 && status < 500 && message != "" {
		return &ValidationError{Message: message}
	}
	return ErrUnavailable
}

func loginError(status int, message string) error {
	if status == http.StatusUnauthorized {
		return ErrInvalidCredentials
	}
	if status >= 400 && status < 500 && message != "" {
		return &ValidationError{Message: message}
	}
	return ErrUnavailable
}

func (c *Client) post(ctx context.Context, path string, body, result any, mapErr errorMapper) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request for %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("identity request failed", "path", path, "error", err)
		return ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		c.logger.Warn("identity service returned error", "path", path, "status", resp.StatusCode)
		if mapErr != nil {
			return mapErr(resp.StatusCode, errBody.Error)
		}
		return ErrUnavailable
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		c.logger.Warn("decode identity response", "path", path, "error", err)
		return ErrUnavailable
	}
	return nil
}
