// Package quote provides the HTTP client for the analysis and pricing
// service, normalizing its error shapes for the stage controller: the
// semantic 422 ambiguity response is separated from transport and
// server failures, which all collapse into ErrUnavailable.
package quote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/kiqmontajes/quotechat/internal/domain"
)

// ErrUnavailable covers every transport or server failure. The stage
// controller routes it to the generic apology and a reset to the
// describe stage; it never inspects the underlying cause.
var ErrUnavailable = errors.New("quote service unavailable")

// AnalysisResult is a successful analysis response.
type AnalysisResult struct {
	Analysis    *domain.Analysis `json:"analisis"`
	ImageURLs   []string         `json:"image_urls"`
	ImageLabels []string         `json:"image_labels"`
}

// PricedQuote is a successful pricing response.
type PricedQuote struct {
	TotalPrice float64           `json:"total_presupuesto"`
	Breakdown  *domain.Breakdown `json:"desglose"`
}

// ambiguityEnvelope is the semantic 422 payload.
type ambiguityEnvelope struct {
	Ambiguous        bool     `json:"ACLARACION_REQUERIDA"`
	ProbableItemKind string   `json:"MUEBLE_PROBABLE"`
	MissingFields    []string `json:"CAMPOS_FALTANTES"`
}

// Config holds client configuration.
type Config struct {
	BaseURL        string
	Language       string
	RequestTimeout time.Duration
}

// DefaultConfig returns default client configuration.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:        baseURL,
		Language:       "es",
		RequestTimeout: 30 * time.Second,
	}
}

// Client talks to the analysis/pricing service.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a client for the analysis/pricing service.
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

// SubmitForAnalysis sends the description and any attached photos for
// analysis. Exactly one of the three results is non-zero: a completed
// analysis, a clarification request, or an error.
func (c *Client) SubmitForAnalysis(ctx context.Context, description, clientName string, images []domain.ImageUpload) (*AnalysisResult, *domain.ClarificationRequest, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	fields := map[string]string{
		"descripcion_texto_mueble": description,
		"language":                 c.cfg.Language,
		"client_name":              clientName,
	}
	for k, v := range fields {
		if err := form.WriteField(k, v); err != nil {
			return nil, nil, fmt.Errorf("write form field %s: %w", k, err)
		}
	}
	for _, img := range images {
		part, err := form.CreateFormFile("imagen", img.Filename)
		if err != nil {
			return nil, nil, fmt.Errorf("create image part: %w", err)
		}
		if _, err := part.Write(img.Data); err != nil {
			return nil, nil, fmt.Errorf("write image part: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return nil, nil, fmt.Errorf("finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/quote/analyze", &body)
	if err != nil {
		return nil, nil, fmt.Errorf("build analysis request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("analysis request failed", "error", err)
		return nil, nil, ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnprocessableEntity {
		var env ambiguityEnvelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil || !env.Ambiguous {
			c.logger.Warn("unparseable 422 from analysis service", "error", err)
			return nil, nil, ErrUnavailable
		}
		return nil, &domain.ClarificationRequest{
			ProbableItemKind: env.ProbableItemKind,
			MissingFields:    env.MissingFields,
		}, nil
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("analysis service returned error status", "status", resp.StatusCode)
		return nil, nil, ErrUnavailable
	}

	var result AnalysisResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		c.logger.Warn("decode analysis response", "error", err)
		return nil, nil, ErrUnavailable
	}
	if result.Analysis == nil {
		c.logger.Warn("analysis response missing analysis document")
		return nil, nil, ErrUnavailable
	}
	return &result, nil, nil
}

// pricingRequest is the JSON body for the pricing endpoint.
type pricingRequest struct {
	Analysis    *domain.Analysis `json:"analisis"`
	Address     string           `json:"direccion_cliente"`
	Language    string           `json:"language"`
	ImageURLs   []string         `json:"image_urls"`
	ImageLabels []string         `json:"image_labels"`
}

// SubmitAddress sends the finalized address with the stored analysis
// and returns the priced quote.
func (c *Client) SubmitAddress(ctx context.Context, analysis *domain.Analysis, address string, imageURLs, imageLabels []string) (*PricedQuote, error) {
	payload, err := json.Marshal(pricingRequest{
		Analysis:    analysis,
		Address:     address,
		Language:    c.cfg.Language,
		ImageURLs:   imageURLs,
		ImageLabels: imageLabels,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal pricing request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/quote/price", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build pricing request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("pricing request failed", "error", err)
		return nil, ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("pricing service returned error status", "status", resp.StatusCode)
		return nil, ErrUnavailable
	}

	var quote PricedQuote
	if err := json.NewDecoder(resp.Body).Decode(&quote); err != nil {
		c.logger.Warn("decode pricing response", "error", err)
		return nil, ErrUnavailable
	}
	return &quote, nil
}

// publishRequest is the JSON body for the authenticated publish call.
type publishRequest struct {
	Description string            `json:"descripcion"`
	Address     string            `json:"direccion"`
	Price       float64           `json:"precio_calculado"`
	ImageURLs   []string          `json:"imagenes"`
	ImageLabels []string          `json:"etiquetas"`
	Breakdown   *domain.Breakdown `json:"desglose"`
}

// PublishJob saves the draft under an existing session token.
func (c *Client) PublishJob(ctx context.Context, token string, draft domain.JobDraft) error {
	payload, err := json.Marshal(publishRequest{
		Description: draft.FreeTextDescription,
		Address:     draft.Address,
		Price:       draft.PriceBase,
		ImageURLs:   draft.ImageRefs,
		ImageLabels: draft.ImageLabels,
		Breakdown:   draft.Breakdown,
	})
	if err != nil {
		return fmt.Errorf("marshal publish request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/jobs", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build publish request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("publish request failed", "error", err)
		return ErrUnavailable
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		if msg := decodeErrorMessage(resp.Body); msg != "" {
			return errors.New(msg)
		}
		return ErrUnavailable
	}
	return nil
}

func decodeErrorMessage(r io.Reader) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return ""
	}
	return body.Error
}
