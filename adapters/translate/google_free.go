package translate

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"go.uber.org/zap"

	"github.com/satriahrh/mentalhs/server/domain/repositories"
)

const (
	defaultEndpoint       = "https://translate.googleapis.com/translate_a/single"
	defaultTimeoutSeconds = 10
	maxResponseBytes      = 1 << 20
)

// GoogleFreeConfig configures the keyless translate endpoint
type GoogleFreeConfig struct {
	Endpoint       string `yaml:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// GoogleFreeTranslator calls the public gtx translate endpoint. It needs no
// credential and is used when the model cannot translate.
type GoogleFreeTranslator struct {
	endpoint   string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ repositories.Translator = (*GoogleFreeTranslator)(nil)

// NewGoogleFreeTranslator creates a translator with defaults applied
func NewGoogleFreeTranslator(config GoogleFreeConfig, logger *zap.Logger) *GoogleFreeTranslator {
	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
		logger.Info("Using default translate endpoint", zap.String("endpoint", endpoint))
	}

	timeoutSeconds := config.TimeoutSeconds
	if timeoutSeconds <= 0 {
		timeoutSeconds = defaultTimeoutSeconds
	}

	return &GoogleFreeTranslator{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second},
		logger:     logger,
	}
}

// Translate implements repositories.Translator. An empty translation yields
// the original text.
func (g *GoogleFreeTranslator) Translate(ctx context.Context, text, from, to string) (string, error) {
	query := url.Values{}
	query.Set("client", "gtx")
	query.Set("sl", from)
	query.Set("tl", to)
	query.Set("dt", "t")
	query.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build translate request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("translate request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("translate request returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read translate response: %w", err)
	}

	translated, err := parseTranslation(body)
	if err != nil {
		return "", err
	}
	if translated == "" {
		g.logger.Debug("Translate endpoint returned no segments, keeping original")
		return text, nil
	}
	return translated, nil
}

// parseTranslation joins the first element of every segment in the outer
// array's first entry: [[["Hello","नमस्ते",...],...],...]
func parseTranslation(body []byte) (string, error) {
	var sb strings.Builder
	var segErr error

	_, err := jsonparser.ArrayEach(body, func(value []byte, dataType jsonparser.ValueType, _ int, err error) {
		if err != nil {
			segErr = err
			return
		}
		if dataType != jsonparser.Array {
			return
		}
		segment, err := jsonparser.GetString(value, "[0]")
		if err != nil {
			return
		}
		sb.WriteString(segment)
	}, "[0]")
	if err != nil {
		return "", fmt.Errorf("malformed translate response: %w", err)
	}
	if segErr != nil {
		return "", fmt.Errorf("malformed translate segment: %w", segErr)
	}
	return sb.String(), nil
}
