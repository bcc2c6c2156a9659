// Package translate turns Arabic customer text into English for delivery
// drivers using the LibreTranslate HTTP API.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// maxTranslationInput caps request text at 5000 runes.
const maxTranslationInput = 5000

// HasArabic reports whether the text contains Arabic script characters.
func HasArabic(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Arabic, r) {
			return true
		}
	}
	return false
}

// Config configures the LibreTranslate client.
type Config struct {
	BaseURL string
	// Source and Target select the translation pair. Zero tags fall back to
	// Arabic and English. Source accepts regional variants such as ar-KW,
	// the request always carries the base language code.
	Source     language.Tag
	Target     language.Tag
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Translator translates Arabic text to English, passing everything else
// through untouched.
type Translator struct {
	baseURL    string
	sourceCode string
	targetCode string
	client     *http.Client
	logger     *zap.Logger
}

// NewTranslator constructs the translator.
func NewTranslator(cfg Config) (*Translator, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("translate: base url is required")
	}

	source := cfg.Source
	if source.IsRoot() {
		source = language.Arabic
	}
	target := cfg.Target
	if target.IsRoot() {
		target = language.English
	}

	// The Arabic-script gate in ToEnglish only makes sense for Arabic
	// sources, regional variants included.
	arabic, _ := language.Arabic.Base()
	sourceBase, _ := source.Base()
	if sourceBase != arabic {
		return nil, fmt.Errorf("translate: source %s is not an Arabic variant", source)
	}
	targetBase, _ := target.Base()
	if targetBase == arabic {
		return nil, fmt.Errorf("translate: target %s must differ from the Arabic source", target)
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Translator{
		baseURL:    baseURL,
		sourceCode: sourceBase.String(),
		targetCode: targetBase.String(),
		client:     client,
		logger:     logger,
	}, nil
}

type translateRequest struct {
	Query  string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
}

type translateResponse struct {
	TranslatedText string `json:"translatedText"`
}

// ToEnglish translates text containing Arabic to English. Non-Arabic and
// empty input comes back unchanged, and so does input when translation fails.
// The fallback keeps order creation working while the translation service is
// down.
func (t *Translator) ToEnglish(ctx context.Context, text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" || !HasArabic(trimmed) {
		return text
	}
	// Truncation counts runes so a multi-byte character is never split.
	if runes := []rune(trimmed); len(runes) > maxTranslationInput {
		trimmed = string(runes[:maxTranslationInput])
	}

	payload := translateRequest{
		Query:  trimmed,
		Source: t.sourceCode,
		Target: t.targetCode,
		Format: "text",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return text
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/translate", bytes.NewReader(body))
	if err != nil {
		return text
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := t.client.Do(req)
	if err != nil {
		t.logger.Warn("translation request failed", zap.Error(err))
		return text
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.logger.Warn("translation service rejected request", zap.Int("status", res.StatusCode))
		return text
	}

	var result translateResponse
	if err := json.NewDecoder(res.Body).Decode(&result); err != nil {
		t.logger.Warn("translation response unreadable", zap.Error(err))
		return text
	}

	translated := strings.TrimSpace(result.TranslatedText)
	if translated == "" {
		return text
	}
	return translated
}
