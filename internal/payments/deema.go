package payments

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Deema authorization modes. The merchant docs say "Authorization: Basic
// {API Key}", but deployed environments have needed all three variants.
const (
	DeemaAuthBasic   = "basic"
	DeemaAuthBasic64 = "basic64"
	DeemaAuthBearer  = "bearer"
)

const (
	deemaSandboxMinKWD = 100
	deemaSandboxMaxKWD = 200
)

// DeemaConfig configures the Deema BNPL gateway adapter.
type DeemaConfig struct {
	// BaseURL is https://sandbox-api.deema.me or https://staging-api.deema.me
	// for test and https://api.deema.me for live.
	BaseURL    string
	APIKey     string
	AuthMode   string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// DeemaGateway drives the Deema buy-now-pay-later purchase flow.
type DeemaGateway struct {
	baseURL  string
	apiKey   string
	authMode string
	client   *http.Client
	logger   *zap.Logger
}

// NewDeemaGateway constructs the gateway. An empty API key yields a disabled
// gateway so the storefront can fall back to demo checkout.
func NewDeemaGateway(cfg DeemaConfig) (*DeemaGateway, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("deema: base url is required")
	}

	authMode := strings.ToLower(strings.TrimSpace(cfg.AuthMode))
	if authMode == "" {
		authMode = DeemaAuthBasic
	}
	switch authMode {
	case DeemaAuthBasic, DeemaAuthBasic64, DeemaAuthBearer:
	default:
		return nil, fmt.Errorf("deema: unknown auth mode %q", cfg.AuthMode)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = defaultHTTPClient(cfg.Timeout)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DeemaGateway{
		baseURL:  baseURL,
		apiKey:   strings.TrimSpace(cfg.APIKey),
		authMode: authMode,
		client:   client,
		logger:   logger,
	}, nil
}

// Name implements Gateway.
func (g *DeemaGateway) Name() string { return "deema" }

// Enabled implements Gateway.
func (g *DeemaGateway) Enabled() bool { return g != nil && g.apiKey != "" }

// Sandbox reports whether the base URL points at a Deema test environment.
// The sandbox only accepts purchase amounts between 100 and 200 KWD.
func (g *DeemaGateway) Sandbox() bool {
	return strings.Contains(g.baseURL, "sandbox-api") || strings.Contains(g.baseURL, "staging-api")
}

type purchaseRequest struct {
	Amount          float64      `json:"amount"`
	CurrencyCode    string       `json:"currency_code"`
	MerchantOrderID string       `json:"merchant_order_id"`
	MerchantURLs    merchantURLs `json:"merchant_urls"`
}

type merchantURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
}

type purchaseResponse struct {
	Data *struct {
		RedirectLink   string `json:"redirect_link"`
		OrderReference string `json:"order_reference"`
	} `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Errors  json.RawMessage `json:"errors"`
}

// Initiate opens a Deema purchase and returns the redirect link. Amounts are
// KWD decimals, not fils.
func (g *DeemaGateway) Initiate(ctx context.Context, req InitiationRequest) (Initiation, error) {
	if !g.Enabled() {
		return Initiation{}, errors.New("deema: gateway is not configured")
	}

	if g.Sandbox() && (req.Amount < deemaSandboxMinKWD || req.Amount > deemaSandboxMaxKWD) {
		return Initiation{}, NewRequestError(
			"Deema sandbox only accepts orders between 100 and 200 KWD, order total is %.3f KWD", req.Amount)
	}

	payload := purchaseRequest{
		Amount:          req.Amount,
		CurrencyCode:    "KWD",
		MerchantOrderID: strconv.Itoa(req.OrderID),
		MerchantURLs: merchantURLs{
			Success: req.CallbackURL,
			Failure: req.ErrorURL,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return Initiation{}, fmt.Errorf("deema.purchase: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/merchant/v1/purchase", bytes.NewReader(body))
	if err != nil {
		return Initiation{}, fmt.Errorf("deema.purchase: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", g.authorization())

	res, err := g.client.Do(httpReq)
	if err != nil {
		return Initiation{}, fmt.Errorf("deema.purchase: %w", err)
	}
	defer res.Body.Close()

	var result purchaseResponse
	if err := decodeResponse(res, &result, "deema.purchase"); err != nil {
		return Initiation{}, err
	}

	if result.Data != nil && result.Data.RedirectLink != "" {
		g.logger.Info("deema purchase created",
			zap.Int("order_id", req.OrderID),
			zap.String("order_reference", result.Data.OrderReference))
		return Initiation{
			PaymentURL: result.Data.RedirectLink,
			PaymentRef: result.Data.OrderReference,
		}, nil
	}

	return Initiation{}, NewRequestError("%s", purchaseErrorMessage(result))
}

func (g *DeemaGateway) authorization() string {
	switch g.authMode {
	case DeemaAuthBasic64:
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(g.apiKey+":"))
	case DeemaAuthBearer:
		return "Bearer " + g.apiKey
	default:
		return "Basic " + g.apiKey
	}
}

// purchaseErrorMessage digs a usable message out of the loose error shapes
// Deema returns. The errors field is sometimes a string and sometimes a list
// of objects with a message field.
func purchaseErrorMessage(result purchaseResponse) string {
	if result.Message != "" {
		return result.Message
	}
	if result.Error != "" {
		return result.Error
	}
	if len(result.Errors) > 0 {
		var asString string
		if err := json.Unmarshal(result.Errors, &asString); err == nil && asString != "" {
			return asString
		}
		var asList []struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(result.Errors, &asList); err == nil && len(asList) > 0 && asList[0].Message != "" {
			return asList[0].Message
		}
	}
	return "Deema payment initiation failed"
}

var _ Gateway = (*DeemaGateway)(nil)
