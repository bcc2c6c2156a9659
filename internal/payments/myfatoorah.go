package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const mobileDigits = 8

// MyFatoorahConfig configures the MyFatoorah gateway adapter.
type MyFatoorahConfig struct {
	// BaseURL is https://apitest.myfatoorah.com for test and
	// https://api.myfatoorah.com for live Kuwait.
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// MyFatoorahGateway drives the MyFatoorah hosted invoice flow.
type MyFatoorahGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewMyFatoorahGateway constructs the gateway. An empty API key yields a
// disabled gateway so the storefront can fall back to demo checkout.
func NewMyFatoorahGateway(cfg MyFatoorahConfig) (*MyFatoorahGateway, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("myfatoorah: base url is required")
	}

	client := cfg.HTTPClient
	if client == nil {
		client = defaultHTTPClient(cfg.Timeout)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &MyFatoorahGateway{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		client:  client,
		logger:  logger,
	}, nil
}

// Name implements Gateway.
func (g *MyFatoorahGateway) Name() string { return "myfatoorah" }

// Enabled implements Gateway.
func (g *MyFatoorahGateway) Enabled() bool { return g != nil && g.apiKey != "" }

type executePaymentRequest struct {
	InvoiceValue      float64              `json:"InvoiceValue"`
	CurrencyIso       string               `json:"CurrencyIso"`
	CustomerName      string               `json:"CustomerName"`
	CustomerEmail     string               `json:"CustomerEmail"`
	MobileCountryCode string               `json:"MobileCountryCode"`
	CustomerMobile    string               `json:"CustomerMobile"`
	CallBackURL       string               `json:"CallBackUrl"`
	ErrorURL          string               `json:"ErrorUrl"`
	Language          string               `json:"Language"`
	CustomerReference string               `json:"CustomerReference"`
	InvoiceItems      []executeInvoiceItem `json:"InvoiceItems"`
}

type executeInvoiceItem struct {
	ItemName  string  `json:"ItemName"`
	Quantity  int     `json:"Quantity"`
	UnitPrice float64 `json:"UnitPrice"`
}

type executePaymentResponse struct {
	IsSuccess bool   `json:"IsSuccess"`
	Message   string `json:"Message"`
	Data      struct {
		InvoiceID  int64  `json:"InvoiceId"`
		PaymentURL string `json:"PaymentURL"`
	} `json:"Data"`
}

// Initiate creates a MyFatoorah invoice and returns the hosted payment page.
func (g *MyFatoorahGateway) Initiate(ctx context.Context, req InitiationRequest) (Initiation, error) {
	if !g.Enabled() {
		return Initiation{}, errors.New("myfatoorah: gateway is not configured")
	}

	if strings.TrimSpace(req.CustomerName) == "" {
		return Initiation{}, NewRequestError("customer name is required")
	}
	if strings.TrimSpace(req.CustomerEmail) == "" {
		return Initiation{}, NewRequestError("customer email is required")
	}
	if strings.TrimSpace(req.CustomerPhone) == "" {
		return Initiation{}, NewRequestError("customer phone is required")
	}

	mobile := kuwaitMobile(req.CustomerPhone)
	if len(mobile) != mobileDigits {
		return Initiation{}, NewRequestError("customer phone must be a valid Kuwait number (8 digits)")
	}

	payload := executePaymentRequest{
		InvoiceValue:      req.Amount,
		CurrencyIso:       "KWD",
		CustomerName:      req.CustomerName,
		CustomerEmail:     req.CustomerEmail,
		MobileCountryCode: "+965",
		CustomerMobile:    mobile,
		CallBackURL:       req.CallbackURL,
		ErrorURL:          req.ErrorURL,
		Language:          "en",
		CustomerReference: req.OrderNumber,
	}
	for _, item := range req.Items {
		payload.InvoiceItems = append(payload.InvoiceItems, executeInvoiceItem{
			ItemName:  item.Name,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	var result executePaymentResponse
	if err := g.post(ctx, "/v2/ExecutePayment", payload, &result, "myfatoorah.execute_payment"); err != nil {
		return Initiation{}, err
	}
	if !result.IsSuccess {
		message := result.Message
		if message == "" {
			message = "payment initiation failed"
		}
		return Initiation{}, NewRequestError("%s", message)
	}

	g.logger.Info("myfatoorah invoice created",
		zap.Int("order_id", req.OrderID),
		zap.Int64("invoice_id", result.Data.InvoiceID))

	return Initiation{
		PaymentURL: result.Data.PaymentURL,
		PaymentRef: strconv.FormatInt(result.Data.InvoiceID, 10),
	}, nil
}

type paymentStatusRequest struct {
	Key     string `json:"Key"`
	KeyType string `json:"KeyType"`
}

type paymentStatusResponse struct {
	IsSuccess bool `json:"IsSuccess"`
	Data      struct {
		InvoiceStatus string `json:"InvoiceStatus"`
	} `json:"Data"`
}

// PaymentStatus asks MyFatoorah for the invoice state behind a payment id.
func (g *MyFatoorahGateway) PaymentStatus(ctx context.Context, paymentRef string) (Status, error) {
	if !g.Enabled() {
		return StatusPending, errors.New("myfatoorah: gateway is not configured")
	}
	if strings.TrimSpace(paymentRef) == "" {
		return StatusPending, errors.New("myfatoorah: payment reference is required")
	}

	var result paymentStatusResponse
	payload := paymentStatusRequest{Key: paymentRef, KeyType: "PaymentId"}
	if err := g.post(ctx, "/v2/GetPaymentStatus", payload, &result, "myfatoorah.payment_status"); err != nil {
		return StatusPending, err
	}

	if result.IsSuccess && result.Data.InvoiceStatus == "Paid" {
		return StatusPaid, nil
	}
	return StatusPending, nil
}

func (g *MyFatoorahGateway) post(ctx context.Context, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", operation, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", operation, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	res, err := g.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s: %w", operation, err)
	}
	defer res.Body.Close()

	return decodeResponse(res, out, operation)
}

// kuwaitMobile strips non-digits and keeps the trailing local digits.
func kuwaitMobile(phone string) string {
	digits := make([]rune, 0, len(phone))
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) > mobileDigits {
		digits = digits[len(digits)-mobileDigits:]
	}
	return string(digits)
}

var (
	_ Gateway       = (*MyFatoorahGateway)(nil)
	_ StatusChecker = (*MyFatoorahGateway)(nil)
)
