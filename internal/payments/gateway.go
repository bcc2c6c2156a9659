package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Status enumerates the normalised payment states reported by gateways.
type Status string

const (
	// StatusPending indicates the gateway has not confirmed the payment yet.
	StatusPending Status = "pending"
	// StatusPaid indicates the gateway reports the payment as captured.
	StatusPaid Status = "paid"
	// StatusFailed indicates the gateway reports a terminal failure.
	StatusFailed Status = "failed"
)

// InvoiceItem is a single order line forwarded to the gateway invoice.
type InvoiceItem struct {
	Name      string
	Quantity  int
	UnitPrice float64
}

// InitiationRequest carries everything a gateway needs to open a hosted
// checkout session for an order.
type InitiationRequest struct {
	OrderID       int
	OrderNumber   string
	Amount        float64
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	CallbackURL   string
	ErrorURL      string
	Items         []InvoiceItem
}

// Initiation is the gateway response the storefront redirects the customer to.
type Initiation struct {
	PaymentURL string
	PaymentRef string
}

// Gateway is the contract hosted-checkout providers implement.
type Gateway interface {
	// Name identifies the gateway in logs and payment method routing.
	Name() string
	// Enabled reports whether the gateway has credentials configured.
	Enabled() bool
	// Initiate opens a checkout session and returns the redirect target.
	Initiate(ctx context.Context, req InitiationRequest) (Initiation, error)
}

// StatusChecker is implemented by gateways that support server-side payment
// status lookup during callback reconciliation.
type StatusChecker interface {
	PaymentStatus(ctx context.Context, paymentRef string) (Status, error)
}

// RequestError marks initiation failures caused by the order payload rather
// than the gateway itself. Handlers translate these into client errors.
type RequestError struct {
	msg string
}

func (e *RequestError) Error() string { return e.msg }

// NewRequestError builds a RequestError with the given message.
func NewRequestError(format string, args ...any) error {
	return &RequestError{msg: fmt.Sprintf(format, args...)}
}

// IsRequestError reports whether err originates from invalid initiation input.
func IsRequestError(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr)
}

const responseSnippetLimit = 800

// decodeResponse reads the body and decodes it as JSON, surfacing a trimmed
// body snippet when the gateway answers with something else entirely.
func decodeResponse(res *http.Response, out any, operation string) error {
	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", operation, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > responseSnippetLimit {
			snippet = snippet[:responseSnippetLimit]
		}
		if snippet == "" {
			snippet = "<empty>"
		}
		return fmt.Errorf("%s: non-JSON response (status %d, content-type %q): %s",
			operation, res.StatusCode, res.Header.Get("Content-Type"), snippet)
	}
	return nil
}

func defaultHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
