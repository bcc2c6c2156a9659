package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMyFatoorahInitiate(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/ExecutePayment" {
			t.Errorf("path = %q, want /v2/ExecutePayment", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"IsSuccess": true,
			"Data": map[string]any{
				"InvoiceId":  987654,
				"PaymentURL": "https://pay.example/invoice/987654",
			},
		})
	}))
	defer server.Close()

	gateway, err := NewMyFatoorahGateway(MyFatoorahConfig{BaseURL: server.URL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewMyFatoorahGateway: %v", err)
	}

	initiation, err := gateway.Initiate(context.Background(), InitiationRequest{
		OrderID:       12,
		OrderNumber:   "ORD-01J8TESTULID",
		Amount:        95.5,
		CustomerName:  "Sara Al-Mutairi",
		CustomerEmail: "sara@example.com",
		CustomerPhone: "+965 9988 7766",
		CallbackURL:   "https://shop.example/api/payment/myfatoorah/callback?orderId=12",
		ErrorURL:      "https://shop.example/api/payment/myfatoorah/callback?orderId=12&error=true",
		Items:         []InvoiceItem{{Name: "Classic Dishdasha", Quantity: 1, UnitPrice: 95.5}},
	})
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if initiation.PaymentURL != "https://pay.example/invoice/987654" {
		t.Fatalf("payment url = %q", initiation.PaymentURL)
	}
	if initiation.PaymentRef != "987654" {
		t.Fatalf("payment ref = %q, want invoice id as string", initiation.PaymentRef)
	}

	if captured["CurrencyIso"] != "KWD" {
		t.Errorf("currency = %v, want KWD", captured["CurrencyIso"])
	}
	if captured["CustomerMobile"] != "99887766" {
		t.Errorf("mobile = %v, want last 8 digits", captured["CustomerMobile"])
	}
	if captured["MobileCountryCode"] != "+965" {
		t.Errorf("country code = %v", captured["MobileCountryCode"])
	}
	if captured["CustomerReference"] != "ORD-01J8TESTULID" {
		t.Errorf("reference = %v", captured["CustomerReference"])
	}
}

func TestMyFatoorahInitiateValidation(t *testing.T) {
	gateway, err := NewMyFatoorahGateway(MyFatoorahConfig{BaseURL: "https://apitest.myfatoorah.com", APIKey: "k"})
	if err != nil {
		t.Fatalf("NewMyFatoorahGateway: %v", err)
	}

	base := InitiationRequest{
		CustomerName:  "Sara",
		CustomerEmail: "sara@example.com",
		CustomerPhone: "+965 9988 7766",
	}

	tests := []struct {
		name   string
		mutate func(*InitiationRequest)
	}{
		{"missing name", func(r *InitiationRequest) { r.CustomerName = " " }},
		{"missing email", func(r *InitiationRequest) { r.CustomerEmail = "" }},
		{"missing phone", func(r *InitiationRequest) { r.CustomerPhone = "" }},
		{"short phone", func(r *InitiationRequest) { r.CustomerPhone = "12345" }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := base
			tc.mutate(&req)
			_, err := gateway.Initiate(context.Background(), req)
			if !IsRequestError(err) {
				t.Fatalf("err = %v, want request error", err)
			}
		})
	}
}

func TestMyFatoorahInitiateGatewayRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"IsSuccess": false,
			"Message":   "Invalid invoice value",
		})
	}))
	defer server.Close()

	gateway, err := NewMyFatoorahGateway(MyFatoorahConfig{BaseURL: server.URL, APIKey: "k"})
	if err != nil {
		t.Fatalf("NewMyFatoorahGateway: %v", err)
	}

	_, err = gateway.Initiate(context.Background(), InitiationRequest{
		CustomerName:  "Sara",
		CustomerEmail: "sara@example.com",
		CustomerPhone: "99887766",
	})
	if !IsRequestError(err) {
		t.Fatalf("err = %v, want request error", err)
	}
	if got := err.Error(); got != "Invalid invoice value" {
		t.Fatalf("message = %q", got)
	}
}

func TestMyFatoorahInitiateNonJSONResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>upstream error</html>"))
	}))
	defer server.Close()

	gateway, err := NewMyFatoorahGateway(MyFatoorahConfig{BaseURL: server.URL, APIKey: "k"})
	if err != nil {
		t.Fatalf("NewMyFatoorahGateway: %v", err)
	}

	_, err = gateway.Initiate(context.Background(), InitiationRequest{
		CustomerName:  "Sara",
		CustomerEmail: "sara@example.com",
		CustomerPhone: "99887766",
	})
	if err == nil || IsRequestError(err) {
		t.Fatalf("err = %v, want transport error", err)
	}
}

func TestMyFatoorahPaymentStatus(t *testing.T) {
	invoiceStatus := "Paid"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/GetPaymentStatus" {
			t.Errorf("path = %q", r.URL.Path)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if body["Key"] != "pay-123" || body["KeyType"] != "PaymentId" {
			t.Errorf("lookup body = %v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"IsSuccess": true,
			"Data":      map[string]any{"InvoiceStatus": invoiceStatus},
		})
	}))
	defer server.Close()

	gateway, err := NewMyFatoorahGateway(MyFatoorahConfig{BaseURL: server.URL, APIKey: "k"})
	if err != nil {
		t.Fatalf("NewMyFatoorahGateway: %v", err)
	}

	status, err := gateway.PaymentStatus(context.Background(), "pay-123")
	if err != nil {
		t.Fatalf("PaymentStatus: %v", err)
	}
	if status != StatusPaid {
		t.Fatalf("status = %q, want paid", status)
	}

	invoiceStatus = "Pending"
	status, err = gateway.PaymentStatus(context.Background(), "pay-123")
	if err != nil {
		t.Fatalf("PaymentStatus: %v", err)
	}
	if status != StatusPending {
		t.Fatalf("status = %q, want pending", status)
	}
}

func TestMyFatoorahDisabledWithoutKey(t *testing.T) {
	gateway, err := NewMyFatoorahGateway(MyFatoorahConfig{BaseURL: "https://apitest.myfatoorah.com"})
	if err != nil {
		t.Fatalf("NewMyFatoorahGateway: %v", err)
	}
	if gateway.Enabled() {
		t.Fatalf("gateway should be disabled without an api key")
	}
	if _, err := gateway.Initiate(context.Background(), InitiationRequest{}); err == nil {
		t.Fatalf("Initiate on disabled gateway should fail")
	}
}
