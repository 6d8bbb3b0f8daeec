package quote

import (
	"errors"
	"net/http"
	"testing"

	"github.com/noah-isme/pricing-api/internal/common"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(ServiceConfig{DefaultCurrency: "USD", MaxBatchItems: 10})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestQuoteMarginDefaultStrategy(t *testing.T) {
	svc := newTestService(t)
	result, err := svc.Quote(Request{Cost: "2.50", MarkupValue: "3000"})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if result.PriceMinor != "358" {
		t.Fatalf("expected 358 minor units, got %s", result.PriceMinor)
	}
	if result.Price != "3.58" {
		t.Fatalf("expected 3.58, got %s", result.Price)
	}
	if result.Strategy != "margin" || result.Rounding != "identity" {
		t.Fatalf("unexpected defaults: %s/%s", result.Strategy, result.Rounding)
	}
	if result.ID == "" {
		t.Fatal("expected a quote id")
	}
}

func TestQuoteWithRegistryRounding(t *testing.T) {
	svc := newTestService(t)
	result, err := svc.Quote(Request{Cost: "2.50", MarkupValue: "3000", Rounding: "ceil5"})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if result.RawMinor != "358" || result.PriceMinor != "360" {
		t.Fatalf("expected raw 358 rounded to 360, got %s -> %s", result.RawMinor, result.PriceMinor)
	}
}

func TestQuoteCharm99(t *testing.T) {
	svc := newTestService(t)
	result, err := svc.Quote(Request{Cost: "2.50", MarkupValue: "3000", Rounding: "charm99"})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if result.PriceMinor != "399" {
		t.Fatalf("expected 399, got %s", result.PriceMinor)
	}
}

func TestQuoteCashRoundingBindsCurrencyStep(t *testing.T) {
	svc := newTestService(t)
	result, err := svc.Quote(Request{Currency: "CHF", Cost: "2.50", MarkupValue: "3000", Rounding: "cash"})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	// CHF rounds cash to 5 rappen
	if result.PriceMinor != "360" {
		t.Fatalf("expected 360, got %s", result.PriceMinor)
	}
	if result.Rounding != "ceil5" {
		t.Fatalf("expected ceil5, got %s", result.Rounding)
	}
}

func TestQuoteFixedAmountTakesDecimalMarkup(t *testing.T) {
	svc := newTestService(t)
	result, err := svc.Quote(Request{Cost: "5.00", MarkupValue: "5.00", Strategy: "fixedAmount"})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if result.PriceMinor != "1000" {
		t.Fatalf("expected 1000, got %s", result.PriceMinor)
	}
}

func TestQuoteZeroDecimalCurrency(t *testing.T) {
	svc := newTestService(t)
	result, err := svc.Quote(Request{Currency: "JPY", Cost: "1000", Strategy: "keystone"})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if result.PriceMinor != "2000" || result.Price != "2000" {
		t.Fatalf("expected 2000, got %s / %s", result.PriceMinor, result.Price)
	}
}

func TestQuoteErrorMapping(t *testing.T) {
	svc := newTestService(t)
	cases := []struct {
		name   string
		req    Request
		code   string
		status int
	}{
		{"negative cost", Request{Cost: "-1.00"}, "INVALID_COST", http.StatusUnprocessableEntity},
		{"full margin", Request{Cost: "1.00", MarkupValue: "10000"}, "INVALID_MARKUP", http.StatusUnprocessableEntity},
		{"unknown strategy", Request{Cost: "1.00", Strategy: "vibes"}, "UNSUPPORTED_STRATEGY", http.StatusBadRequest},
		{"unknown rounding", Request{Cost: "1.00", Rounding: "bankers"}, "UNSUPPORTED_ROUNDING", http.StatusBadRequest},
		{"unknown currency", Request{Currency: "XXL", Cost: "1.00"}, "UNKNOWN_CURRENCY", http.StatusBadRequest},
		{"bad amount", Request{Cost: "1.005"}, "INVALID_AMOUNT", http.StatusUnprocessableEntity},
		{"bad markup", Request{Cost: "1.00", MarkupValue: "lots"}, "INVALID_MARKUP", http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		_, err := svc.Quote(tc.req)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !common.IsAppError(err) {
			t.Fatalf("%s: expected AppError, got %v", tc.name, err)
		}
		var appErr *common.AppError
		errors.As(err, &appErr)
		if appErr.Code != tc.code || appErr.HTTPStatus != tc.status {
			t.Fatalf("%s: expected %s/%d, got %s/%d", tc.name, tc.code, tc.status, appErr.Code, appErr.HTTPStatus)
		}
	}
}

func TestNewServiceRejectsUnknownDefaultCurrency(t *testing.T) {
	if _, err := NewService(ServiceConfig{DefaultCurrency: "ZZZ"}); err == nil {
		t.Fatal("expected error for unknown default currency")
	}
}
