package quote

import (
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/noah-isme/pricing-api/internal/common"
	"github.com/noah-isme/pricing-api/internal/currency"
	"github.com/noah-isme/pricing-api/internal/pricing"
)

// roundingCash resolves to a ceil-step rule bound to the currency's cash
// granularity instead of a fixed registry entry.
const roundingCash = "cash"

// Request describes a single price derivation.
type Request struct {
	// Currency selects the ISO 4217 descriptor used to convert Cost.
	// Empty means the service default.
	Currency string `json:"currency" validate:"omitempty,alphanum,len=3"`
	// Cost is a decimal amount in major units, e.g. "2.50".
	Cost string `json:"cost" validate:"required"`
	// MarkupValue is strategy dependent: basis points for percentage
	// strategies, a decimal amount for fixedAmount, ignored for keystone.
	MarkupValue string `json:"markup_value"`
	// Strategy defaults to margin.
	Strategy string `json:"strategy"`
	// Rounding defaults to identity. "cash" binds the currency's cash step.
	Rounding string `json:"rounding"`
}

// Result is the outcome of a quote computation. ID is assigned per call so
// batch consumers can correlate log lines with individual items.
type Result struct {
	ID         string `json:"id"`
	Currency   string `json:"currency"`
	Strategy   string `json:"strategy"`
	Rounding   string `json:"rounding"`
	CostMinor  string `json:"cost_minor"`
	RawMinor   string `json:"raw_minor"`
	PriceMinor string `json:"price_minor"`
	Price      string `json:"price"`
}

// ServiceConfig configures a quote Service.
type ServiceConfig struct {
	Validate        *validator.Validate
	DefaultCurrency string
	MaxBatchItems   int
}

// Service turns quote requests into engine calls. It owns no state beyond
// its configuration and is safe for concurrent use.
type Service struct {
	validate        *validator.Validate
	defaultCurrency string
	maxBatchItems   int
}

// NewService constructs a Service, validating the configured default currency.
func NewService(cfg ServiceConfig) (*Service, error) {
	v := cfg.Validate
	if v == nil {
		v = validator.New()
	}
	code := strings.TrimSpace(cfg.DefaultCurrency)
	if code == "" {
		code = "USD"
	}
	if _, err := currency.Parse(code); err != nil {
		return nil, fmt.Errorf("default currency: %w", err)
	}
	maxItems := cfg.MaxBatchItems
	if maxItems <= 0 {
		maxItems = 100
	}
	return &Service{validate: v, defaultCurrency: code, maxBatchItems: maxItems}, nil
}

// MaxBatchItems returns the configured batch ceiling.
func (s *Service) MaxBatchItems() int { return s.maxBatchItems }

// Quote validates the request, converts the decimal cost to smallest units,
// runs the engine, and renders the result back in the request currency.
func (s *Service) Quote(req Request) (Result, error) {
	if err := s.validate.Struct(req); err != nil {
		return Result{}, common.NewAppError("VALIDATION", "invalid quote request", http.StatusBadRequest, err).
			WithDetails(validationDetails(err))
	}

	code := strings.TrimSpace(req.Currency)
	if code == "" {
		code = s.defaultCurrency
	}
	cur, err := currency.Parse(code)
	if err != nil {
		return Result{}, asAppError(err)
	}

	cost, err := cur.MinorUnits(req.Cost)
	if err != nil {
		return Result{}, asAppError(err)
	}

	strategy, markup, err := s.resolveStrategy(req, cur)
	if err != nil {
		return Result{}, err
	}
	round, err := resolveRounding(req.Rounding, cur)
	if err != nil {
		return Result{}, asAppError(err)
	}

	// Compute the raw price with identity rounding first so the response can
	// expose the pre-rounding value alongside the final one.
	raw, err := pricing.Calculate(cost, markup, strategy, pricing.Identity())
	if err != nil {
		return Result{}, asAppError(err)
	}
	price := round.Apply(raw)

	return Result{
		ID:         uuid.NewString(),
		Currency:   cur.Code,
		Strategy:   strategy.String(),
		Rounding:   round.String(),
		CostMinor:  cost.String(),
		RawMinor:   raw.String(),
		PriceMinor: price.String(),
		Price:      cur.FormatMinor(price),
	}, nil
}

func (s *Service) resolveStrategy(req Request, cur currency.Currency) (pricing.Strategy, *big.Int, error) {
	name := strings.TrimSpace(req.Strategy)
	if name == "" {
		name = pricing.StrategyMargin.String()
	}
	strategy, err := pricing.ParseStrategy(name)
	if err != nil {
		return 0, nil, asAppError(err)
	}

	text := strings.TrimSpace(req.MarkupValue)
	if text == "" {
		text = "0"
	}
	if strategy == pricing.StrategyFixedAmount {
		// For fixedAmount the markup is itself a monetary amount and is
		// accepted in major units like the cost.
		amount, err := cur.MinorUnits(text)
		if err != nil {
			return 0, nil, asAppError(err)
		}
		return strategy, amount, nil
	}
	markup, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return 0, nil, common.NewAppError("INVALID_MARKUP", fmt.Sprintf("markup_value %q is not an integer", req.MarkupValue), http.StatusUnprocessableEntity, pricing.ErrInvalidMarkup)
	}
	return strategy, markup, nil
}

func resolveRounding(name string, cur currency.Currency) (pricing.Rounding, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return pricing.Identity(), nil
	}
	if trimmed == roundingCash {
		return pricing.CeilStep(cur.CashStep), nil
	}
	return pricing.ParseRounding(trimmed)
}

func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}

// asAppError maps engine and currency failures onto the HTTP error envelope.
// Validation failures are client errors; nothing in the engine is retryable.
func asAppError(err error) *common.AppError {
	switch {
	case errors.Is(err, pricing.ErrInvalidCost):
		return common.NewAppError("INVALID_COST", err.Error(), http.StatusUnprocessableEntity, err)
	case errors.Is(err, pricing.ErrInvalidMarkup):
		return common.NewAppError("INVALID_MARKUP", err.Error(), http.StatusUnprocessableEntity, err)
	case errors.Is(err, pricing.ErrUnsupportedStrategy):
		return common.NewAppError("UNSUPPORTED_STRATEGY", err.Error(), http.StatusBadRequest, err)
	case errors.Is(err, pricing.ErrUnsupportedRounding):
		return common.NewAppError("UNSUPPORTED_ROUNDING", err.Error(), http.StatusBadRequest, err)
	case errors.Is(err, currency.ErrUnknownCurrency):
		return common.NewAppError("UNKNOWN_CURRENCY", err.Error(), http.StatusBadRequest, err)
	case errors.Is(err, currency.ErrInvalidAmount):
		return common.NewAppError("INVALID_AMOUNT", err.Error(), http.StatusUnprocessableEntity, err)
	default:
		return common.NewAppError("INTERNAL", "quote computation failed", http.StatusInternalServerError, err)
	}
}
