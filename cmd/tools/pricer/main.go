package main

import (
	"flag"
	"fmt"
	"log"
	"math/big"
	"strings"

	"github.com/noah-isme/pricing-api/internal/currency"
	"github.com/noah-isme/pricing-api/internal/pricing"
)

func main() {
	var (
		costFlag     = flag.String("cost", "", "cost in major units, e.g. 2.50 (required)")
		markupFlag   = flag.String("markup", "0", "markup value: basis points, or major units for fixedAmount")
		strategyFlag = flag.String("strategy", "margin", "pricing strategy: "+strings.Join(pricing.StrategyNames(), ", "))
		roundingFlag = flag.String("rounding", "identity", "rounding rule: "+strings.Join(pricing.RoundingNames(), ", ")+", cash")
		currencyFlag = flag.String("currency", "USD", "ISO 4217 currency code")
	)
	flag.Parse()

	if *costFlag == "" {
		flag.Usage()
		log.Fatal("missing -cost")
	}

	cur, err := currency.Parse(*currencyFlag)
	if err != nil {
		log.Fatalf("currency: %v", err)
	}

	cost, err := cur.MinorUnits(*costFlag)
	if err != nil {
		log.Fatalf("cost: %v", err)
	}

	strategy, err := pricing.ParseStrategy(*strategyFlag)
	if err != nil {
		log.Fatalf("strategy: %v", err)
	}

	markup, err := parseMarkup(*markupFlag, strategy, cur)
	if err != nil {
		log.Fatalf("markup: %v", err)
	}

	round, err := parseRounding(*roundingFlag, cur)
	if err != nil {
		log.Fatalf("rounding: %v", err)
	}

	price, err := pricing.Calculate(cost, markup, strategy, round)
	if err != nil {
		log.Fatalf("calculate: %v", err)
	}

	fmt.Printf("%s %s (%s smallest units)\n", cur.Code, cur.FormatMinor(price), price)
}

func parseMarkup(value string, strategy pricing.Strategy, cur currency.Currency) (*big.Int, error) {
	if strategy == pricing.StrategyFixedAmount {
		return cur.MinorUnits(value)
	}
	m, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("%q is not an integer", value)
	}
	return m, nil
}

func parseRounding(name string, cur currency.Currency) (pricing.Rounding, error) {
	if name == "cash" {
		return pricing.CeilStep(cur.CashStep), nil
	}
	return pricing.ParseRounding(name)
}
