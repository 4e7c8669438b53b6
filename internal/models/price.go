package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// PriceKind distinguishes numeric, free and unknown prices.
type PriceKind int

// Price kinds.
const (
	PriceUnknown PriceKind = iota
	PriceAmount
	PriceFree
)

const (
	priceFreeLiteral    = "free"
	priceUnknownLiteral = "unknown"
)

// ErrInvalidPrice is returned when a price value cannot be decoded.
var ErrInvalidPrice = errors.New("invalid price")

// Price is a ticket price. Free prices have a zero Amount.
type Price struct {
	Kind   PriceKind
	Amount float64
}

// AmountPrice returns a numeric price.
func AmountPrice(v float64) Price {
	return Price{Kind: PriceAmount, Amount: v}
}

// FreePrice returns a free price.
func FreePrice() Price {
	return Price{Kind: PriceFree}
}

// IsFree reports whether the event is free.
func (p Price) IsFree() bool {
	return p.Kind == PriceFree
}

// String renders the price the way listings write it.
func (p Price) String() string {
	switch p.Kind {
	case PriceAmount:
		return "$" + strconv.FormatFloat(p.Amount, 'f', -1, 64)
	case PriceFree:
		return priceFreeLiteral
	default:
		return priceUnknownLiteral
	}
}

// MarshalJSON encodes a number, "free" or "unknown".
func (p Price) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case PriceAmount:
		return json.Marshal(p.Amount)
	case PriceFree:
		return json.Marshal(priceFreeLiteral)
	default:
		return json.Marshal(priceUnknownLiteral)
	}
}

// UnmarshalJSON decodes the forms written by MarshalJSON.
func (p *Price) UnmarshalJSON(data []byte) error {
	var amount float64
	if err := json.Unmarshal(data, &amount); err == nil {
		*p = AmountPrice(amount)

		return nil
	}

	var literal string
	if err := json.Unmarshal(data, &literal); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPrice, string(data))
	}

	switch literal {
	case priceFreeLiteral:
		*p = FreePrice()
	case priceUnknownLiteral, "":
		*p = Price{}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPrice, literal)
	}

	return nil
}
