package money

import (
	"encoding/json"
	"fmt"
)

// MoneyJSON represents the JSON format for Money.
// Uses atomic units (kobo) for precision:
//
//	{"asset":"NGN", "atomic":"1500000"}
type MoneyJSON struct {
	Asset  string `json:"asset"`  // Asset code, always "NGN"
	Atomic string `json:"atomic"` // Atomic units (kobo) as string
}

// MarshalJSON implements json.Marshaler for Money.
// Outputs atomic-only JSON:
//
//	{
//	  "asset": "NGN",
//	  "atomic": "1050"
//	}
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(MoneyJSON{
		Asset:  m.Asset.Code,
		Atomic: m.ToAtomic(),
	})
}

// UnmarshalJSON implements json.Unmarshaler for Money.
// Accepts atomic format only:
//   - {"asset":"NGN", "atomic":"150000"}  → Money{NGN, 150000}
//
// The asset field is accepted for wire compatibility but the platform
// only settles in NGN; a mismatched code is rejected.
func (m *Money) UnmarshalJSON(data []byte) error {
	var mj MoneyJSON
	if err := json.Unmarshal(data, &mj); err != nil {
		return fmt.Errorf("money: invalid JSON: %w", err)
	}

	if mj.Atomic == "" {
		return fmt.Errorf("money: 'atomic' field required")
	}
	if mj.Asset != "" && mj.Asset != NGN.Code {
		return fmt.Errorf("money: unsupported asset %q, only %s is settled", mj.Asset, NGN.Code)
	}

	parsed, err := FromAtomic(NGN, mj.Atomic)
	if err != nil {
		return err
	}

	*m = parsed
	return nil
}

// MoneyRequest is a helper type for API request parsing.
// Use this in request structs for clearer intent.
//
// Example:
//
//	type PaymentRequest struct {
//	    Amount MoneyRequest `json:"amount"`
//	}
type MoneyRequest Money

// MarshalJSON for MoneyRequest uses the same atomic-only format as Money.
func (mr MoneyRequest) MarshalJSON() ([]byte, error) {
	return Money(mr).MarshalJSON()
}

// UnmarshalJSON for MoneyRequest uses the same parsing as Money.
func (mr *MoneyRequest) UnmarshalJSON(data []byte) error {
	return (*Money)(mr).UnmarshalJSON(data)
}

// ToMoney converts MoneyRequest to Money.
func (mr MoneyRequest) ToMoney() Money {
	return Money(mr)
}

// MoneyResponse is a helper type for API response formatting.
// Use this in response structs for clearer intent.
//
// Example:
//
//	type QuoteResponse struct {
//	    Total MoneyResponse `json:"total"`
//	}
type MoneyResponse Money

// MarshalJSON for MoneyResponse uses the same atomic-only format as Money.
func (mr MoneyResponse) MarshalJSON() ([]byte, error) {
	return Money(mr).MarshalJSON()
}

// UnmarshalJSON for MoneyResponse uses the same parsing as Money.
func (mr *MoneyResponse) UnmarshalJSON(data []byte) error {
	return (*Money)(mr).UnmarshalJSON(data)
}

// ToMoney converts MoneyResponse to Money.
func (mr MoneyResponse) ToMoney() Money {
	return Money(mr)
}

// FromMoney creates a MoneyResponse from Money.
func FromMoney(m Money) MoneyResponse {
	return MoneyResponse(m)
}
