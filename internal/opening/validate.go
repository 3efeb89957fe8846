package opening

import (
	"fmt"
)

// ValidationError rejects a write before it is dispatched.
type ValidationError struct {
	Field       string
	Description string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid opening balance %s: %s", e.Field, e.Description)
}

// Validate checks a write request.
func Validate(req WriteRequest) error {
	if err := req.Scope.Validate(); err != nil {
		return &ValidationError{Field: "account", Description: err.Error()}
	}
	if req.Scope.IsAll() {
		return &ValidationError{Field: "account", Description: "all accounts has no opening balance"}
	}
	if req.Year < 1 {
		return &ValidationError{Field: "year", Description: fmt.Sprintf("must be >= 1, got %d", req.Year)}
	}
	if !req.Side.Valid() {
		return &ValidationError{Field: "side", Description: fmt.Sprintf("must be debit or credit, got %q", req.Side)}
	}
	if !req.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Description: fmt.Sprintf("must be > 0, got %s", req.Amount)}
	}
	if req.Amount.Exponent() < -2 && !req.Amount.Equal(req.Amount.Round(2)) {
		return &ValidationError{Field: "amount", Description: "more than 2 decimal places"}
	}
	return nil
}
