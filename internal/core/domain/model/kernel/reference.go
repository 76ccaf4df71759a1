package kernel

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"allocation/internal/pkg/errs"

	"github.com/google/uuid"
)

// MaxIdentifierLength bounds skus and references; both are stored as varchar(255).
const MaxIdentifierLength = 255

// NewReference generates a reference for an order line that arrived without one.
func NewReference() string {
	return uuid.NewString()
}

// ValidateSKU checks that sku is non-blank and fits its column.
func ValidateSKU(sku string) error {
	return validateIdentifier("sku", sku)
}

// ValidateReference checks that reference is non-blank and fits its column.
func ValidateReference(reference string) error {
	return validateIdentifier("reference", reference)
}

// ValidateQuantity checks that a requested or received quantity is positive.
func ValidateQuantity(quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%d is not greater than 0", quantity))
	}
	return nil
}

func validateIdentifier(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return errs.NewValueIsRequiredError(name)
	}
	if n := utf8.RuneCountInString(value); n > MaxIdentifierLength {
		return errs.NewValueIsOutOfRangeError(name+" length", n, 1, MaxIdentifierLength)
	}
	return nil
}
