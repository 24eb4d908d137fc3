// Package payment models tender types, split settlement and the upstream
// checkout-session provider.
package payment

import (
	"fmt"
	"strings"
)

// Method is the tender used to settle an order.
type Method string

const (
	MethodCash  Method = "cash"
	MethodUPI   Method = "upi"
	MethodCard  Method = "card"
	MethodSplit Method = "split"
)

// ParseMethod normalises and validates a tender string.
func ParseMethod(value string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(value)))
	if !m.IsValid() {
		return "", fmt.Errorf("unknown payment method %q", value)
	}
	return m, nil
}

// IsValid reports whether the method is a known tender.
func (m Method) IsValid() bool {
	switch m {
	case MethodCash, MethodUPI, MethodCard, MethodSplit:
		return true
	}
	return false
}

// AllowedInStore reports whether the tender can settle a counter sale.
// Everything is accepted at the counter.
func (m Method) AllowedInStore() bool {
	return m.IsValid()
}

// AllowedOnline reports whether the tender can settle an online order.
// Cash and split settlement require a counter.
func (m Method) AllowedOnline() bool {
	switch m {
	case MethodUPI, MethodCard:
		return true
	}
	return false
}

// RequiresProvider reports whether the tender needs an upstream checkout session.
func (m Method) RequiresProvider() bool {
	return m == MethodCard
}
