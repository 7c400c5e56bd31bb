package utils

// validator.go - валидация входных данных
//
// Проверки границы API. Возвращают error с описанием проблемы или nil.

import (
	"fmt"
	"strings"
)

// ValidateSymbol проверяет формат внутреннего символа (BTC-USDT-PERP)
//
// Требования: непустой, минимум два dash-компонента,
// компоненты непустые. Регистр не проверяется.
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol is required")
	}

	parts := strings.Split(symbol, "-")
	if len(parts) < 2 {
		return fmt.Errorf("symbol %q must have at least two dash-separated components", symbol)
	}

	for _, p := range parts {
		if p == "" {
			return fmt.Errorf("symbol %q contains an empty component", symbol)
		}
	}

	return nil
}

// ValidateQuantity проверяет объем ордера (> 0)
func ValidateQuantity(quantity float64) error {
	if quantity <= 0 {
		return fmt.Errorf("quantity must be positive, got %v", quantity)
	}
	return nil
}

// ValidatePrice проверяет цену (> 0)
func ValidatePrice(price float64) error {
	if price <= 0 {
		return fmt.Errorf("price must be positive, got %v", price)
	}
	return nil
}

// ValidateLeverage проверяет плечо (>= 1)
func ValidateLeverage(leverage float64) error {
	if leverage < 1 {
		return fmt.Errorf("leverage must be at least 1, got %v", leverage)
	}
	return nil
}
