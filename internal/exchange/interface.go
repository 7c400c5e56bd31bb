package exchange

import (
	"context"
	"fmt"
)

// PriceSource - внешний источник референсных цен
//
// Реализации обязаны уважать контекст: подвисший источник
// не должен блокировать резолюцию ордера дольше таймаута.
type PriceSource interface {
	// GetPrice возвращает текущую цену для символа во внутреннем
	// формате (BTC-USDT-PERP). Конвертация в формат источника -
	// забота реализации.
	GetPrice(ctx context.Context, symbol string) (float64, error)

	// Name возвращает имя источника (для логов и метрик)
	Name() string
}

// SourceError представляет ошибку внешнего источника цен
type SourceError struct {
	Source  string
	Code    string
	Message string
	Err     error
}

func (e *SourceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: [%s] %s", e.Source, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Message)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}
