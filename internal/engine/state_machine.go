package engine

import "matchengine/internal/models"

// ValidTransitions определяет допустимые переходы между статусами ордера
//
// Переходы внутри одного ордера строго упорядочены: pending наблюдаем
// раньше matched/failed, matched раньше settling. Между разными
// ордерами порядок не гарантируется.
var ValidTransitions = map[string][]string{
	models.OrderStatusPending:  {models.OrderStatusMatched, models.OrderStatusFailed, models.OrderStatusCancelled},
	models.OrderStatusMatched:  {models.OrderStatusSettling},
	models.OrderStatusSettling: {models.OrderStatusSettled},
	// settled, failed, cancelled - терминальные
	models.OrderStatusSettled:   {},
	models.OrderStatusFailed:    {},
	models.OrderStatusCancelled: {},
}

// CanTransition проверяет допустимость перехода
func CanTransition(from, to string) bool {
	allowed, ok := ValidTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// StateInfo возвращает описание статуса для UI
func StateInfo(s string) string {
	switch s {
	case models.OrderStatusPending:
		return "Ордер ожидает матчинга"
	case models.OrderStatusMatched:
		return "Ордер исполнен"
	case models.OrderStatusSettling:
		return "Сделка отправлена на расчет"
	case models.OrderStatusSettled:
		return "Расчет завершен"
	case models.OrderStatusFailed:
		return "Ордер отклонен"
	case models.OrderStatusCancelled:
		return "Ордер отменен"
	default:
		return "Неизвестный статус"
	}
}

// IsOpen возвращает true если ордер еще может получить fill
func IsOpen(s string) bool {
	return s == models.OrderStatusPending
}
