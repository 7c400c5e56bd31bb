package utils

// math.go - математические утилиты для симуляции исполнения
//
// Все функции являются чистыми (pure functions) без побочных эффектов.
//
// Функции:
// - ApplySlippage: цена исполнения market ордера с проскальзыванием
// - CalculateWeightedAverage: средневзвешенная цена исполнения (VWAP)
// - Clamp: ограничение значения диапазоном

// ApplySlippage возвращает цену исполнения market ордера.
//
// Проскальзывание задается в базисных пунктах (1 bps = 0.01%):
//
//	fill = price + price*bps/10000  (buy - исполнение хуже, дороже)
//	fill = price - price*bps/10000  (sell - исполнение хуже, дешевле)
//
// Параметры:
//   - price: референсная цена
//   - slippageBps: проскальзывание в bps
//   - isBuy: направление ордера
//
// Примеры:
//   - ApplySlippage(100000, 10, true)  = 100100
//   - ApplySlippage(100000, 10, false) = 99900
func ApplySlippage(price, slippageBps float64, isBuy bool) float64 {
	slippage := price * slippageBps / 10000
	if isBuy {
		return price + slippage
	}
	return price - slippage
}

// CalculateWeightedAverage вычисляет средневзвешенное значение.
//
// Используется для средневзвешенной цены исполнения:
// values = цены fills, weights = объемы fills.
//
// Возвращает 0 если суммарный вес нулевой или длины не совпадают.
func CalculateWeightedAverage(values, weights []float64) float64 {
	if len(values) == 0 || len(values) != len(weights) {
		return 0
	}

	var weightedSum, totalWeight float64
	for i, v := range values {
		weightedSum += v * weights[i]
		totalWeight += weights[i]
	}

	if totalWeight == 0 {
		return 0
	}
	return weightedSum / totalWeight
}

// Clamp ограничивает значение диапазоном [min, max]
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
