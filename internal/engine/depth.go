package engine

import (
	"math/rand"
	"strings"
)

// DepthLevel - один уровень синтетического стакана
type DepthLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// OrderbookDepth - синтетический стакан вокруг референсной цены
//
// Размеры уровней случайны: стакан иллюстративный, ордера против
// него не исполняются.
type OrderbookDepth struct {
	Symbol string       `json:"symbol"`
	Bids   []DepthLevel `json:"bids"`
	Asks   []DepthLevel `json:"asks"`
}

type depthProfile struct {
	levels   int
	tickSize float64
	maxSize  float64
}

// symbolDepthProfile подбирает профиль ликвидности по символу
func symbolDepthProfile(symbol string) depthProfile {
	switch {
	case strings.Contains(symbol, "BTC"):
		// BTC - самая глубокая ликвидность
		return depthProfile{levels: 20, tickSize: 10, maxSize: 50}
	case strings.Contains(symbol, "ETH"):
		return depthProfile{levels: 15, tickSize: 5, maxSize: 30}
	default:
		return depthProfile{levels: 10, tickSize: 1, maxSize: 10}
	}
}

// GenerateOrderbookDepth строит стакан вокруг текущей цены
//
// Bids - строго ниже цены по убыванию, asks - строго выше по
// возрастанию, шаг и глубина зависят от профиля символа.
func GenerateOrderbookDepth(symbol string, currentPrice float64) OrderbookDepth {
	profile := symbolDepthProfile(symbol)

	bids := make([]DepthLevel, 0, profile.levels)
	asks := make([]DepthLevel, 0, profile.levels)
	for i := 0; i < profile.levels; i++ {
		offset := float64(i+1) * profile.tickSize
		bids = append(bids, DepthLevel{
			Price: currentPrice - offset,
			Size:  rand.Float64() * profile.maxSize,
		})
		asks = append(asks, DepthLevel{
			Price: currentPrice + offset,
			Size:  rand.Float64() * profile.maxSize,
		})
	}

	return OrderbookDepth{Symbol: symbol, Bids: bids, Asks: asks}
}
