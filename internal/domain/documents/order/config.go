package order

import "farmops/internal/core/numerator"

const (
	// NumeratorStrategy keeps order numbers gapless.
	NumeratorStrategy = numerator.StrategyStrict
)
