package delivery

import "farmops/internal/core/numerator"

const (
	// NumeratorStrategy keeps delivery numbers gapless.
	NumeratorStrategy = numerator.StrategyStrict
)
