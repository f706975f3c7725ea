package initwfn

import G "gorgonia.org/gorgonia"

// NewZeroes returns the configuration of a weight initializer that sets
// all weights to 0
func NewZeroes() Config {
	return Config{Type: Zeroes}
}

// NewOnes returns the configuration of a weight initializer that sets
// all weights to 1
func NewOnes() Config {
	return Config{Type: Ones}
}

// NewConstant returns the configuration of a weight initializer that
// sets all weights to value
func NewConstant(value float64) Config {
	return Config{Type: Constant, Value: value}
}

func constant(c Config) G.InitWFn {
	switch c.Type {
	case Zeroes:
		return G.Zeroes()
	case Ones:
		return G.Ones()
	default:
		return G.ValuesOf(c.Value)
	}
}
