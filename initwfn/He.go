package initwfn

import G "gorgonia.org/gorgonia"

// NewHeU returns the configuration of a He uniform weight initializer
func NewHeU(gain float64) Config {
	return Config{Type: HeU, Gain: gain}
}

// NewHeN returns the configuration of a He normal weight initializer
func NewHeN(gain float64) Config {
	return Config{Type: HeN, Gain: gain}
}

func he(c Config) G.InitWFn {
	if c.Type == HeN {
		return G.HeN(c.Gain)
	}
	return G.HeU(c.Gain)
}
