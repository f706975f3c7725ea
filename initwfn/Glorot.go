package initwfn

import G "gorgonia.org/gorgonia"

// NewGlorotU returns the configuration of a Glorot uniform weight
// initializer
func NewGlorotU(gain float64) Config {
	return Config{Type: GlorotU, Gain: gain}
}

// NewGlorotN returns the configuration of a Glorot normal weight
// initializer
func NewGlorotN(gain float64) Config {
	return Config{Type: GlorotN, Gain: gain}
}

func glorot(c Config) G.InitWFn {
	if c.Type == GlorotN {
		return G.GlorotN(c.Gain)
	}
	return G.GlorotU(c.Gain)
}
