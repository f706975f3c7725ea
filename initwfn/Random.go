package initwfn

// NewUniform returns the configuration of a weight initializer drawing
// weights uniformly from [low, high)
func NewUniform(low, high float64) Config {
	return Config{Type: Uniform, Low: low, High: high}
}

// NewGaussian returns the configuration of a weight initializer drawing
// weights from a gaussian distribution
func NewGaussian(mean, stddev float64) Config {
	return Config{Type: Gaussian, Mean: mean, StdDev: stddev}
}
