package FE2D

// Function is a vector valued function of space and time
type Function interface {
	NComponents() int
	// Value writes all components at point p and time t into values
	Value(p [2]float64, t float64, values []float64)
}

type ZeroFunction struct {
	N int
}

func (zf ZeroFunction) NComponents() int { return zf.N }

func (zf ZeroFunction) Value(p [2]float64, t float64, values []float64) {
	for i := range values {
		values[i] = 0
	}
}
