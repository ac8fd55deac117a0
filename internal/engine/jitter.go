package engine

import (
	"math/rand/v2"
	"sync"
)

// Jitter supplies the small symmetric perturbation added to confidence.
// Implementations must be safe for concurrent use.
type Jitter interface {
	Offset() float64
}

// NoJitter leaves confidence untouched. Tests use it to assert exact values.
var NoJitter Jitter = constantJitter(0)

// ConstantJitter always returns offset.
func ConstantJitter(offset float64) Jitter { return constantJitter(offset) }

type constantJitter float64

func (c constantJitter) Offset() float64 { return float64(c) }

// UniformJitter draws from [-magnitude, magnitude] using the process-wide
// generator, which is safe for concurrent use.
func UniformJitter(magnitude float64) Jitter {
	return uniformJitter{magnitude: magnitude}
}

type uniformJitter struct {
	magnitude float64
}

func (u uniformJitter) Offset() float64 {
	return u.magnitude * (2*rand.Float64() - 1)
}

// NewSeededJitter returns a reproducible generator over [-magnitude, magnitude].
func NewSeededJitter(seed uint64, magnitude float64) Jitter {
	return &seededJitter{
		r:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		magnitude: magnitude,
	}
}

type seededJitter struct {
	mu        sync.Mutex
	r         *rand.Rand
	magnitude float64
}

func (s *seededJitter) Offset() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.magnitude * (2*s.r.Float64() - 1)
}
