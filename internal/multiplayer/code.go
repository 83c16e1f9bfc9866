package multiplayer

import (
	"math/rand"
	"regexp"
	"strconv"
	"sync"
	"time"
)

const (
	codeMin = 1000
	codeMax = 9999
)

var codePattern = regexp.MustCompile(`^[1-9][0-9]{3}$`)

// ValidCode reports whether code is a four digit room code.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// CodeGenerator produces room codes uniformly from 1000-9999.
type CodeGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewCodeGenerator creates a generator. A zero seed uses the clock.
func NewCodeGenerator(seed int64) *CodeGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &CodeGenerator{
		rng: rand.New(rand.NewSource(seed)), //nolint:gosec // room codes are not secrets
	}
}

// Next returns a fresh code.
func (g *CodeGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return strconv.Itoa(codeMin + g.rng.Intn(codeMax-codeMin+1))
}
