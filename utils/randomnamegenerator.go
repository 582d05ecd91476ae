package utils

import (
	"math/rand"
	"sync"

	"github.com/Pallinder/go-randomdata"
)

// randomdata draws from one process wide rand
var rngMu sync.Mutex

// RandomNameGenerator hands out unique placeholder names for chunks
// whose name field could not be read. The fixed seed keeps the names
// stable between reloads of the same file.
type RandomNameGenerator struct {
	used map[string]struct{}
}

func (rng *RandomNameGenerator) RandomName() string {
	rngMu.Lock()
	defer rngMu.Unlock()

	if rng.used == nil {
		rng.used = make(map[string]struct{})
		randomdata.CustomRand(rand.New(rand.NewSource(0)))
	}
	for {
		name := randomdata.SillyName()
		if _, exists := rng.used[name]; !exists {
			rng.used[name] = struct{}{}
			return name
		}
	}
}
