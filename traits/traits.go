// Package traits defines per-species behaviours.
package traits

import (
	"fmt"
	"strings"
)

// Trait defines creature behaviour.
type Trait uint32

const (
	Multiply Trait = 1 << iota // Conceives and gives birth
	Wool                       // Grows harvestable wool
	Eats                       // Grazes to regain saturation
	Matures                    // Grows into an adult code
)

var traitNames = []struct {
	t    Trait
	name string
}{
	{Multiply, "multiply"},
	{Wool, "wool"},
	{Eats, "eats"},
	{Matures, "matures"},
}

// Has checks if a trait set contains a trait.
func (t Trait) Has(other Trait) bool {
	return t&other != 0
}

// Add adds a trait to the set.
func (t Trait) Add(other Trait) Trait {
	return t | other
}

// Remove removes a trait from the set.
func (t Trait) Remove(other Trait) Trait {
	return t &^ other
}

// String lists the set's behaviour names joined by '|'.
func (t Trait) String() string {
	var names []string
	for _, tn := range traitNames {
		if t.Has(tn.t) {
			names = append(names, tn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Parse builds a trait set from behaviour names. Names are case-insensitive.
func Parse(names []string) (Trait, error) {
	var t Trait
	for _, n := range names {
		found := false
		for _, tn := range traitNames {
			if strings.EqualFold(n, tn.name) {
				t = t.Add(tn.t)
				found = true
				break
			}
		}
		if !found {
			return t, fmt.Errorf("unknown behaviour %q", n)
		}
	}
	return t, nil
}
