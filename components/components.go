// Package components defines ECS components for the simulation.
package components

// Identity ties an ECS entity to its stable simulation handle.
type Identity struct {
	ID     uint64
	Code   string
	Origin string // "spawn", "reproduction", "harvest", ...
}

// Lineage tracks generational depth. Offspring are one deeper than their parent.
type Lineage struct {
	Generation int
	Parent     uint64 // 0 for founders
}

// Health holds hit points. A creature at zero HP is dead but keeps its
// entity until the cleanup pass removes it.
type Health struct {
	HP    float64
	MaxHP float64
	Alive bool
}

// Hunger tracks saturation for species that eat. Creatures without this
// component have no hunger at all.
type Hunger struct {
	Saturation    float64
	MaxSaturation float64
	DoesEat       bool
}

// Item is a dropped stack of a collectible resource.
type Item struct {
	Code     string
	Quantity int
}
