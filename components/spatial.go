package components

// Position represents an entity's world position. Y is up.
type Position struct {
	X, Y, Z float64
}

// Velocity represents an entity's motion in world units per second.
// Horizontal motion decays with drag; Y is unused on flat ground.
type Velocity struct {
	X, Y, Z float64
}
