// Package host defines the capabilities the creature engines need from the
// world they live in. The engines never reach for globals; everything they
// read or mutate outside their own state goes through these interfaces.
package host

// Entity is an opaque handle to a creature or item in the host world.
// The zero value never refers to a live entity.
type Entity uint64

// Vec3 is a world-space position or motion vector. Y is up.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z}
}

// Rand is a uniform random source.
type Rand interface {
	Float64() float64 // [0, 1)
	Intn(n int) int   // [0, n)
}

// DamageKind identifies how damage was dealt.
type DamageKind uint8

const (
	DamageSlashing DamageKind = iota
	DamageStarvation
)

func (k DamageKind) String() string {
	switch k {
	case DamageSlashing:
		return "slashing"
	case DamageStarvation:
		return "starvation"
	}
	return "unknown"
}

// DamageSource describes who dealt damage and how.
type DamageSource struct {
	Kind DamageKind
	By   Entity // 0 when the source is not an entity
}

// Offspring is a spawn request for a newborn creature.
type Offspring struct {
	Code       string
	Parent     Entity
	Pos        Vec3
	Motion     Vec3
	Origin     string
	Generation int
}

// Resource names accepted by World.AdjustResource.
const (
	ResourceSaturation = "saturation"
)

// World is the slice of the host world the engines consume.
type World interface {
	Alive(e Entity) bool
	Code(e Entity) string
	Position(e Entity) Vec3
	Generation(e Entity) int

	// Saturation reports the hunger level of e. ok is false when e has no
	// hunger tracking at all.
	Saturation(e Entity) (value float64, ok bool)
	DoesEat(e Entity) bool

	// FindNearest returns the closest entity to pos within rng (horizontally
	// and vertically) for which match returns true.
	FindNearest(pos Vec3, rng float64, exclude Entity, match func(Entity) bool) (Entity, bool)

	Spawn(o Offspring) (Entity, error)
	SpawnItem(code string, quantity int, pos Vec3) (Entity, error)

	ApplyDamage(target Entity, amount float64, src DamageSource)
	// AdjustResource adds delta to the named resource, flooring at zero.
	AdjustResource(target Entity, name string, delta float64)

	// MarkDirty notifies observers that the named attribute subtree of e changed.
	MarkDirty(e Entity, path string)
}

// Tree is a named-field attribute store. Only the storage boundary
// (State.Read / State.Write in each engine) talks to it.
type Tree interface {
	Has(key string) bool
	GetFloat(key string, def float64) float64
	SetFloat(key string, v float64)
	GetBool(key string, def bool) bool
	SetBool(key string, v bool)
	GetInt(key string, def int) int
	SetInt(key string, v int)
}
