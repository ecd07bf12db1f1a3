package raymarch

import "github.com/go-gl/mathgl/mgl32"

// Domain bounds of the volume on every axis. The lower bound is inside the
// domain, the upper bound is outside.
const (
	DomainMin float32 = -1
	DomainMax float32 = 1
)

// UnitsPerPixel returns the side length of one grid cell in domain units
// for a grid of side n.
func UnitsPerPixel(n int) float32 {
	return (DomainMax - DomainMin) / float32(n)
}

// InDomain reports whether p lies in the half-open cube [-1, 1)³.
// NaN components are never in the domain.
func InDomain(p mgl32.Vec3) bool {
	return inRange(p[0]) && inRange(p[1]) && inRange(p[2])
}

func inRange(v float32) bool {
	return v >= DomainMin && v < DomainMax
}
