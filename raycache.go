package raymarch

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/raymarch/cache"
)

// rayKey identifies a ray table. Two frames with the same camera,
// resolution and step size march exactly the same primary rays.
type rayKey struct {
	cam      Camera
	n        int
	stepSize float32
}

func hashRayKey(k rayKey) uint64 {
	return cache.Float32Hasher(
		k.cam.Position[0], k.cam.Position[1], k.cam.Position[2],
		k.cam.Focal[0], k.cam.Focal[1], k.cam.Focal[2],
		k.cam.ScreenRatio, float32(k.n), k.stepSize,
	)
}

// rayTable holds the primary ray of every pixel of a frame, row-major.
// Tables are shared between frames and never modified after build.
type rayTable struct {
	origins []mgl32.Vec3
	steps   []mgl32.Vec3
	ok      []bool
}

func buildRayTable(k rayKey) *rayTable {
	count := k.n * k.n
	t := &rayTable{
		origins: make([]mgl32.Vec3, count),
		steps:   make([]mgl32.Vec3, count),
		ok:      make([]bool, count),
	}
	for y := 0; y < k.n; y++ {
		for x := 0; x < k.n; x++ {
			i := y*k.n + x
			t.origins[i], t.steps[i], t.ok[i] = primaryRay(x, y, k.cam, k.n, k.stepSize)
		}
	}
	return t
}

// rayCache memoizes ray tables. A nil *rayCache builds every table afresh.
type rayCache struct {
	tables *cache.ShardedCache[rayKey, *rayTable]
}

func newRayCache(capacity int) *rayCache {
	if capacity <= 0 {
		return nil
	}
	return &rayCache{tables: cache.NewSharded[rayKey, *rayTable](capacity, hashRayKey)}
}

func (c *rayCache) table(k rayKey) *rayTable {
	if c == nil {
		return buildRayTable(k)
	}
	return c.tables.GetOrCreate(k, func() *rayTable {
		Logger().Debug("raymarch: building ray table", "n", k.n, "step", k.stepSize)
		return buildRayTable(k)
	})
}

func (c *rayCache) stats() cache.Stats {
	if c == nil {
		return cache.Stats{}
	}
	return c.tables.Stats()
}

func (c *rayCache) clear() {
	if c != nil {
		c.tables.Clear()
	}
}
