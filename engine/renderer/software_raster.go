package renderer

import (
	"math"
	"sync"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-shadow/engine/renderer/pass"
	"github.com/go-gl/mathgl/mgl32"
)

// clipVertex is a shaded vertex in clip space.
type clipVertex struct {
	clip     mgl32.Vec4
	varyings []float32
}

// screenTriangle is a triangle after the perspective divide, ready for scan conversion.
type screenTriangle struct {
	x, y [3]float32
	z    [3]float32
	invW [3]float32

	// varyings pre-multiplied by 1/w for perspective-correct interpolation
	varyings [3][]float32

	area                   float32
	minX, maxX, minY, maxY int
}

// rasterJob is one draw call as the band workers see it.
type rasterJob struct {
	triangles []screenTriangle
	output    *softwareTarget
	depthTest bool
	depthOn   bool
	shade     func(f fragmentInput) mgl32.Vec4
	varyings  int
}

// lerpVertex interpolates two clip vertices.
func lerpVertex(a, b clipVertex, t float32) clipVertex {
	v := clipVertex{clip: a.clip.Add(b.clip.Sub(a.clip).Mul(t))}
	if len(a.varyings) > 0 {
		v.varyings = make([]float32, len(a.varyings))
		for i := range a.varyings {
			v.varyings[i] = a.varyings[i] + (b.varyings[i]-a.varyings[i])*t
		}
	}
	return v
}

// clipPolygon clips a convex polygon against the plane dist(v) >= 0.
func clipPolygon(poly []clipVertex, dist func(mgl32.Vec4) float32) []clipVertex {
	if len(poly) == 0 {
		return nil
	}
	out := make([]clipVertex, 0, len(poly)+1)
	for i := range poly {
		cur, next := poly[i], poly[(i+1)%len(poly)]
		dc, dn := dist(cur.clip), dist(next.clip)
		if dc >= 0 {
			out = append(out, cur)
		}
		if (dc >= 0) != (dn >= 0) {
			out = append(out, lerpVertex(cur, next, dc/(dc-dn)))
		}
	}
	return out
}

// clipToDepthRange clips a triangle against the near (z >= 0) and far (z <= w) planes.
func clipToDepthRange(a, b, c clipVertex) []clipVertex {
	poly := []clipVertex{a, b, c}
	poly = clipPolygon(poly, func(v mgl32.Vec4) float32 { return v[2] })
	return clipPolygon(poly, func(v mgl32.Vec4) float32 { return v[3] - v[2] })
}

// setupTriangle projects a clipped triangle to the output's pixel grid and applies face
// culling. Counter-clockwise in normalized device coordinates is the front face.
//
// Parameters:
//   - v: the three clip-space vertices
//   - width: the output width in pixels
//   - height: the output height in pixels
//   - cull: the face culling mode
//
// Returns:
//   - screenTriangle: the triangle in pixel space
//   - bool: false if the triangle is culled, degenerate or fully off screen
func setupTriangle(v [3]clipVertex, width, height int, cull pass.CullMode) (screenTriangle, bool) {
	var t screenTriangle
	var ndcX, ndcY [3]float32
	for i := range v {
		w := v[i].clip[3]
		if w <= 1e-7 {
			return t, false
		}
		t.invW[i] = 1 / w
		ndcX[i] = v[i].clip[0] * t.invW[i]
		ndcY[i] = v[i].clip[1] * t.invW[i]
		t.z[i] = v[i].clip[2] * t.invW[i]
		t.x[i] = (ndcX[i]*0.5 + 0.5) * float32(width)
		t.y[i] = (0.5 - ndcY[i]*0.5) * float32(height)
		t.varyings[i] = make([]float32, len(v[i].varyings))
		for k, val := range v[i].varyings {
			t.varyings[i][k] = val * t.invW[i]
		}
	}

	ndcArea := (ndcX[1]-ndcX[0])*(ndcY[2]-ndcY[0]) - (ndcY[1]-ndcY[0])*(ndcX[2]-ndcX[0])
	switch {
	case ndcArea == 0:
		return t, false
	case cull == pass.CullBack && ndcArea < 0:
		return t, false
	case cull == pass.CullFront && ndcArea > 0:
		return t, false
	}

	t.area = edge(t.x[0], t.y[0], t.x[1], t.y[1], t.x[2], t.y[2])
	t.minX = max(0, int(math.Floor(float64(min(t.x[0], t.x[1], t.x[2])))))
	t.maxX = min(width-1, int(math.Ceil(float64(max(t.x[0], t.x[1], t.x[2])))))
	t.minY = max(0, int(math.Floor(float64(min(t.y[0], t.y[1], t.y[2])))))
	t.maxY = min(height-1, int(math.Ceil(float64(max(t.y[0], t.y[1], t.y[2])))))
	return t, t.minX <= t.maxX && t.minY <= t.maxY
}

// edge is twice the signed area of (a, b, p).
func edge(ax, ay, bx, by, px, py float32) float32 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

// rasterizeRows scan-converts every triangle of a job over rows [y0, y1). Triangles are
// visited in submission order, so each pixel sees the same sequence of writes whichever
// band owns it.
func rasterizeRows(job *rasterJob, y0, y1 int) {
	out := job.output
	width := out.Width()
	varyings := make([]float32, job.varyings)
	for ti := range job.triangles {
		t := &job.triangles[ti]
		rowStart, rowEnd := max(y0, t.minY), min(y1-1, t.maxY)
		for y := rowStart; y <= rowEnd; y++ {
			py := float32(y) + 0.5
			for x := t.minX; x <= t.maxX; x++ {
				px := float32(x) + 0.5
				w0 := edge(t.x[1], t.y[1], t.x[2], t.y[2], px, py) / t.area
				w1 := edge(t.x[2], t.y[2], t.x[0], t.y[0], px, py) / t.area
				w2 := edge(t.x[0], t.y[0], t.x[1], t.y[1], px, py) / t.area
				if w0 < 0 || w1 < 0 || w2 < 0 {
					continue
				}

				z := w0*t.z[0] + w1*t.z[1] + w2*t.z[2]
				idx := y*width + x
				if job.depthOn && job.depthTest && !(z < out.depth[idx]) {
					continue
				}

				invW := w0*t.invW[0] + w1*t.invW[1] + w2*t.invW[2]
				for k := range varyings {
					varyings[k] = (w0*t.varyings[0][k] + w1*t.varyings[1][k] + w2*t.varyings[2][k]) / invW
				}

				c := job.shade(fragmentInput{varyings: varyings, depth: z})
				copy(out.color[idx*4:idx*4+4], c[:])
				if job.depthOn && job.depthTest {
					out.depth[idx] = z
				}
			}
		}
	}
}

// runBands splits the output rows into one band per worker and rasterizes the bands on the
// pool, returning once every band is done.
//
// Parameters:
//   - pool: the worker pool
//   - bands: the number of bands
//   - job: the draw to rasterize
func runBands(pool worker.DynamicWorkerPool, bands int, job *rasterJob) {
	height := job.output.Height()
	bands = max(1, min(bands, height))
	if bands == 1 || pool == nil {
		rasterizeRows(job, 0, height)
		return
	}

	rows := (height + bands - 1) / bands
	var wg sync.WaitGroup
	for id := 0; id*rows < height; id++ {
		y0, y1 := id*rows, min(height, (id+1)*rows)
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				rasterizeRows(job, y0, y1)
				return nil, nil
			},
		})
	}
	wg.Wait()
}
