package media

import (
	"image"
	"math/rand/v2"
	"sort"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/floats"
)

const (
	// PaletteSize is the number of dominant colors extracted per image.
	PaletteSize = 8

	paletteTolerance = 0.0025
	paletteMaxIter   = 100
	paletteSeed      = 0
)

type cluster struct {
	centroid []float64
	count    int
}

// Palette returns the dominant colors of img as comma separated "#rrggbb"
// values, most common first. Callers pass a thumbnail, never a full size
// image.
func Palette(img image.Image) string {
	return strings.Join(DominantColors(img, PaletteSize), ",")
}

// DominantColors clusters the pixels of img in linear RGB with k-means and
// returns k hex colors ordered by population, then by luminance. Fully
// transparent pixels are ignored. An image without opaque pixels has no
// colors.
func DominantColors(img image.Image, k int) []string {
	samples := linearSamples(img)
	if len(samples) == 0 || k < 1 {
		return nil
	}

	clusters := kmeans(samples, k)
	sort.SliceStable(clusters, func(i, j int) bool {
		if clusters[i].count != clusters[j].count {
			return clusters[i].count > clusters[j].count
		}
		return luminance(clusters[i].centroid) > luminance(clusters[j].centroid)
	})

	out := make([]string, len(clusters))
	for i, c := range clusters {
		out[i] = colorful.LinearRgb(c.centroid[0], c.centroid[1], c.centroid[2]).Clamped().Hex()
	}
	return out
}

func linearSamples(img image.Image) [][]float64 {
	b := img.Bounds()
	samples := make([][]float64, 0, b.Dx()*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c, ok := colorful.MakeColor(img.At(x, y))
			if !ok {
				continue
			}
			r, g, bl := c.LinearRgb()
			samples = append(samples, []float64{r, g, bl})
		}
	}
	return samples
}

// kmeans runs one seeded k-means++ clustering of samples. It always returns
// k clusters; with fewer distinct samples than k some centroids repeat.
func kmeans(samples [][]float64, k int) []cluster {
	rng := rand.New(rand.NewPCG(paletteSeed, paletteSeed))
	centroids := seedCentroids(samples, k, rng)

	assign := make([]int, len(samples))
	sums := make([][]float64, k)
	for i := range sums {
		sums[i] = make([]float64, 3)
	}
	counts := make([]int, k)

	for iter := 0; iter < paletteMaxIter; iter++ {
		for i, s := range samples {
			assign[i] = nearest(centroids, s)
		}

		for i := range sums {
			clear(sums[i])
			counts[i] = 0
		}
		for i, s := range samples {
			floats.Add(sums[assign[i]], s)
			counts[assign[i]]++
		}

		shift := 0.0
		for i := range centroids {
			if counts[i] == 0 {
				// empty clusters keep their centroid
				continue
			}
			floats.Scale(1/float64(counts[i]), sums[i])
			shift = max(shift, floats.Distance(centroids[i], sums[i], 2))
			copy(centroids[i], sums[i])
		}
		if shift < paletteTolerance {
			break
		}
	}

	for i, s := range samples {
		assign[i] = nearest(centroids, s)
	}
	clear(counts)
	for _, a := range assign {
		counts[a]++
	}

	out := make([]cluster, k)
	for i := range out {
		out[i] = cluster{centroid: centroids[i], count: counts[i]}
	}
	return out
}

// seedCentroids picks initial centroids with k-means++: each next centroid
// is drawn with probability proportional to its squared distance from the
// closest centroid chosen so far.
func seedCentroids(samples [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, clone(samples[rng.IntN(len(samples))]))

	dist := make([]float64, len(samples))
	for len(centroids) < k {
		for i, s := range samples {
			d := floats.Distance(s, centroids[nearest(centroids, s)], 2)
			dist[i] = d * d
		}

		total := floats.Sum(dist)
		if total == 0 {
			// every sample coincides with a centroid
			centroids = append(centroids, clone(centroids[0]))
			continue
		}

		target := rng.Float64() * total
		pick := len(samples) - 1
		for i, d := range dist {
			target -= d
			if target <= 0 {
				pick = i
				break
			}
		}
		centroids = append(centroids, clone(samples[pick]))
	}
	return centroids
}

func nearest(centroids [][]float64, s []float64) int {
	best, bestDist := 0, -1.0
	for i, c := range centroids {
		d := sqDist(c, s)
		if bestDist < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func sqDist(a, b []float64) float64 {
	dr, dg, db := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return dr*dr + dg*dg + db*db
}

func luminance(c []float64) float64 {
	return 0.2126*c[0] + 0.7152*c[1] + 0.0722*c[2]
}

func clone(v []float64) []float64 {
	return append([]float64(nil), v...)
}
