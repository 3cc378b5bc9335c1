package simulation

import "math/rand/v2"

// randSource es la fuente de aleatoriedad inyectable del pipeline.
type randSource = rand.Rand

// NewRand construye una fuente de aleatoriedad reproducible. Cada unidad
// concurrente del pipeline recibe su propio stream derivado de la semilla
// superior, así el resultado no depende del orden de ejecución.
func NewRand(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}

// weightedIndex hace una selección discreta ponderada por acumulación.
// Pesos no positivos cuentan como 0; si todos son 0 se cae a uniforme.
func weightedIndex(rng *rand.Rand, weights []float64) int {
	if len(weights) == 0 {
		return 0
	}
	var total float64
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		return rng.IntN(len(weights))
	}
	r := rng.Float64() * total
	var cumulative float64
	for i, w := range weights {
		if w > 0 {
			cumulative += w
		}
		if r <= cumulative {
			return i
		}
	}
	return len(weights) - 1
}

// weightedOption elige el valor de una distribución categórica ponderada.
// Sin pesos declarados la selección es uniforme sobre los defaults dados.
func weightedOption(rng *rand.Rand, options []string, weights []float64) string {
	if len(options) == 0 {
		return ""
	}
	if len(weights) != len(options) {
		return options[rng.IntN(len(options))]
	}
	return options[weightedIndex(rng, weights)]
}

// normalInRange muestrea una normal acotada: media en el punto medio del
// rango, desviación rango/6, redondeada y recortada al rango.
func normalInRange(rng *rand.Rand, min, max int) int {
	if max <= min {
		return min
	}
	mean := float64(min+max) / 2
	stdDev := float64(max-min) / 6
	value := mean + rng.NormFloat64()*stdDev
	return clampInt(int(value+0.5), min, max)
}

// uniformInRange muestrea un entero uniforme en [min, max].
func uniformInRange(rng *rand.Rand, min, max int) int {
	if max <= min {
		return min
	}
	return min + rng.IntN(max-min+1)
}

// pick elige un elemento uniforme.
func pick(rng *rand.Rand, items []string) string {
	if len(items) == 0 {
		return ""
	}
	return items[rng.IntN(len(items))]
}

// sample elige hasta n elementos distintos sin reemplazo.
func sample(rng *rand.Rand, items []string, n int) []string {
	if n <= 0 || len(items) == 0 {
		return nil
	}
	if n > len(items) {
		n = len(items)
	}
	idx := rng.Perm(len(items))
	out := make([]string, 0, n)
	for _, i := range idx[:n] {
		out = append(out, items[i])
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
