package sweep

import "fmt"

// Pair is a short/long entry threshold pair.
type Pair struct {
	Short int
	Long  int
}

// Combination is one point of the parameter grid.
type Combination struct {
	ShortEntryTick    int
	LongEntryTick     int
	StopDistanceTicks int
}

func (c Combination) Pair() Pair {
	return Pair{Short: c.ShortEntryTick, Long: c.LongEntryTick}
}

func (c Combination) String() string {
	return fmt.Sprintf("%d/%d stop %d", c.ShortEntryTick, c.LongEntryTick, c.StopDistanceTicks)
}

// Grid describes the threshold pairs and stop distances to try. Explicit Pairs
// take precedence over the Short/Long min-max ranges.
type Grid struct {
	Pairs    []Pair
	ShortMin int
	ShortMax int
	LongMin  int
	LongMax  int
	Stops    []int
}

// Combinations expands the grid pair-major, stops in the given order. Pairs
// that violate threshold ordering are still emitted; the sweep skips them.
func (g Grid) Combinations() []Combination {
	pairs := g.Pairs
	if len(pairs) == 0 {
		for short := g.ShortMin; short <= g.ShortMax; short++ {
			for long := g.LongMin; long <= g.LongMax; long++ {
				pairs = append(pairs, Pair{Short: short, Long: long})
			}
		}
	}
	combos := make([]Combination, 0, len(pairs)*len(g.Stops))
	for _, p := range pairs {
		for _, stop := range g.Stops {
			combos = append(combos, Combination{
				ShortEntryTick:    p.Short,
				LongEntryTick:     p.Long,
				StopDistanceTicks: stop,
			})
		}
	}
	return combos
}
