package seeder

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"
)

// Generator produces a synthetic orders dataset as CSV. The same seed
// always yields the same file, so demo questions have stable answers.
type Generator struct {
	rnd *rand.Rand
}

func NewGenerator(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

var (
	regions  = []string{"north", "south", "east", "west"}
	products = []string{"widget", "gadget", "doohickey", "gizmo", "sprocket"}
)

// OrdersCSV renders n order rows plus the header.
func (g *Generator) OrdersCSV(n int) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"order_id", "order_date", "region", "product", "quantity", "unit_price"}); err != nil {
		return nil, err
	}

	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		day := start.AddDate(0, 0, g.rnd.Intn(90))
		record := []string{
			fmt.Sprintf("ord-%05d", i+1),
			day.Format("2006-01-02"),
			pickOne(g.rnd, regions),
			pickOne(g.rnd, products),
			strconv.Itoa(g.rnd.Intn(9) + 1),
			strconv.FormatFloat(round2(5+g.rnd.Float64()*95), 'f', 2, 64),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func pickOne(rnd *rand.Rand, values []string) string {
	return values[rnd.Intn(len(values))]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
