package indicators

import "github.com/cryptoedge/tradecore/internal/models"

// historyCapacity bounds the per-symbol sample window. At the collector's
// five minute cadence this covers roughly one day.
const historyCapacity = 300

// series is a fixed-capacity ring of price points. Once full, each append
// overwrites the oldest sample.
type series struct {
	points []models.PricePoint
	head   int
	size   int
}

func newSeries() *series {
	return &series{points: make([]models.PricePoint, historyCapacity)}
}

func (s *series) append(p models.PricePoint) {
	if s.size < historyCapacity {
		s.points[(s.head+s.size)%historyCapacity] = p
		s.size++
		return
	}
	s.points[s.head] = p
	s.head = (s.head + 1) % historyCapacity
}

func (s *series) len() int {
	return s.size
}

// snapshot returns the stored points oldest-first as a fresh slice, so
// indicator math never aliases the ring storage.
func (s *series) snapshot() []models.PricePoint {
	out := make([]models.PricePoint, s.size)
	for i := 0; i < s.size; i++ {
		out[i] = s.points[(s.head+i)%historyCapacity]
	}
	return out
}
