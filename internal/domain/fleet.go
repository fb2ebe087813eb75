package domain

import "fmt"

// Fleet holds bus seat capacities. Bus indexes are 1-based and follow slice order.
type Fleet struct {
	capacities []int
}

func NewFleet(capacities []int) (*Fleet, error) {
	for i, c := range capacities {
		if c <= 0 {
			return nil, fmt.Errorf("new fleet: bus %d capacity must be positive, got %d", i+1, c)
		}
	}
	return &Fleet{capacities: append([]int(nil), capacities...)}, nil
}

func (f *Fleet) Len() int { return len(f.capacities) }

func (f *Fleet) Capacity(busIndex int) (int, bool) {
	if busIndex < 1 || busIndex > len(f.capacities) {
		return 0, false
	}
	return f.capacities[busIndex-1], true
}

func (f *Fleet) Capacities() []int { return append([]int(nil), f.capacities...) }

func (f *Fleet) TotalCapacity() int {
	total := 0
	for _, c := range f.capacities {
		total += c
	}
	return total
}
