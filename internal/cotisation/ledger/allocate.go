package ledger

import (
	"errors"
	"fmt"
	"sort"
)

// AllocationMode selects how a mass payment is spread across due items.
type AllocationMode string

const (
	ModeFull         AllocationMode = "FULL"
	ModeEqual        AllocationMode = "EQUAL"
	ModeProportional AllocationMode = "PROPORTIONAL"
)

var (
	ErrNoEligibleItems  = errors.New("no eligible items to allocate to")
	ErrNegativeTotal    = errors.New("allocation total must be positive")
	ErrNothingRemaining = errors.New("selected items have no remaining balance")
)

// Allocation is the amount assigned to one item by a strategy.
type Allocation struct {
	ItemID int64   `json:"item_id"`
	Amount float64 `json:"amount"`
}

// Strategy is the interface all allocation strategies implement.
type Strategy interface {
	// Allocate computes per-item amounts for the given total.
	Allocate(total float64, items []*Item) ([]Allocation, error)

	// Mode returns the mode identifier for this strategy.
	Mode() AllocationMode

	// Validate checks the inputs before allocating.
	Validate(total float64, items []*Item) error
}

// Factory creates allocation strategies by mode.
type Factory struct{}

// NewAllocationFactory creates a new factory instance.
func NewAllocationFactory() *Factory {
	return &Factory{}
}

// Create returns the strategy implementation for the given mode.
func (f *Factory) Create(mode AllocationMode) (Strategy, error) {
	switch mode {
	case ModeFull:
		return &FullStrategy{}, nil
	case ModeEqual:
		return &EqualStrategy{}, nil
	case ModeProportional:
		return &ProportionalStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown allocation mode: %s", mode)
	}
}

// CreateFromString creates a strategy from a string mode (useful for API requests).
func (f *Factory) CreateFromString(mode string) (Strategy, error) {
	return f.Create(AllocationMode(mode))
}

// EligibleItems filters out items already paid or cancelled and returns the
// rest in allocation order: ascending due date, then creation time, then id.
// The ordering makes repeated runs with identical inputs produce identical
// per-item amounts.
func EligibleItems(items []*Item) []*Item {
	eligible := make([]*Item, 0, len(items))
	for _, item := range items {
		if item.Payable() && item.Remaining() > 0 {
			eligible = append(eligible, item)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if !a.DueDate.Equal(b.DueDate) {
			return a.DueDate.Before(b.DueDate)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return eligible
}

// FullStrategy pays every eligible item's remaining balance in full. The
// requested total is ignored; already settled items are skipped.
type FullStrategy struct{}

func (s *FullStrategy) Mode() AllocationMode { return ModeFull }

func (s *FullStrategy) Validate(total float64, items []*Item) error {
	if len(EligibleItems(items)) == 0 {
		return ErrNoEligibleItems
	}
	return nil
}

func (s *FullStrategy) Allocate(total float64, items []*Item) ([]Allocation, error) {
	if err := s.Validate(total, items); err != nil {
		return nil, err
	}
	eligible := EligibleItems(items)
	allocations := make([]Allocation, len(eligible))
	for i, item := range eligible {
		allocations[i] = Allocation{ItemID: item.ID, Amount: item.Remaining()}
	}
	return allocations, nil
}

// EqualStrategy splits the total into equal shares of total/N, each capped at
// the item's remaining balance. Excess freed by capping is not redistributed
// to the other items, so the applied total can fall short of the requested
// one; that is the documented behavior, not an accident of this port.
type EqualStrategy struct{}

func (s *EqualStrategy) Mode() AllocationMode { return ModeEqual }

func (s *EqualStrategy) Validate(total float64, items []*Item) error {
	if total <= 0 {
		return ErrNegativeTotal
	}
	if len(EligibleItems(items)) == 0 {
		return ErrNoEligibleItems
	}
	return nil
}

func (s *EqualStrategy) Allocate(total float64, items []*Item) ([]Allocation, error) {
	if err := s.Validate(total, items); err != nil {
		return nil, err
	}

	eligible := EligibleItems(items)
	share := roundToTwoDecimals(total / float64(len(eligible)))

	allocations := make([]Allocation, len(eligible))
	for i, item := range eligible {
		amount := share
		if remaining := item.Remaining(); amount > remaining {
			amount = remaining
		}
		allocations[i] = Allocation{ItemID: item.ID, Amount: amount}
	}
	return allocations, nil
}

// ProportionalStrategy splits the total by each item's share of the combined
// remaining balance, capped per item at its own remaining amount.
type ProportionalStrategy struct{}

func (s *ProportionalStrategy) Mode() AllocationMode { return ModeProportional }

func (s *ProportionalStrategy) Validate(total float64, items []*Item) error {
	if total <= 0 {
		return ErrNegativeTotal
	}
	eligible := EligibleItems(items)
	if len(eligible) == 0 {
		return ErrNoEligibleItems
	}
	if sumRemaining(eligible) <= 0 {
		return ErrNothingRemaining
	}
	return nil
}

func (s *ProportionalStrategy) Allocate(total float64, items []*Item) ([]Allocation, error) {
	if err := s.Validate(total, items); err != nil {
		return nil, err
	}

	eligible := EligibleItems(items)
	totalRemaining := sumRemaining(eligible)

	allocations := make([]Allocation, len(eligible))
	for i, item := range eligible {
		remaining := item.Remaining()
		amount := roundToTwoDecimals(total * (remaining / totalRemaining))
		if amount > remaining {
			amount = remaining
		}
		allocations[i] = Allocation{ItemID: item.ID, Amount: amount}
	}
	return allocations, nil
}

func sumRemaining(items []*Item) float64 {
	var total float64
	for _, item := range items {
		total += item.Remaining()
	}
	return roundToTwoDecimals(total)
}
