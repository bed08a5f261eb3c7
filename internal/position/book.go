package position

import (
	"errors"
	"sort"

	"solana-sniper/internal/domain"
)

// ErrPositionExists is returned when an address already has an open position.
var ErrPositionExists = errors.New("position already open for address")

// Book holds open positions keyed by token address. One per address.
// Owned by the engine loop; not safe for concurrent use.
type Book struct {
	open map[string]*domain.Position
}

// NewBook creates an empty book.
func NewBook() *Book {
	return &Book{open: make(map[string]*domain.Position)}
}

// Add registers an open position.
func (b *Book) Add(p *domain.Position) error {
	if _, exists := b.open[p.Address]; exists {
		return ErrPositionExists
	}
	b.open[p.Address] = p
	return nil
}

// Get returns the open position for address.
func (b *Book) Get(address string) (*domain.Position, bool) {
	p, ok := b.open[address]
	return p, ok
}

// Has reports whether address has an open position.
func (b *Book) Has(address string) bool {
	_, ok := b.open[address]
	return ok
}

// Remove drops address from the book.
func (b *Book) Remove(address string) {
	delete(b.open, address)
}

// Open returns open positions ordered by OpenedAt.
func (b *Book) Open() []*domain.Position {
	result := make([]*domain.Position, 0, len(b.open))
	for _, p := range b.open {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].OpenedAt.Equal(result[j].OpenedAt) {
			return result[i].Address < result[j].Address
		}
		return result[i].OpenedAt.Before(result[j].OpenedAt)
	})
	return result
}

// Len returns the number of open positions.
func (b *Book) Len() int {
	return len(b.open)
}
