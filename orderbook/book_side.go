package orderbook

import (
	rbt "github.com/emirpasic/gods/v2/trees/redblacktree"

	"matchcore/domain"
)

// bookSide is one side of the book: a red-black tree ordering price
// levels (the teacher's gods/v2 bucket index, applied directly to
// price levels instead of sharding buckets — see DESIGN.md) backed by
// a map for O(1) level lookup by key, same division of labor as the
// teacher's HashMapListPriceTree.
type bookSide struct {
	tree  *rbt.Tree[int64, *priceLevel]
	index map[int64]*priceLevel
}

// newBookSide builds one side. descending orders bids (higher price
// is better); ascending orders asks (lower price is better).
func newBookSide(descending bool) *bookSide {
	cmp := func(a, b int64) int {
		switch {
		case a == b:
			return 0
		case descending:
			if a > b {
				return -1
			}
			return 1
		default:
			if a < b {
				return -1
			}
			return 1
		}
	}
	return &bookSide{
		tree:  rbt.NewWith[int64, *priceLevel](cmp),
		index: make(map[int64]*priceLevel),
	}
}

func (s *bookSide) levelFor(price float64) *priceLevel {
	key := priceKey(price)
	level, ok := s.index[key]
	if !ok {
		level = newPriceLevel(price)
		s.index[key] = level
		s.tree.Put(key, level)
	}
	return level
}

func (s *bookSide) dropIfEmpty(price float64) {
	key := priceKey(price)
	level, ok := s.index[key]
	if !ok || !level.isEmpty() {
		return
	}
	delete(s.index, key)
	s.tree.Remove(key)
}

// insert adds a resting order to this side, in the level for its own
// (not effective) price.
func (s *bookSide) insert(o *domain.Order) {
	s.levelFor(o.Price).push(o)
}

// reinsert re-adds a popped-and-mutated order without refreshing its
// timestamp, ahead of every order already resting at that price: the
// order was popped from the front, so it is still the earliest
// arrival at this price and must return to the top.
func (s *bookSide) reinsert(o *domain.Order) {
	s.levelFor(o.Price).pushFront(o)
}

// bestLevel returns the best (price, time) level, or nil if the side
// is empty.
func (s *bookSide) bestLevel() *priceLevel {
	node := s.tree.Left()
	if node == nil {
		return nil
	}
	return node.Value
}

// peek returns the earliest-timestamped order at the best price,
// without removing it.
func (s *bookSide) peek() *domain.Order {
	level := s.bestLevel()
	if level == nil {
		return nil
	}
	return level.front()
}

// pop removes and returns the earliest-timestamped order at the best
// price.
func (s *bookSide) pop() *domain.Order {
	level := s.bestLevel()
	if level == nil {
		return nil
	}
	o := level.popFront()
	s.dropIfEmpty(level.Price)
	return o
}

func (s *bookSide) isEmpty() bool {
	return s.tree.Empty()
}

// bestPrice returns the best resting price and whether the side is
// non-empty.
func (s *bookSide) bestPrice() (float64, bool) {
	level := s.bestLevel()
	if level == nil {
		return 0, false
	}
	return level.Price, true
}

// removeOrder removes a specific resting order from its price level,
// used by cancel-by-id.
func (s *bookSide) removeOrder(o *domain.Order) {
	key := priceKey(o.Price)
	level, ok := s.index[key]
	if !ok {
		return
	}
	level.removeElement(o)
	s.dropIfEmpty(o.Price)
}

// aggregateLiquidity sums remaining quantity on this side, taken in
// best-price order, stopping once the running total reaches want or
// the next level's price is unacceptable to the aggressor. It is
// non-destructive: callers must hold the book lock across this scan
// and any subsequent crossing, per spec's FOK feasibility atomicity
// requirement.
func (s *bookSide) aggregateLiquidity(want uint64, acceptable func(levelPrice float64) bool) uint64 {
	var total uint64
	it := s.tree.Iterator()
	for it.Next() {
		if total >= want {
			break
		}
		level := it.Value()
		if !acceptable(level.Price) {
			break
		}
		total += level.Volume
	}
	return total
}
