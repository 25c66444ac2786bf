// Package inventory implements the mix box: the small grid a player fills
// with the items to combine. It tracks placement only; deciding what the
// items make is the mix engine's job.
package inventory

import (
	"errors"
	"fmt"

	"github.com/bernatvadell/muonline-sub002/internal/item"
)

// Default mix box dimensions.
const (
	DefaultWidth  = 8
	DefaultHeight = 4
)

var (
	ErrNoSpace     = errors.New("no space available for item")
	ErrBlocked     = errors.New("cannot place at requested position")
	ErrOutOfRange  = errors.New("index out of range")
	ErrNotAccepted = errors.New("item is not accepted by this box")
)

// Point is a grid cell with origin at top-left.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Shape is the rectangular footprint of an item.
type Shape struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Stack is one placed item.
type Stack struct {
	Item     item.Item `json:"item"`
	Shape    Shape     `json:"shape"`
	Position Point     `json:"position"`

	// key tags occupied cells
	key int
}

// Sizer resolves the footprint of an item type.
type Sizer interface {
	Size(t item.Type) (width, height int)
}

// Option configures box construction.
type Option func(*Box)

// WithSizer sets the footprint source. Without one every item is 1x1.
func WithSizer(s Sizer) Option {
	return func(b *Box) { b.sizer = s }
}

// WithFilter rejects items for which accept returns false.
func WithFilter(accept func(item.Item) bool) Option {
	return func(b *Box) { b.accept = accept }
}

// Box is a grid-constrained item container. It is not safe for concurrent
// use.
type Box struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Stacks []Stack `json:"stacks"`

	occupancy map[Point]int
	nextKey   int
	sizer     Sizer
	accept    func(item.Item) bool
}

// New creates an empty box. Non-positive dimensions fall back to the
// defaults.
func New(width, height int, opts ...Option) *Box {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	b := &Box{
		Width:     width,
		Height:    height,
		Stacks:    make([]Stack, 0),
		occupancy: make(map[Point]int),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Add places an item at pos, or at the first free position when pos is nil,
// and returns its stack index.
func (b *Box) Add(it item.Item, pos *Point) (int, error) {
	if b.accept != nil && !b.accept(it) {
		return -1, ErrNotAccepted
	}
	s := Stack{Item: it, Shape: b.shapeOf(it)}
	if pos != nil {
		if !b.canPlaceAt(s.Shape, *pos) {
			return -1, fmt.Errorf("%w: (%d,%d)", ErrBlocked, pos.X, pos.Y)
		}
		s.Position = *pos
	} else {
		p, ok := b.findFirstFit(s.Shape)
		if !ok {
			return -1, ErrNoSpace
		}
		s.Position = p
	}
	b.nextKey++
	s.key = b.nextKey
	b.applyPlacement(s)
	b.Stacks = append(b.Stacks, s)
	return len(b.Stacks) - 1, nil
}

// Remove takes the stack at index out of the box.
func (b *Box) Remove(index int) (item.Item, error) {
	if index < 0 || index >= len(b.Stacks) {
		return item.Item{}, ErrOutOfRange
	}
	st := b.Stacks[index]
	b.freePlacement(st)
	b.Stacks = append(b.Stacks[:index], b.Stacks[index+1:]...)
	return st.Item, nil
}

// Clear empties the box.
func (b *Box) Clear() {
	b.Stacks = b.Stacks[:0]
	b.occupancy = make(map[Point]int)
}

// Len returns the number of stacks.
func (b *Box) Len() int { return len(b.Stacks) }

// Items returns a copy of the items in insertion order.
func (b *Box) Items() []item.Item {
	out := make([]item.Item, len(b.Stacks))
	for i, st := range b.Stacks {
		out[i] = st.Item
	}
	return out
}

func (b *Box) shapeOf(it item.Item) Shape {
	if b.sizer == nil {
		return Shape{Width: 1, Height: 1}
	}
	w, h := b.sizer.Size(it.Type())
	return Shape{Width: max(w, 1), Height: max(h, 1)}
}

// canPlaceAt checks grid bounds and collisions for a shape at an origin.
func (b *Box) canPlaceAt(shape Shape, origin Point) bool {
	for _, c := range shapeCells(shape) {
		x := origin.X + c.X
		y := origin.Y + c.Y
		if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
			return false
		}
		if _, taken := b.occupancy[Point{X: x, Y: y}]; taken {
			return false
		}
	}
	return true
}

func (b *Box) applyPlacement(s Stack) {
	for _, c := range shapeCells(s.Shape) {
		b.occupancy[Point{X: s.Position.X + c.X, Y: s.Position.Y + c.Y}] = s.key
	}
}

func (b *Box) freePlacement(s Stack) {
	for _, c := range shapeCells(s.Shape) {
		p := Point{X: s.Position.X + c.X, Y: s.Position.Y + c.Y}
		if owner, ok := b.occupancy[p]; ok && owner == s.key {
			delete(b.occupancy, p)
		}
	}
}

// findFirstFit scans the grid row-major for an origin where the shape fits.
func (b *Box) findFirstFit(shape Shape) (Point, bool) {
	for y := 0; y+shape.Height <= b.Height; y++ {
		for x := 0; x+shape.Width <= b.Width; x++ {
			p := Point{X: x, Y: y}
			if b.canPlaceAt(shape, p) {
				return p, true
			}
		}
	}
	return Point{}, false
}

func shapeCells(s Shape) []Point {
	out := make([]Point, 0, s.Width*s.Height)
	for y := 0; y < s.Height; y++ {
		for x := 0; x < s.Width; x++ {
			out = append(out, Point{X: x, Y: y})
		}
	}
	return out
}
