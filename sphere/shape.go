package sphere

import (
	"fmt"
)

// Edge is a pair of endpoints on the sphere. Degenerate edges (V0 == V1)
// represent points.
type Edge struct {
	V0, V1 Point
}

// Chain is a maximal run of contiguous edges within a shape, addressed as
// an offset and length into the shape's edge sequence.
type Chain struct {
	Start, Length int
}

// Shape is the capability the shape index consumes: a flat sequence of
// edges grouped into chains, with a dimension tag (0 = points,
// 1 = polylines, 2 = polygons), a point containment test and bounds.
type Shape interface {
	NumEdges() int
	Edge(i int) (Edge, error)
	Dimension() int
	NumChains() int
	Chain(i int) (Chain, error)
	ContainsPoint(p Point) bool
	CapBound() Cap
	RectBound() Rect
}

// PointShape is a single point as a dimension-0 shape with one degenerate
// edge.
type PointShape struct {
	P Point
}

func (s PointShape) NumEdges() int { return 1 }

func (s PointShape) Edge(i int) (Edge, error) {
	if i != 0 {
		return Edge{}, fmt.Errorf("invalid edge id %d: shape has 1 edge", i)
	}
	return Edge{s.P, s.P}, nil
}

func (s PointShape) Dimension() int { return 0 }

func (s PointShape) NumChains() int { return 1 }

func (s PointShape) Chain(i int) (Chain, error) {
	if i != 0 {
		return Chain{}, fmt.Errorf("invalid chain id %d: shape has 1 chain", i)
	}
	return Chain{Start: 0, Length: 1}, nil
}

func (s PointShape) ContainsPoint(p Point) bool {
	return s.P.ApproxEqual(p)
}

func (s PointShape) CapBound() Cap { return CapFromPoint(s.P) }

func (s PointShape) RectBound() Rect { return RectFromLatLng(LatLngFromPoint(s.P)) }

// EdgeVectorShape is an arbitrary collection of edges as a dimension-1
// shape. Every edge forms its own single-edge chain.
type EdgeVectorShape struct {
	edges []Edge
}

// NewEdgeVectorShape creates an empty edge collection.
func NewEdgeVectorShape() *EdgeVectorShape {
	return &EdgeVectorShape{}
}

// AddEdge appends an edge to the collection.
func (s *EdgeVectorShape) AddEdge(a, b Point) {
	s.edges = append(s.edges, Edge{a, b})
}

func (s *EdgeVectorShape) NumEdges() int { return len(s.edges) }

func (s *EdgeVectorShape) Edge(i int) (Edge, error) {
	if i < 0 || i >= len(s.edges) {
		return Edge{}, fmt.Errorf("invalid edge id %d: shape has %d edges", i, len(s.edges))
	}
	return s.edges[i], nil
}

func (s *EdgeVectorShape) Dimension() int { return 1 }

func (s *EdgeVectorShape) NumChains() int { return len(s.edges) }

func (s *EdgeVectorShape) Chain(i int) (Chain, error) {
	if i < 0 || i >= len(s.edges) {
		return Chain{}, fmt.Errorf("invalid chain id %d: shape has %d chains", i, len(s.edges))
	}
	return Chain{Start: i, Length: 1}, nil
}

// ContainsPoint is always false: a one-dimensional shape has no interior.
func (s *EdgeVectorShape) ContainsPoint(p Point) bool { return false }

func (s *EdgeVectorShape) CapBound() Cap {
	cap := EmptyCap()
	for _, e := range s.edges {
		cap = cap.AddPoint(e.V0).AddPoint(e.V1)
	}
	return cap
}

func (s *EdgeVectorShape) RectBound() Rect {
	rect := EmptyRect()
	for _, e := range s.edges {
		rect = rect.AddPoint(LatLngFromPoint(e.V0))
		rect = rect.AddPoint(LatLngFromPoint(e.V1))
	}
	return rect
}
