// Package grid implements the authoritative N×N cell grid and the
// first-claim-wins conflict rule shared by the server's authoritative
// copy and the client's replica (§3, §4.5, §4.6).
package grid

import "netrush/internal/wire"

// Cell identifies a grid position.
type Cell struct {
	Row int
	Col int
}

// Grid is an N×N matrix of cell owners. Owner 0 means unclaimed; once a
// cell becomes non-zero it never returns to zero and its owner never
// changes (claim monotonicity, §3).
type Grid struct {
	side   int
	owners []int32 // row-major, len == side*side
}

// New creates an N×N grid with every cell unclaimed.
func New(side int) *Grid {
	return &Grid{side: side, owners: make([]int32, side*side)}
}

// Side returns the grid's dimension N.
func (g *Grid) Side() int { return g.side }

func (g *Grid) index(c Cell) int { return c.Row*g.side + c.Col }

// InBounds reports whether c lies within [0,N)×[0,N).
func (g *Grid) InBounds(c Cell) bool {
	return c.Row >= 0 && c.Row < g.side && c.Col >= 0 && c.Col < g.side
}

// Owner returns the current owner of c, or 0 if unclaimed or out of
// bounds.
func (g *Grid) Owner(c Cell) int {
	if !g.InBounds(c) {
		return 0
	}
	return int(g.owners[g.index(c)])
}

// Claim attempts to assign owner to c. It returns the cell's resulting
// owner and whether this call is the one that established it (false
// when the cell was already owned — first-claim-wins, §4.3). Claiming
// with owner 0 is a no-op and always returns the existing owner.
func (g *Grid) Claim(c Cell, owner int) (resolvedOwner int, claimed bool) {
	if !g.InBounds(c) || owner == 0 {
		return g.Owner(c), false
	}
	idx := g.index(c)
	if g.owners[idx] != 0 {
		return int(g.owners[idx]), false
	}
	g.owners[idx] = int32(owner)
	return owner, true
}

// ApplyFirstClaimWins applies changes to the grid without ever
// overwriting an already-owned cell, tolerating stale or reordered
// redundant entries (§4.6).
func (g *Grid) ApplyFirstClaimWins(changes []wire.Change) {
	for _, ch := range changes {
		g.Claim(Cell{Row: ch.Row, Col: ch.Col}, ch.Owner)
	}
}

// Reset replaces the grid contents wholesale from a full snapshot's
// decoded cell list (every cell not present is implicitly unclaimed).
func (g *Grid) Reset(cells []wire.Change) {
	for i := range g.owners {
		g.owners[i] = 0
	}
	for _, ch := range cells {
		c := Cell{Row: ch.Row, Col: ch.Col}
		if g.InBounds(c) {
			g.owners[g.index(c)] = int32(ch.Owner)
		}
	}
}

// NonEmptyChanges returns every currently-claimed cell as a Change list,
// in row-major order, for use as a full snapshot's grid field.
func (g *Grid) NonEmptyChanges() []wire.Change {
	out := make([]wire.Change, 0)
	for r := 0; r < g.side; r++ {
		for c := 0; c < g.side; c++ {
			idx := r*g.side + c
			if g.owners[idx] != 0 {
				out = append(out, wire.Change{Row: r, Col: c, Owner: int(g.owners[idx])})
			}
		}
	}
	return out
}

// FullyClaimed reports whether every cell has a non-zero owner — the
// server's RUNNING→GAME_OVER trigger (§4.3).
func (g *Grid) FullyClaimed() bool {
	for _, o := range g.owners {
		if o == 0 {
			return false
		}
	}
	return true
}

// OwnerCounts returns, for each client id with at least one claimed
// cell, the number of cells it owns — used to compute GAME_OVER
// winners (§4.7).
func (g *Grid) OwnerCounts() map[int]int {
	counts := make(map[int]int)
	for _, o := range g.owners {
		if o != 0 {
			counts[int(o)]++
		}
	}
	return counts
}
