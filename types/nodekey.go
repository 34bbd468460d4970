package types

import (
	"fmt"
	"math"
)

/*
NodeKey packs the two integer lattice coordinates of a mesh node into a single comparable value.
Unlike an edge key the order of the coordinates is significant: [x, y] and [y, x] are different nodes.
*/
type NodeKey uint64

func NewNodeKey(coords [2]int) (packed NodeKey) {
	var (
		limit = math.MaxUint32
	)
	for _, c := range coords {
		if c < 0 || c > limit {
			panic(fmt.Errorf("unable to pack two ints into a uint64, have %d and %d as inputs",
				coords[0], coords[1]))
		}
	}
	packed = NodeKey(coords[0] + coords[1]<<32)
	return
}

func (nk NodeKey) GetCoords() (coords [2]int) {
	var (
		nkTmp NodeKey
	)
	nkTmp = nk >> 32
	coords[1] = int(nkTmp)
	coords[0] = int(nk - nkTmp*(1<<32))
	return
}
