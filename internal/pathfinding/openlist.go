package pathfinding

import "container/heap"

// openList is a binary min-heap of node ids ordered by estimated total
// distance. Equal estimates are ordered by id, so the pop order never
// depends on insertion order or memory layout.
// Implements heap.Interface.
type openList struct {
	ids   []int32
	nodes []pathNode
}

func (o *openList) Len() int { return len(o.ids) }

func (o *openList) Less(i, j int) bool {
	a, b := o.ids[i], o.ids[j]
	ea, eb := o.nodes[a].estimated, o.nodes[b].estimated
	if ea == eb {
		return a < b
	}
	return ea < eb
}

func (o *openList) Swap(i, j int) {
	o.ids[i], o.ids[j] = o.ids[j], o.ids[i]
	o.nodes[o.ids[i]].heapIdx = int32(i)
	o.nodes[o.ids[j]].heapIdx = int32(j)
}

func (o *openList) Push(x any) {
	id := x.(int32)
	o.nodes[id].heapIdx = int32(len(o.ids))
	o.ids = append(o.ids, id)
}

func (o *openList) Pop() any {
	n := len(o.ids)
	id := o.ids[n-1]
	o.ids = o.ids[:n-1]
	o.nodes[id].heapIdx = -1 // for safety
	return id
}

// reset empties the list and binds it to the current node arena.
func (o *openList) reset(nodes []pathNode) {
	o.ids = o.ids[:0]
	o.nodes = nodes
}

func (o *openList) push(id int32) { heap.Push(o, id) }

func (o *openList) pop() int32 { return heap.Pop(o).(int32) }

// rearrange restores heap order after the estimate of id decreased. A node
// that already left the list is pushed again.
func (o *openList) rearrange(id int32) {
	idx := o.nodes[id].heapIdx
	if idx < 0 {
		heap.Push(o, id)
		return
	}
	heap.Fix(o, int(idx))
}
