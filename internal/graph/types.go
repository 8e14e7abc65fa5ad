package graph

// Node is the scheduling view of a task inside a precedence graph.
type Node struct {
	ID          int
	Description string
	Col         int // planned start day on the grid
	Duration    int // days
	Virtual     bool
}

// TaskGraph is a directed graph of tasks; an edge a -> b means a must finish
// before b starts.
type TaskGraph struct {
	Tasks  map[int]*Node
	Adj    map[int][]int // task -> its successors in the graph
	RevAdj map[int][]int // task -> its predecessors in the graph
	Roots  []int         // tasks with no predecessors
	Leaves []int         // tasks with no successors
}
