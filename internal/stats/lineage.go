package stats

// Totals 获客数与总成本
type Totals struct {
	Customers float64 `json:"customers"`
	TotalCost float64 `json:"total_cost"`
}

// LineageNode 脚本在迭代树中的一个节点，Own 为该脚本自身统计（无统计时为零值）
type LineageNode struct {
	ID       string
	ParentID *string
	Own      Totals
}

// Lineage 以 id 索引的脚本森林
type Lineage struct {
	nodes    map[string]LineageNode
	children map[string][]string
}

// NewLineage 建立 parent → children 反向索引，子节点顺序与输入顺序一致
func NewLineage(nodes []LineageNode) *Lineage {
	l := &Lineage{
		nodes:    make(map[string]LineageNode, len(nodes)),
		children: make(map[string][]string),
	}
	for _, n := range nodes {
		l.nodes[n.ID] = n
		if n.ParentID != nil {
			l.children[*n.ParentID] = append(l.children[*n.ParentID], n.ID)
		}
	}
	return l
}

// Aggregate 递归累加脚本自身及其全部后代的获客与成本。
// visited 为 nil 时新建；一次遍历中重复出现的节点贡献为 0，环不会导致无限递归。
func (l *Lineage) Aggregate(id string, visited map[string]struct{}) Totals {
	if visited == nil {
		visited = make(map[string]struct{})
	}
	if _, seen := visited[id]; seen {
		return Totals{}
	}
	visited[id] = struct{}{}

	total := l.nodes[id].Own
	for _, cid := range l.children[id] {
		c := l.Aggregate(cid, visited)
		total.Customers += c.Customers
		total.TotalCost += c.TotalCost
	}
	return total
}

// ChildCount 直接子节点数
func (l *Lineage) ChildCount(id string) int {
	return len(l.children[id])
}
