package entities

// Node is the graph view of a Paper.
// Nodes are built from papers and then refined through With* copies during
// graph construction; callers outside the builder treat them as read-only.
type Node struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Link        string   `json:"link,omitempty"`
	Concepts    []string `json:"concepts"`
	Domain      string   `json:"domain"`
	Methodology string   `json:"methodology,omitempty"`
	Degree      int      `json:"degree"`
	Cluster     string   `json:"cluster,omitempty"`
	Centrality  float64  `json:"centrality"`
}

// NodeFromPaper materialises a node with degree 0 and unset cluster/centrality
func NodeFromPaper(p Paper) Node {
	concepts := make([]string, len(p.Concepts))
	copy(concepts, p.Concepts)

	return Node{
		ID:          p.ID,
		Title:       p.Title,
		Link:        p.Link,
		Concepts:    concepts,
		Domain:      NormalizeDomain(p.Domain),
		Methodology: p.Methodology,
	}
}

// WithDegree returns a copy of the node with the given degree
func (n Node) WithDegree(degree int) Node {
	n.Degree = degree
	return n
}

// WithCluster returns a copy of the node assigned to a cluster
func (n Node) WithCluster(cluster string) Node {
	n.Cluster = cluster
	return n
}

// WithCentrality returns a copy of the node with a centrality score
func (n Node) WithCentrality(centrality float64) Node {
	n.Centrality = centrality
	return n
}

// Paper converts the node back to its paper record
func (n Node) Paper() Paper {
	return Paper{
		ID:          n.ID,
		Title:       n.Title,
		Link:        n.Link,
		Concepts:    n.Concepts,
		Domain:      n.Domain,
		Methodology: n.Methodology,
	}
}
