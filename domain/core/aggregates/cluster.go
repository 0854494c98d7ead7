package aggregates

// Cluster represents a connected component labelled by its dominant domain
type Cluster struct {
	Label          string   `json:"label"`
	DominantDomain string   `json:"dominantDomain"`
	Sequence       int      `json:"sequence"`
	NodeIDs        []string `json:"nodeIds"`
}

// Size returns the number of member nodes
func (c Cluster) Size() int {
	return len(c.NodeIDs)
}

// ClusterSummary is the per-cluster view returned by cluster analysis
type ClusterSummary struct {
	Name          string   `json:"name"`
	Size          int      `json:"size"`
	Concepts      []string `json:"concepts"`
	AvgCentrality float64  `json:"avgCentrality"`
}
