package entities

// EdgeType categorises a connection by its strength
type EdgeType string

const (
	EdgeTypeStrong EdgeType = "strong"
	EdgeTypeMedium EdgeType = "medium"
	EdgeTypeWeak   EdgeType = "weak"
)

// Strength thresholds used by ClassifyStrength
const (
	StrongEdgeThreshold = 0.7
	MediumEdgeThreshold = 0.5
)

// Edge is an undirected, scored relationship between two papers
type Edge struct {
	Source         string   `json:"source"`
	Target         string   `json:"target"`
	Strength       float64  `json:"strength"`
	SharedConcepts []string `json:"sharedConcepts"`
	Type           EdgeType `json:"type"`
}

// ClassifyStrength derives the edge type from a similarity score
func ClassifyStrength(strength float64) EdgeType {
	switch {
	case strength > StrongEdgeThreshold:
		return EdgeTypeStrong
	case strength > MediumEdgeThreshold:
		return EdgeTypeMedium
	default:
		return EdgeTypeWeak
	}
}

// HasNode checks if this edge touches the node
func (e Edge) HasNode(id string) bool {
	return e.Source == id || e.Target == id
}

// Other returns the opposite endpoint, or "" when id is not an endpoint
func (e Edge) Other(id string) string {
	switch id {
	case e.Source:
		return e.Target
	case e.Target:
		return e.Source
	default:
		return ""
	}
}

// ConnectsNodes checks if this edge connects two specific nodes in either direction
func (e Edge) ConnectsNodes(a, b string) bool {
	return (e.Source == a && e.Target == b) || (e.Source == b && e.Target == a)
}

// WithType returns a copy of the edge with its type derived from strength
func (e Edge) WithType() Edge {
	e.Type = ClassifyStrength(e.Strength)
	return e
}
