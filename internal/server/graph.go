package server

import (
	"sort"
	"strings"

	"github.com/abramin/abilens/internal/store"
)

// GraphFilter specifies filters for graph traversal.
type GraphFilter struct {
	HideCore   bool     `json:"hideCore"`   // Drop types under core:: such as core::integer::u256
	HideEvents bool     `json:"hideEvents"`
	NoiseTypes []string `json:"noiseTypes"` // Exact names or prefix* patterns
	MaxDepth   int      `json:"maxDepth"`
}

// DefaultGraphFilter returns sensible defaults for graph filtering.
func DefaultGraphFilter() GraphFilter {
	return GraphFilter{
		MaxDepth:   6,
		NoiseTypes: []string{},
	}
}

// GraphNode represents a node in the graph response.
type GraphNode struct {
	ID          store.TypeID   `json:"id"`
	Name        string         `json:"name"`
	Kind        store.TypeKind `json:"kind"`
	EventKind   string         `json:"event_kind,omitempty"`
	MemberCount int            `json:"member_count"`
	Tags        []string       `json:"tags"`
	Expanded    bool           `json:"expanded"`
	Depth       int            `json:"depth"`
}

// GraphEdge represents a "refers to" edge in the graph response.
type GraphEdge struct {
	SourceID store.TypeID `json:"source_id"`
	TargetID store.TypeID `json:"target_id"`
}

// GraphResponse is the response format for graph endpoints.
type GraphResponse struct {
	Nodes    []GraphNode  `json:"nodes"`
	Edges    []GraphEdge  `json:"edges"`
	RootID   store.TypeID `json:"root_id"`
	MaxDepth int          `json:"max_depth"`
	Filtered int          `json:"filtered_count"`
}

// GraphBuilder builds type dependency graphs from the store with filtering.
type GraphBuilder struct {
	store    *store.Store
	filter   GraphFilter
	nodes    map[store.TypeID]*GraphNode
	edges    []GraphEdge
	visited  map[store.TypeID]bool
	filtered int
}

// NewGraphBuilder creates a new graph builder.
func NewGraphBuilder(s *store.Store, filter GraphFilter) *GraphBuilder {
	return &GraphBuilder{
		store:   s,
		filter:  filter,
		nodes:   make(map[store.TypeID]*GraphNode),
		edges:   []GraphEdge{},
		visited: make(map[store.TypeID]bool),
	}
}

// BuildFromRoot builds a graph of everything rootID refers to, up to depth levels.
// The root is always included, even when a filter would hide it.
func (gb *GraphBuilder) BuildFromRoot(rootID store.TypeID, depth int) (*GraphResponse, error) {
	if gb.filter.MaxDepth > 0 && depth > gb.filter.MaxDepth {
		depth = gb.filter.MaxDepth
	}

	root, err := gb.store.GetTypeByID(rootID)
	if err != nil {
		return nil, err
	}
	gb.addNode(root, 0)

	if err := gb.expand(rootID, depth, 0); err != nil {
		return nil, err
	}

	return gb.buildResponse(rootID, depth), nil
}

func (gb *GraphBuilder) addNode(t *store.Type, depth int) {
	if _, exists := gb.nodes[t.ID]; exists {
		return
	}

	tags, _ := gb.store.GetTypeTags(t.ID)
	tagStrs := make([]string, len(tags))
	for i, tag := range tags {
		tagStrs[i] = tag.Tag
	}

	gb.nodes[t.ID] = &GraphNode{
		ID:          t.ID,
		Name:        t.Name,
		Kind:        t.Kind,
		EventKind:   t.EventKind,
		MemberCount: len(t.Members),
		Tags:        tagStrs,
		Depth:       depth,
	}
}

// shouldFilter returns true if the referenced type should be hidden.
func (gb *GraphBuilder) shouldFilter(ref store.TypeRef) bool {
	if gb.filter.HideCore && isCoreType(ref.TargetName) {
		return true
	}
	if gb.filter.HideEvents && ref.TargetKind == store.TypeKindEvent {
		return true
	}
	for _, noise := range gb.filter.NoiseTypes {
		if matchTypePattern(noise, ref.TargetName) {
			return true
		}
	}
	return false
}

// expand recursively expands the graph from a type.
func (gb *GraphBuilder) expand(typeID store.TypeID, maxDepth int, currentDepth int) error {
	if currentDepth >= maxDepth {
		return nil
	}
	if gb.visited[typeID] {
		return nil
	}
	gb.visited[typeID] = true

	refs, err := gb.store.GetTypeRefs(typeID)
	if err != nil {
		return err
	}

	for _, ref := range refs {
		if gb.shouldFilter(ref) {
			gb.filtered++
			continue
		}

		gb.edges = append(gb.edges, GraphEdge{SourceID: typeID, TargetID: ref.TargetID})

		target, err := gb.store.GetTypeByID(ref.TargetID)
		if err != nil {
			continue
		}
		gb.addNode(target, currentDepth+1)

		if err := gb.expand(ref.TargetID, maxDepth, currentDepth+1); err != nil {
			return err
		}
	}

	if node, ok := gb.nodes[typeID]; ok {
		node.Expanded = true
	}

	return nil
}

// buildResponse constructs the final response. Nodes are ordered by depth, then name.
func (gb *GraphBuilder) buildResponse(rootID store.TypeID, maxDepth int) *GraphResponse {
	nodes := make([]GraphNode, 0, len(gb.nodes))
	for _, node := range gb.nodes {
		nodes = append(nodes, *node)
	}
	sort.Slice(nodes, func(i, j int) bool {
		if nodes[i].Depth != nodes[j].Depth {
			return nodes[i].Depth < nodes[j].Depth
		}
		return nodes[i].Name < nodes[j].Name
	})

	return &GraphResponse{
		Nodes:    nodes,
		Edges:    gb.edges,
		RootID:   rootID,
		MaxDepth: maxDepth,
		Filtered: gb.filtered,
	}
}

// isCoreType reports whether a type comes from the Cairo core library.
func isCoreType(name string) bool {
	return strings.HasPrefix(name, "core::")
}

// matchTypePattern matches a type name against a pattern.
// Supports * as a wildcard for any suffix.
func matchTypePattern(pattern, name string) bool {
	if pattern == name {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(name, prefix)
	}
	return false
}
