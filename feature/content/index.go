package content

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"content-manager/feature/content/models"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// NormalizeID returns the canonical form of a node id: the lower-case hyphenated
// form for UUIDs, the trimmed input otherwise.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if u, err := uuid.Parse(id); err == nil {
		return u.String()
	}
	return id
}

func normalized(node models.ContentNode) *models.ContentNode {
	n := node.Clone()
	n.ID = NormalizeID(n.ID)
	if n.ParentID != nil {
		p := NormalizeID(*n.ParentID)
		n.ParentID = &p
	}
	return n
}

// Index is the in-memory view of one tenant's tree. It keeps an id map and a
// path map that always agree.
type Index struct {
	mu    sync.RWMutex
	nodes map[string]*models.ContentNode
	paths map[string]string
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{
		nodes: make(map[string]*models.ContentNode),
		paths: make(map[string]string),
	}
}

// Replace swaps the whole content of the index. Readers see either the old or
// the new tree, never a mix.
func (x *Index) Replace(nodes []models.ContentNode) {
	byID := make(map[string]*models.ContentNode, len(nodes))
	byPath := make(map[string]string, len(nodes))
	for i := range nodes {
		n := normalized(nodes[i])
		if old, ok := byPath[n.Path]; ok {
			delete(byID, old)
		}
		byID[n.ID] = n
		byPath[n.Path] = n.ID
	}

	x.mu.Lock()
	x.nodes = byID
	x.paths = byPath
	x.mu.Unlock()
}

// Put inserts or replaces a node. A node previously stored under the same id
// loses its old path; a different node holding the same path is evicted.
func (x *Index) Put(node models.ContentNode) {
	n := normalized(node)

	x.mu.Lock()
	defer x.mu.Unlock()

	if prev, ok := x.nodes[n.ID]; ok && prev.Path != n.Path {
		delete(x.paths, prev.Path)
	}
	if other, ok := x.paths[n.Path]; ok && other != n.ID {
		delete(x.nodes, other)
	}
	x.nodes[n.ID] = n
	x.paths[n.Path] = n.ID
}

// Remove deletes the node with id. It reports whether a node was removed.
func (x *Index) Remove(id string) bool {
	id = NormalizeID(id)

	x.mu.Lock()
	defer x.mu.Unlock()

	n, ok := x.nodes[id]
	if !ok {
		return false
	}
	delete(x.nodes, id)
	delete(x.paths, n.Path)
	return true
}

// Get returns the node with id.
func (x *Index) Get(id string) (models.ContentNode, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	n, ok := x.nodes[NormalizeID(id)]
	if !ok {
		return models.ContentNode{}, false
	}
	return *n.Clone(), true
}

// GetByPath returns the node at path.
func (x *Index) GetByPath(path string) (models.ContentNode, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	id, ok := x.paths[path]
	if !ok {
		return models.ContentNode{}, false
	}
	return *x.nodes[id].Clone(), true
}

// Find returns the first node, in path order, that match accepts.
func (x *Index) Find(match func(*models.ContentNode) bool) (models.ContentNode, bool) {
	for _, n := range x.Snapshot() {
		if match(&n) {
			return n, true
		}
	}
	return models.ContentNode{}, false
}

// Snapshot returns a copy of every node, sorted by path.
func (x *Index) Snapshot() []models.ContentNode {
	x.mu.RLock()
	out := make([]models.ContentNode, 0, len(x.nodes))
	for _, n := range x.nodes {
		out = append(out, *n.Clone())
	}
	x.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Len returns the number of nodes.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.nodes)
}

// Check verifies that the id and path maps agree.
func (x *Index) Check() error {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if len(x.nodes) != len(x.paths) {
		return fmt.Errorf("index has %d nodes but %d paths", len(x.nodes), len(x.paths))
	}
	for p, id := range x.paths {
		n, ok := x.nodes[id]
		if !ok {
			return fmt.Errorf("path %s points to missing node %s", p, id)
		}
		if n.Path != p {
			return fmt.Errorf("path %s points to node %s at %s", p, id, n.Path)
		}
	}
	for id, n := range x.nodes {
		if x.paths[n.Path] != id {
			return fmt.Errorf("node %s at %s is not indexed by path", id, n.Path)
		}
	}
	return nil
}

// CheckLinks verifies that every parent id names an indexed node exactly one
// segment above its child. Nodes without a parent id are not checked.
func (x *Index) CheckLinks() error {
	x.mu.RLock()
	defer x.mu.RUnlock()

	for id, n := range x.nodes {
		if n.ParentID == nil {
			continue
		}
		parent, ok := x.nodes[*n.ParentID]
		if !ok {
			return fmt.Errorf("node %s at %s links to missing parent %s", id, n.Path, *n.ParentID)
		}
		if !models.IsDirectChild(parent.Path, n.Path) {
			return fmt.Errorf("node %s at %s links to %s, which is not its parent path", id, n.Path, parent.Path)
		}
	}
	return nil
}

// checkIndex runs both consistency checks of x.
func checkIndex(x *Index) error {
	return multierr.Combine(x.Check(), x.CheckLinks())
}
