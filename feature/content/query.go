package content

import (
	"context"
	"fmt"

	"content-manager/feature/content/models"
	"content-manager/feature/content/store"
)

// GetCollection returns the collection whose path, node id or declared schema
// id equals identifier.
func (m *Manager) GetCollection(ctx context.Context, identifier, tenantID string) (*models.ContentNode, error) {
	index, err := m.ready(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if n, ok := index.GetByPath(models.NormalizePath(identifier)); ok && n.IsCollection() {
		return ownedBy(n, tenantID)
	}
	if n, ok := index.Get(identifier); ok && n.IsCollection() {
		return ownedBy(n, tenantID)
	}
	n, ok := index.Find(func(n *models.ContentNode) bool {
		return n.IsCollection() && n.CollectionDef != nil && n.CollectionDef.ID == identifier
	})
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", identifier, ErrNotFound)
	}
	return ownedBy(n, tenantID)
}

// GetCollectionByID returns the collection with the canonical node id.
func (m *Manager) GetCollectionByID(ctx context.Context, id, tenantID string) (*models.ContentNode, error) {
	index, err := m.ready(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	n, ok := index.Get(id)
	if !ok || !n.IsCollection() {
		return nil, fmt.Errorf("collection %q: %w", id, ErrNotFound)
	}
	return ownedBy(n, tenantID)
}

// GetCollections returns every collection of the tenant, sorted by path.
func (m *Manager) GetCollections(ctx context.Context, tenantID string) ([]models.ContentNode, error) {
	index, err := m.ready(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var out []models.ContentNode
	for _, n := range index.Snapshot() {
		if n.IsCollection() && owned(&n, tenantID) {
			out = append(out, n)
		}
	}
	return out, nil
}

// GetNode returns the node at path, category or collection.
func (m *Manager) GetNode(ctx context.Context, path, tenantID string) (*models.ContentNode, error) {
	index, err := m.ready(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	n, ok := index.GetByPath(models.NormalizePath(path))
	if !ok {
		return nil, fmt.Errorf("node %q: %w", path, ErrNotFound)
	}
	return ownedBy(n, tenantID)
}

// GetContentStructure returns the tree with full collection definitions.
func (m *Manager) GetContentStructure(ctx context.Context, tenantID string) ([]*models.TreeNode, error) {
	index, err := m.ready(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return models.BuildTree(tenantNodes(index, tenantID)), nil
}

// GetNavigationStructure returns the tree without collection definitions.
func (m *Manager) GetNavigationStructure(ctx context.Context, tenantID string) ([]*models.TreeNode, error) {
	tree, err := m.GetContentStructure(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	models.StripDefinitions(tree)
	return tree, nil
}

// GetFirstCollection returns the first collection in navigation order.
func (m *Manager) GetFirstCollection(ctx context.Context, tenantID string) (*models.ContentNode, error) {
	if n, ok := m.first.get(tenantID); ok {
		return &n, nil
	}

	index, err := m.ready(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	for _, n := range models.Flatten(models.BuildTree(tenantNodes(index, tenantID))) {
		if n.IsCollection() {
			m.first.set(tenantID, n)
			return &n, nil
		}
	}
	return nil, fmt.Errorf("first collection: %w", ErrNotFound)
}

// GetContentStructureFromDatabase reads the stored structure, bypassing the
// in-memory tree. The tenant must already be initialized.
func (m *Manager) GetContentStructureFromDatabase(ctx context.Context, tenantID string, format store.Format) (*store.Structure, error) {
	if m.State(tenantID) != StateInitialized {
		return nil, ErrNotInitialized
	}
	return m.db.GetStructure(ctx, store.StructureQuery{Format: format, TenantID: tenantID})
}

func owned(n *models.ContentNode, tenantID string) bool {
	return tenantID == "" || n.TenantID == tenantID
}

// ownedBy hides nodes of other tenants behind ErrNotFound.
func ownedBy(n models.ContentNode, tenantID string) (*models.ContentNode, error) {
	if !owned(&n, tenantID) {
		return nil, fmt.Errorf("node %q: %w", n.Path, ErrNotFound)
	}
	return &n, nil
}

func tenantNodes(index *Index, tenantID string) []models.ContentNode {
	all := index.Snapshot()
	out := all[:0]
	for i := range all {
		if owned(&all[i], tenantID) {
			out = append(out, all[i])
		}
	}
	return out
}
