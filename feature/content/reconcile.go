package content

import (
	"context"
	"fmt"
	"sort"
	"time"

	"content-manager/core/logger"
	"content-manager/feature/content/models"
	"content-manager/feature/content/schema"
	"content-manager/feature/content/store"

	"go.uber.org/zap"
)

const (
	defaultCategoryIcon   = "bi:folder"
	defaultCollectionIcon = "bi:file-text"
)

// candidate is a node the disk says should exist, merged with its stored row.
type candidate struct {
	node   models.ContentNode
	def    *models.CollectionDef
	stored bool
	// provisionalParent is the parent id known before the canonical ids are read back.
	provisionalParent string
}

// reconcile rebuilds index from the schema source and the database.
//
// The database assigns ids, so parent links are written in a separate phase
// after every node of the pass exists and its id has been read back.
func (m *Manager) reconcile(ctx context.Context, tenantID string, index *Index) error {
	log := logger.WithTenant(m.logger, tenantID)
	start := time.Now()

	schemas, err := m.source.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan schemas: %w", err)
	}

	existing, err := m.db.GetStructure(ctx, store.StructureQuery{TenantID: tenantID, BypassCache: true})
	if err != nil {
		return fmt.Errorf("read stored structure: %w", err)
	}
	stored := make(map[string]models.ContentNode, len(existing.Nodes))
	for _, n := range existing.Nodes {
		stored[n.Path] = n
	}

	candidates := buildCandidates(tenantID, schemas, stored)
	byPath := make(map[string]*candidate, len(candidates))
	for _, c := range candidates {
		byPath[c.node.Path] = c
	}

	pruned, err := m.pruneStale(ctx, tenantID, existing.Nodes, byPath)
	if err != nil {
		return fmt.Errorf("prune stale collections: %w", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		di, dj := models.Depth(candidates[i].node.Path), models.Depth(candidates[j].node.Path)
		if di != dj {
			return di < dj
		}
		return candidates[i].node.Path < candidates[j].node.Path
	})
	linkProvisional(candidates)

	// Phase 1: upsert every node by path without ids or parent links.
	upserts := make([]store.Update, 0, len(candidates))
	created := 0
	for _, c := range candidates {
		if !c.stored {
			created++
		}
		upserts = append(upserts, upsertFor(c))
	}
	if err := m.db.BulkUpdate(ctx, tenantID, upserts); err != nil {
		return fmt.Errorf("phase 1 upsert: %w", err)
	}
	m.invalidate()

	// Phase 2: read back the canonical ids.
	current, err := m.db.GetStructure(ctx, store.StructureQuery{TenantID: tenantID, BypassCache: true})
	if err != nil {
		return fmt.Errorf("phase 2 read ids: %w", err)
	}
	ids := make(map[string]string, len(current.Nodes))
	for _, n := range current.Nodes {
		ids[n.Path] = n.ID
	}
	for _, c := range candidates {
		if _, ok := ids[c.node.Path]; !ok {
			return fmt.Errorf("phase 2 read ids: node %s was not stored", c.node.Path)
		}
	}

	// Phase 3: link every node to its parent by canonical id.
	links := make([]store.Update, 0, len(candidates))
	orphans, relinked := 0, 0
	for _, c := range candidates {
		parentPath := models.ParentPath(c.node.Path)
		if parentPath == "" {
			links = append(links, store.Update{Path: c.node.Path, Changes: store.Changes{ClearParent: true}})
			continue
		}
		parentID, ok := ids[parentPath]
		if !ok {
			orphans++
			log.Warn("Parent not found, storing node as root",
				zap.String("path", c.node.Path),
				zap.String("parent_path", parentPath),
				zap.Bool("orphan_risk", true))
			links = append(links, store.Update{Path: c.node.Path, Changes: store.Changes{ClearParent: true}})
			continue
		}
		if c.provisionalParent != parentID {
			relinked++
		}
		id := parentID
		links = append(links, store.Update{Path: c.node.Path, Changes: store.Changes{ParentID: &id}})
	}
	if err := m.db.BulkUpdate(ctx, tenantID, links); err != nil {
		return fmt.Errorf("phase 3 link parents: %w", err)
	}
	m.invalidate()

	final, err := m.db.GetStructure(ctx, store.StructureQuery{TenantID: tenantID, BypassCache: true})
	if err != nil {
		return fmt.Errorf("read reconciled structure: %w", err)
	}
	nodes := attachDefinitions(final.Nodes, byPath)

	index.Replace(nodes)
	if err := checkIndex(index); err != nil {
		log.Warn("Reconciled content index is inconsistent", zap.Error(err))
	}
	m.first.clear(tenantID)
	m.storeSnapshot(ctx, tenantID, nodes)

	log.Info("Content structure reconciled",
		zap.Int("schemas", len(schemas)),
		zap.Int("nodes", len(nodes)),
		zap.Int("created", created),
		zap.Int("pruned", pruned),
		zap.Int("relinked", relinked),
		zap.Int("orphans", orphans),
		zap.Duration("took", time.Since(start)))
	return nil
}

// buildCandidates merges the disk view with stored rows. The disk decides which
// nodes exist and what type they are; stored rows keep their presentation.
func buildCandidates(tenantID string, schemas []schema.Schema, stored map[string]models.ContentNode) []*candidate {
	out := make([]*candidate, 0, len(schemas)*2)
	collections := make(map[string]struct{}, len(schemas))
	paths := make([]string, 0, len(schemas))

	for _, s := range schemas {
		if _, dup := collections[s.Path]; dup {
			continue
		}
		collections[s.Path] = struct{}{}
		paths = append(paths, s.Path)
		out = append(out, collectionCandidate(tenantID, s, stored))
	}

	for _, cat := range SynthesizeCategories(paths) {
		if _, ok := collections[cat.Path]; ok {
			continue
		}
		out = append(out, categoryCandidate(tenantID, cat, stored))
	}
	return out
}

func collectionCandidate(tenantID string, s schema.Schema, stored map[string]models.ContentNode) *candidate {
	def := s.Def
	if def == nil {
		def = &models.CollectionDef{}
	}

	n := models.ContentNode{
		Path:     s.Path,
		Name:     def.Name,
		Icon:     defaultCollectionIcon,
		NodeType: models.NodeTypeCollection,
		TenantID: tenantID,
	}
	if n.Name == "" {
		n.Name = models.BaseName(s.Path)
	}
	if def.Order != nil {
		n.Order = *def.Order
	}
	n.Translations = def.Translations

	prev, ok := stored[s.Path]
	if ok {
		n.ID = prev.ID
		n.CreatedAt = prev.CreatedAt
		if prev.Name != "" {
			n.Name = prev.Name
		}
		if prev.Icon != "" {
			n.Icon = prev.Icon
		}
		if def.Order == nil {
			n.Order = prev.Order
		}
		if len(prev.Translations) > 0 {
			n.Translations = prev.Translations
		}
	}
	if def.Icon != "" {
		n.Icon = def.Icon
	}
	n.CollectionDef = def
	return &candidate{node: n, def: def, stored: ok}
}

func categoryCandidate(tenantID string, cat CategoryDescriptor, stored map[string]models.ContentNode) *candidate {
	n := models.ContentNode{
		Path:     cat.Path,
		Name:     cat.Name,
		Icon:     defaultCategoryIcon,
		NodeType: models.NodeTypeCategory,
		TenantID: tenantID,
	}

	prev, ok := stored[cat.Path]
	if ok {
		n.ID = prev.ID
		n.CreatedAt = prev.CreatedAt
		n.Order = prev.Order
		n.Translations = prev.Translations
		if prev.Name != "" {
			n.Name = prev.Name
		}
		if prev.Icon != "" && prev.NodeType == models.NodeTypeCategory {
			n.Icon = prev.Icon
		}
	}
	return &candidate{node: n, stored: ok}
}

// linkProvisional records, for each candidate sorted parents first, the id its
// parent already has before this pass writes anything.
func linkProvisional(candidates []*candidate) {
	assigned := make(map[string]string, len(candidates))
	for _, c := range candidates {
		if parent := models.ParentPath(c.node.Path); parent != "" {
			c.provisionalParent = assigned[parent]
		}
		if c.node.ID != "" {
			assigned[c.node.Path] = c.node.ID
		}
	}
}

// upsertFor builds the phase 1 write of c. It never carries the id or the
// parent link.
func upsertFor(c *candidate) store.Update {
	n := c.node
	nodeType := n.NodeType
	translations := n.Translations
	if translations == nil {
		translations = []models.Translation{}
	}
	ch := store.Changes{
		Name:         &n.Name,
		Icon:         &n.Icon,
		Order:        &n.Order,
		NodeType:     &nodeType,
		Translations: &translations,
	}
	if c.def != nil {
		p := c.def.Projection()
		ch.CollectionDef = &p
	}
	if !n.CreatedAt.IsZero() {
		created := n.CreatedAt
		ch.CreatedAt = &created
	}
	return store.Update{Path: n.Path, Changes: ch}
}

// pruneStale deletes stored collections whose schema file is gone and that no
// longer sit on the path of any discovered node. Categories are kept.
func (m *Manager) pruneStale(ctx context.Context, tenantID string, nodes []models.ContentNode, wanted map[string]*candidate) (int, error) {
	pruned := 0
	var deleted []string
	for _, n := range nodes {
		if !n.IsCollection() {
			continue
		}
		if _, ok := wanted[n.Path]; ok {
			continue
		}
		if covered(n.Path, deleted) {
			continue
		}
		if err := m.db.Delete(ctx, tenantID, n.Path); err != nil {
			return pruned, err
		}
		deleted = append(deleted, n.Path)
		pruned++
		logger.WithTenant(m.logger, tenantID).Info("Removed collection without schema", zap.String("path", n.Path))
	}
	if pruned > 0 {
		m.invalidate()
	}
	return pruned, nil
}

func covered(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if models.HasPathPrefix(path, p) {
			return true
		}
	}
	return false
}

// attachDefinitions restores the full definition of every collection found on
// disk. Stored projections stand in for the rest.
func attachDefinitions(nodes []models.ContentNode, byPath map[string]*candidate) []models.ContentNode {
	out := make([]models.ContentNode, len(nodes))
	for i, n := range nodes {
		if c, ok := byPath[n.Path]; ok && c.def != nil && n.IsCollection() {
			n.CollectionDef = c.def
		}
		out[i] = n
	}
	return out
}
