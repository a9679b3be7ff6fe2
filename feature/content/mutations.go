package content

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"content-manager/core/logger"
	"content-manager/feature/content/models"
	"content-manager/feature/content/store"

	"go.uber.org/zap"
)

// OperationType names a change to the tree.
type OperationType string

const (
	OpCreate OperationType = "create"
	OpUpdate OperationType = "update"
	OpRename OperationType = "rename"
	OpMove   OperationType = "move"
	OpDelete OperationType = "delete"
)

// Operation is one change applied by UpsertContentNodes.
//
// Node.ID selects the target of update, rename, move and delete; Node.Path is
// used when the id is empty. Create takes its path from Node.Path. Rename takes
// the new path from Node.Path, or derives it from Node.Name. Move takes the new
// path from Node.Path, or places the node under Node.ParentID (nil for the root).
// Update writes the name, icon, order, translations and collection definition;
// empty names and icons and nil translations are left unchanged. Order is always
// written, so an update that omits it moves the node to order 0.
type Operation struct {
	Type OperationType
	Node models.ContentNode
}

// mutationStep is either a batch of writes or the deletion of one subtree.
type mutationStep struct {
	updates []store.Update
	delete  string
}

// mutationPlan validates operations against a working copy of the tree and
// records the writes they need.
type mutationPlan struct {
	tenantID string
	view     map[string]*models.ContentNode
	created  map[string]bool
	dirty    map[string]bool
	// removed holds the ids of deleted nodes.
	removed []string
	// pending holds created paths whose parent has no id yet.
	pending []string
	steps   []mutationStep
}

func newMutationPlan(tenantID string, nodes []models.ContentNode) *mutationPlan {
	p := &mutationPlan{
		tenantID: tenantID,
		view:     make(map[string]*models.ContentNode, len(nodes)),
		created:  make(map[string]bool),
		dirty:    make(map[string]bool),
	}
	for i := range nodes {
		p.view[nodes[i].Path] = nodes[i].Clone()
	}
	return p
}

// UpsertContentNodes applies ops in order and returns the stored structure
// read back after the writes. The tenant must already be initialized.
func (m *Manager) UpsertContentNodes(ctx context.Context, tenantID string, ops []Operation) ([]models.ContentNode, error) {
	ts := m.tenant(tenantID)
	if s, _ := ts.get(); s != StateInitialized {
		return nil, ErrNotInitialized
	}

	ts.write.Lock()
	defer ts.write.Unlock()
	if s, _ := ts.get(); s != StateInitialized {
		return nil, ErrNotInitialized
	}

	log := logger.WithTenant(m.logger, tenantID)

	plan := newMutationPlan(tenantID, ts.index.Snapshot())
	for i, op := range ops {
		if err := plan.apply(op); err != nil {
			return nil, fmt.Errorf("operation %d (%s): %w", i, op.Type, err)
		}
	}

	if err := m.execute(ctx, tenantID, plan); err != nil {
		log.Error("Content mutation failed, resyncing from the database", zap.Error(err))
		m.resync(ctx, tenantID, ts)
		return nil, err
	}

	fresh, err := m.db.GetStructure(ctx, store.StructureQuery{TenantID: tenantID, BypassCache: true})
	if err != nil {
		m.resync(ctx, tenantID, ts)
		return nil, fmt.Errorf("read structure after mutation: %w", err)
	}

	m.syncIndex(ts.index, plan, fresh.Nodes)
	if err := checkIndex(ts.index); err != nil {
		log.Error("Content index inconsistent after mutation, resyncing", zap.Error(err))
		m.resync(ctx, tenantID, ts)
	}

	m.first.clear(tenantID)
	m.storeSnapshot(ctx, tenantID, ts.index.Snapshot())

	log.Info("Content nodes updated", zap.Int("operations", len(ops)), zap.Int("nodes", ts.index.Len()))
	return fresh.Nodes, nil
}

func (m *Manager) execute(ctx context.Context, tenantID string, plan *mutationPlan) error {
	for _, step := range plan.steps {
		if step.delete != "" {
			if err := m.db.Delete(ctx, tenantID, step.delete); err != nil {
				return err
			}
			continue
		}
		if err := m.db.BulkUpdate(ctx, tenantID, step.updates); err != nil {
			return err
		}
	}
	m.invalidate()

	if len(plan.pending) == 0 {
		return nil
	}

	// Nodes created under a parent from the same batch are linked once the
	// parent has an id.
	current, err := m.db.GetStructure(ctx, store.StructureQuery{TenantID: tenantID, BypassCache: true})
	if err != nil {
		return fmt.Errorf("read ids of created nodes: %w", err)
	}
	ids := make(map[string]string, len(current.Nodes))
	for _, n := range current.Nodes {
		ids[n.Path] = n.ID
	}
	links := make([]store.Update, 0, len(plan.pending))
	for _, path := range plan.pending {
		parentID, ok := ids[models.ParentPath(path)]
		if !ok {
			return fmt.Errorf("link %s: parent was not stored", path)
		}
		links = append(links, store.Update{Path: path, Changes: store.Changes{ParentID: &parentID}})
	}
	if err := m.db.BulkUpdate(ctx, tenantID, links); err != nil {
		return err
	}
	m.invalidate()
	return nil
}

// resync replaces the index of ts with the stored rows after a mutation left
// the database partly written. Collections keep the definitions they had in
// memory. When the rows cannot be read the tenant falls back to StateError and
// its snapshot is dropped, so the next read reconciles again.
func (m *Manager) resync(ctx context.Context, tenantID string, ts *tenantState) {
	log := logger.WithTenant(m.logger, tenantID)
	m.first.clear(tenantID)
	m.invalidate()

	ctx = context.WithoutCancel(ctx)
	if m.cfg.ReconcileTimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(m.cfg.ReconcileTimeoutSeconds)*time.Second)
		defer cancel()
	}

	current, err := m.db.GetStructure(ctx, store.StructureQuery{TenantID: tenantID, BypassCache: true})
	if err != nil {
		log.Error("Failed to resync content tree", zap.Error(err))
		m.dropSnapshot(ctx, tenantID)
		ts.set(StateError, fmt.Errorf("resync content for tenant %q: %w", tenantID, err))
		return
	}

	defs := make(map[string]*models.CollectionDef)
	for _, n := range ts.index.Snapshot() {
		if n.IsCollection() && n.CollectionDef != nil {
			defs[n.ID] = n.CollectionDef
		}
	}
	nodes := current.Nodes
	for i := range nodes {
		if def, ok := defs[NormalizeID(nodes[i].ID)]; ok && nodes[i].IsCollection() {
			nodes[i].CollectionDef = def
		}
	}

	ts.index.Replace(nodes)
	m.storeSnapshot(ctx, tenantID, ts.index.Snapshot())
	log.Warn("Content tree resynced from the database", zap.Int("nodes", len(nodes)))
}

// syncIndex applies the outcome of plan to index node by node.
func (m *Manager) syncIndex(index *Index, plan *mutationPlan, stored []models.ContentNode) {
	byPath := make(map[string]models.ContentNode, len(stored))
	for _, n := range stored {
		byPath[n.Path] = n
	}

	for _, id := range plan.removed {
		index.Remove(id)
	}
	for path := range plan.dirty {
		n, ok := byPath[path]
		if !ok {
			continue
		}
		if v, ok := plan.view[path]; ok && n.IsCollection() && v.CollectionDef != nil {
			n.CollectionDef = v.CollectionDef
		}
		index.Put(n)
	}
}

func (p *mutationPlan) apply(op Operation) error {
	switch op.Type {
	case OpCreate:
		return p.create(op.Node)
	case OpUpdate:
		return p.update(op.Node)
	case OpRename:
		return p.rename(op.Node)
	case OpMove:
		return p.move(op.Node)
	case OpDelete:
		return p.remove(op.Node)
	default:
		return fmt.Errorf("%w: unknown operation %q", ErrInvalidOperation, op.Type)
	}
}

func (p *mutationPlan) write(u store.Update) {
	if last := len(p.steps) - 1; last >= 0 && p.steps[last].delete == "" {
		p.steps[last].updates = append(p.steps[last].updates, u)
		return
	}
	p.steps = append(p.steps, mutationStep{updates: []store.Update{u}})
}

// find resolves the target of an operation by id, then by path.
func (p *mutationPlan) find(node models.ContentNode) (*models.ContentNode, error) {
	if node.ID != "" {
		id := NormalizeID(node.ID)
		for _, n := range p.view {
			if n.ID == id {
				return n, nil
			}
		}
		return nil, fmt.Errorf("node %q: %w", node.ID, ErrNotFound)
	}
	if node.Path != "" {
		if n, ok := p.view[models.NormalizePath(node.Path)]; ok {
			return n, nil
		}
		return nil, fmt.Errorf("node %q: %w", node.Path, ErrNotFound)
	}
	return nil, fmt.Errorf("%w: operation names no node", ErrInvalidOperation)
}

func (p *mutationPlan) create(node models.ContentNode) error {
	path := models.NormalizePath(node.Path)
	if path == "/" {
		return fmt.Errorf("%w: create needs a path", ErrInvalidOperation)
	}
	if !node.NodeType.Valid() {
		return fmt.Errorf("%w: unknown node type %q", ErrInvalidOperation, node.NodeType)
	}
	if _, exists := p.view[path]; exists {
		return fmt.Errorf("%w: %s already exists", ErrInvalidOperation, path)
	}

	n := node.Clone()
	n.ID = ""
	n.Path = path
	n.TenantID = p.tenantID
	n.ParentID = nil
	if n.Name == "" {
		n.Name = models.BaseName(path)
	}

	if parentPath := models.ParentPath(path); parentPath != "" {
		parent, ok := p.view[parentPath]
		if !ok {
			return fmt.Errorf("%w: parent %s of %s does not exist", ErrInvalidOperation, parentPath, path)
		}
		if node.ParentID != nil && parent.ID != "" && NormalizeID(*node.ParentID) != parent.ID {
			return fmt.Errorf("%w: parent id of %s does not match its path", ErrInvalidOperation, path)
		}
		if parent.ID == "" {
			p.pending = append(p.pending, path)
		} else {
			id := parent.ID
			n.ParentID = &id
		}
	}

	ch := presentation(*n)
	nodeType := n.NodeType
	ch.NodeType = &nodeType
	ch.ParentID = n.ParentID
	if n.NodeType != models.NodeTypeCollection {
		n.CollectionDef = nil
		ch.CollectionDef = nil
	}
	p.write(store.Update{Path: path, Changes: ch})

	p.view[path] = n
	p.created[path] = true
	p.dirty[path] = true
	return nil
}

func (p *mutationPlan) update(node models.ContentNode) error {
	cur, err := p.find(node)
	if err != nil {
		return err
	}
	if node.Path != "" && models.NormalizePath(node.Path) != cur.Path {
		return fmt.Errorf("%w: update cannot change the path of %s, use rename or move", ErrInvalidOperation, cur.Path)
	}
	if node.ParentID != nil && NormalizeID(*node.ParentID) != cur.Parent() {
		return fmt.Errorf("%w: update cannot change the parent of %s, use move", ErrInvalidOperation, cur.Path)
	}

	if node.Name != "" {
		cur.Name = node.Name
	}
	if node.Icon != "" {
		cur.Icon = node.Icon
	}
	cur.Order = node.Order
	if node.Translations != nil {
		cur.Translations = node.Translations
	}
	if cur.IsCollection() && node.CollectionDef != nil {
		cur.CollectionDef = node.CollectionDef
	}

	ch := presentation(*cur)
	if !cur.IsCollection() {
		ch.CollectionDef = nil
	}
	p.write(store.Update{Path: cur.Path, Changes: ch})
	p.dirty[cur.Path] = true
	return nil
}

func (p *mutationPlan) rename(node models.ContentNode) error {
	if node.ID == "" {
		return fmt.Errorf("%w: rename needs the node id", ErrInvalidOperation)
	}
	cur, err := p.find(models.ContentNode{ID: node.ID})
	if err != nil {
		return err
	}

	parentPath := models.ParentPath(cur.Path)
	var newPath string
	switch {
	case node.Path != "":
		newPath = models.NormalizePath(node.Path)
	case node.Name != "":
		newPath = models.NormalizePath(parentPath + "/" + node.Name)
	default:
		return fmt.Errorf("%w: rename of %s needs a new path or name", ErrInvalidOperation, cur.Path)
	}
	if models.ParentPath(newPath) != parentPath {
		return fmt.Errorf("%w: rename cannot change the parent of %s, use move", ErrInvalidOperation, cur.Path)
	}

	name := node.Name
	if name == "" {
		name = models.BaseName(newPath)
	}
	return p.relocate(cur, newPath, store.Changes{Name: &name})
}

func (p *mutationPlan) move(node models.ContentNode) error {
	if node.ID == "" {
		return fmt.Errorf("%w: move needs the node id", ErrInvalidOperation)
	}
	cur, err := p.find(models.ContentNode{ID: node.ID})
	if err != nil {
		return err
	}

	var newPath string
	switch {
	case node.Path != "":
		newPath = models.NormalizePath(node.Path)
	case node.ParentID != nil:
		parent, err := p.find(models.ContentNode{ID: *node.ParentID})
		if err != nil {
			return err
		}
		newPath = parent.Path + "/" + models.BaseName(cur.Path)
	default:
		newPath = "/" + models.BaseName(cur.Path)
	}

	ch := store.Changes{}
	if parentPath := models.ParentPath(newPath); parentPath == "" {
		ch.ClearParent = true
	} else {
		parent, ok := p.view[parentPath]
		if !ok {
			return fmt.Errorf("%w: parent %s does not exist", ErrInvalidOperation, parentPath)
		}
		if node.ParentID != nil && NormalizeID(*node.ParentID) != parent.ID {
			return fmt.Errorf("%w: parent id of %s does not match its path", ErrInvalidOperation, newPath)
		}
		if parent.ID == "" {
			return fmt.Errorf("%w: cannot move %s under %s created in the same batch", ErrInvalidOperation, cur.Path, parentPath)
		}
		id := parent.ID
		ch.ParentID = &id
	}
	return p.relocate(cur, newPath, ch)
}

// relocate moves cur and its whole subtree to newPath. Descendants keep their
// parent ids; only their path prefix changes.
func (p *mutationPlan) relocate(cur *models.ContentNode, newPath string, ch store.Changes) error {
	oldPath := cur.Path
	if newPath == oldPath {
		if !ch.Empty() {
			applyChanges(cur, ch)
			p.write(store.Update{Path: oldPath, Changes: ch})
			p.dirty[oldPath] = true
		}
		return nil
	}
	if models.HasPathPrefix(newPath, oldPath) {
		return fmt.Errorf("%w: cannot move %s below itself", ErrInvalidOperation, oldPath)
	}
	if _, taken := p.view[newPath]; taken {
		return fmt.Errorf("%w: %s already exists", ErrInvalidOperation, newPath)
	}

	subtree := make([]string, 0)
	for path := range p.view {
		if models.HasPathPrefix(path, oldPath) {
			if p.created[path] {
				return fmt.Errorf("%w: cannot relocate %s created in the same batch", ErrInvalidOperation, path)
			}
			subtree = append(subtree, path)
		}
	}
	sort.Strings(subtree)

	for _, path := range subtree {
		moved := newPath + strings.TrimPrefix(path, oldPath)
		n := p.view[path]
		delete(p.view, path)
		delete(p.dirty, path)

		if path == oldPath {
			ch.Path = &moved
			applyChanges(n, ch)
			p.write(store.Update{Path: path, Changes: ch})
		} else {
			n.Path = moved
			p.write(store.Update{Path: path, Changes: store.Changes{Path: &moved}})
		}
		p.view[moved] = n
		p.dirty[moved] = true
	}
	return nil
}

func (p *mutationPlan) remove(node models.ContentNode) error {
	cur, err := p.find(node)
	if err != nil {
		return err
	}

	path := cur.Path
	for other, n := range p.view {
		if models.HasPathPrefix(other, path) {
			if n.ID != "" {
				p.removed = append(p.removed, n.ID)
			}
			delete(p.view, other)
			delete(p.dirty, other)
			delete(p.created, other)
		}
	}
	pending := p.pending[:0]
	for _, other := range p.pending {
		if !models.HasPathPrefix(other, path) {
			pending = append(pending, other)
		}
	}
	p.pending = pending

	p.steps = append(p.steps, mutationStep{delete: path})
	return nil
}

// presentation builds the change set of the editable fields of n. The id and
// creation time are never part of it.
func presentation(n models.ContentNode) store.Changes {
	name, icon, order := n.Name, n.Icon, n.Order
	translations := n.Translations
	if translations == nil {
		translations = []models.Translation{}
	}
	ch := store.Changes{
		Name:         &name,
		Icon:         &icon,
		Order:        &order,
		Translations: &translations,
	}
	if n.CollectionDef != nil {
		proj := n.CollectionDef.Projection()
		ch.CollectionDef = &proj
	}
	return ch
}

func applyChanges(n *models.ContentNode, ch store.Changes) {
	if ch.Path != nil {
		n.Path = *ch.Path
	}
	if ch.Name != nil {
		n.Name = *ch.Name
	}
	if ch.ClearParent {
		n.ParentID = nil
	} else if ch.ParentID != nil {
		id := *ch.ParentID
		n.ParentID = &id
	}
}
