package content

import (
	"context"
	"errors"
	"sort"
	"testing"

	"content-manager/core/cache"
	"content-manager/feature/content/models"
	"content-manager/feature/content/schema"
	"content-manager/feature/content/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// failingDB fails Delete and GetStructure while the matching flag is set.
type failingDB struct {
	*store.Store
	failDelete bool
	failRead   bool
}

func (d *failingDB) Delete(ctx context.Context, tenantID, path string) error {
	if d.failDelete {
		return errors.New("lock wait timeout")
	}
	return d.Store.Delete(ctx, tenantID, path)
}

func (d *failingDB) GetStructure(ctx context.Context, q store.StructureQuery) (*store.Structure, error) {
	if d.failRead {
		return nil, errors.New("connection reset")
	}
	return d.Store.GetStructure(ctx, q)
}

func collectionSchema(path, id string) schema.Schema {
	return schema.Schema{
		Path: path,
		File: path + ".js",
		Def:  &models.CollectionDef{ID: id, Name: models.BaseName(path), Path: path, Fields: []map[string]any{{"widget": "Input"}}},
	}
}

// requireConsistent checks the index maps, every parent link, and that the
// index holds exactly the stored paths.
func requireConsistent(t *testing.T, m *Manager, tenantID string) {
	t.Helper()
	index := m.tenant(tenantID).index
	require.NoError(t, checkIndex(index))

	nodes := index.Snapshot()
	byID := make(map[string]models.ContentNode, len(nodes))
	indexed := make([]string, 0, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
		indexed = append(indexed, n.Path)
	}
	for _, n := range nodes {
		parentPath := models.ParentPath(n.Path)
		if parentPath == "" {
			assert.Nil(t, n.ParentID, n.Path)
			continue
		}
		require.NotNil(t, n.ParentID, n.Path)
		parent, ok := byID[*n.ParentID]
		require.True(t, ok, "parent of %s is indexed", n.Path)
		assert.Equal(t, parentPath, parent.Path, n.Path)
	}

	stored, err := m.db.GetStructure(context.Background(), store.StructureQuery{TenantID: tenantID, BypassCache: true})
	require.NoError(t, err)
	paths := make([]string, 0, len(stored.Nodes))
	for _, n := range stored.Nodes {
		paths = append(paths, n.Path)
	}
	sort.Strings(paths)
	assert.Equal(t, paths, indexed)
}

func TestReconcile_SiblingCollectionsShareCategory(t *testing.T) {
	ctx := context.Background()
	m := New(testStore(t), staticSource{
		collectionSchema("/blog/posts", "C1"),
		collectionSchema("/blog/drafts", "C2"),
	}, Config{}, zap.NewNop())
	require.NoError(t, m.Initialize(ctx, ""))

	stored, err := m.db.GetStructure(ctx, store.StructureQuery{BypassCache: true})
	require.NoError(t, err)
	require.Len(t, stored.Nodes, 3)

	index := m.tenant("").index
	blog, ok := index.GetByPath("/blog")
	require.True(t, ok)
	assert.Equal(t, models.NodeTypeCategory, blog.NodeType)
	assert.Nil(t, blog.ParentID)

	for _, p := range []string{"/blog/posts", "/blog/drafts"} {
		n, ok := index.GetByPath(p)
		require.True(t, ok, p)
		assert.Equal(t, models.NodeTypeCollection, n.NodeType)
		assert.Equal(t, blog.ID, n.Parent(), p)
	}
	requireConsistent(t, m, "")
}

func TestManager_TreeStaysConsistent(t *testing.T) {
	ctx := context.Background()
	m := New(testStore(t), staticSource{
		collectionSchema("/blog/posts", "C1"),
		collectionSchema("/blog/drafts", "C2"),
		collectionSchema("/a/b/c/d", "D1"),
	}, Config{}, zap.NewNop())
	index := m.tenant("t1").index

	id := func(t *testing.T, path string) string {
		t.Helper()
		n, ok := index.GetByPath(path)
		require.True(t, ok, path)
		return n.ID
	}
	upsert := func(t *testing.T, ops ...Operation) {
		t.Helper()
		_, err := m.UpsertContentNodes(ctx, "t1", ops)
		require.NoError(t, err)
	}

	steps := []struct {
		name  string
		run   func(t *testing.T)
		nodes int
	}{
		{"initialize", func(t *testing.T) { require.NoError(t, m.Initialize(ctx, "t1")) }, 7},
		{"refresh", func(t *testing.T) { require.NoError(t, m.Refresh(ctx, "t1")) }, 7},
		{"create", func(t *testing.T) {
			upsert(t,
				Operation{Type: OpCreate, Node: models.ContentNode{Path: "/a/b/c/e", NodeType: models.NodeTypeCollection,
					CollectionDef: &models.CollectionDef{ID: "E1"}}},
				Operation{Type: OpCreate, Node: models.ContentNode{Path: "/x", NodeType: models.NodeTypeCategory}},
				Operation{Type: OpCreate, Node: models.ContentNode{Path: "/x/y", NodeType: models.NodeTypeCollection,
					CollectionDef: &models.CollectionDef{ID: "Y1"}}},
			)
		}, 10},
		{"update", func(t *testing.T) {
			upsert(t, Operation{Type: OpUpdate, Node: models.ContentNode{ID: id(t, "/a/b/c/d"), Name: "Dee", Order: 3}})
		}, 10},
		{"rename", func(t *testing.T) {
			upsert(t, Operation{Type: OpRename, Node: models.ContentNode{ID: id(t, "/a/b"), Name: "bb"}})
			_, ok := index.GetByPath("/a/bb/c/d")
			assert.True(t, ok)
		}, 10},
		{"move", func(t *testing.T) {
			upsert(t, Operation{Type: OpMove, Node: models.ContentNode{ID: id(t, "/a/bb/c")}})
			_, ok := index.GetByPath("/c/e")
			assert.True(t, ok)
		}, 10},
		{"delete", func(t *testing.T) {
			upsert(t, Operation{Type: OpDelete, Node: models.ContentNode{Path: "/blog"}})
		}, 7},
	}
	for _, step := range steps {
		t.Run(step.name, func(t *testing.T) {
			step.run(t)
			assert.Equal(t, step.nodes, index.Len())
			requireConsistent(t, m, "t1")
		})
	}
}

func TestUpsert_FailedStepResyncsIndex(t *testing.T) {
	ctx := context.Background()
	db := &failingDB{Store: testStore(t)}
	shared := cache.NewMemory()
	m := New(db, staticSource{postsSchema()}, Config{FirstCollectionTTLSeconds: 60}, zap.NewNop(), WithCache(shared))
	require.NoError(t, m.Initialize(ctx, ""))

	first, err := m.GetFirstCollection(ctx, "")
	require.NoError(t, err)
	require.Equal(t, "/blog/posts", first.Path)

	db.failDelete = true
	_, err = m.UpsertContentNodes(ctx, "", []Operation{
		{Type: OpCreate, Node: models.ContentNode{Path: "/docs", NodeType: models.NodeTypeCategory}},
		{Type: OpDelete, Node: models.ContentNode{Path: "/blog/posts"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lock wait timeout")
	db.failDelete = false

	assert.Equal(t, StateInitialized, m.State(""))
	_, ok := m.first.get("")
	assert.False(t, ok, "memoized first collection is dropped")

	docs, err := m.GetNode(ctx, "/docs", "")
	require.NoError(t, err, "the committed create is visible")
	assert.Equal(t, models.NodeTypeCategory, docs.NodeType)

	posts, err := m.GetCollection(ctx, "/blog/posts", "")
	require.NoError(t, err)
	require.NotNil(t, posts.CollectionDef)
	assert.Len(t, posts.CollectionDef.Fields, 1, "definitions survive the resync")
	requireConsistent(t, m, "")

	var snapshot []models.ContentNode
	found, err := cache.GetJSON(ctx, shared, SnapshotKey, "", &snapshot)
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, snapshot, 3)
}

func TestUpsert_UnreadableAfterFailureFallsBackToError(t *testing.T) {
	ctx := context.Background()
	db := &failingDB{Store: testStore(t)}
	shared := cache.NewMemory()
	src := staticSource{postsSchema()}
	m := New(db, src, Config{}, zap.NewNop(), WithCache(shared))
	require.NoError(t, m.Initialize(ctx, ""))

	db.failDelete, db.failRead = true, true
	_, err := m.UpsertContentNodes(ctx, "", []Operation{
		{Type: OpDelete, Node: models.ContentNode{Path: "/blog/posts"}},
	})
	require.Error(t, err)
	assert.Equal(t, StateError, m.State(""))

	var snapshot []models.ContentNode
	found, err := cache.GetJSON(ctx, shared, SnapshotKey, "", &snapshot)
	require.NoError(t, err)
	assert.False(t, found, "a stale snapshot is never left for a warm start")

	db.failDelete, db.failRead = false, false
	blog, err := m.GetNode(ctx, "/blog", "")
	require.NoError(t, err)
	assert.Equal(t, "/blog", blog.Path)
	assert.Equal(t, StateInitialized, m.State(""))
	requireConsistent(t, m, "")
}

func TestIndex_CheckLinks(t *testing.T) {
	x := NewIndex()
	root := "r"
	x.Replace([]models.ContentNode{
		{ID: "r", Path: "/a"},
		{ID: "c", Path: "/a/b", ParentID: &root},
	})
	require.NoError(t, checkIndex(x))

	x.Put(models.ContentNode{ID: "g", Path: "/a/b/c/d", ParentID: &root})
	assert.Error(t, x.CheckLinks(), "grandchild linked past its parent")

	missing := "ghost"
	x.Put(models.ContentNode{ID: "g", Path: "/a/b/c", ParentID: &missing})
	assert.Error(t, x.CheckLinks())
}
