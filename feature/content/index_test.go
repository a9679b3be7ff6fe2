package content

import (
	"testing"

	"content-manager/feature/content/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "3f2a1c9e-8b7d-4e6f-a5b4-c3d2e1f0a9b8", NormalizeID(" 3F2A1C9E-8B7D-4E6F-A5B4-C3D2E1F0A9B8 "))
	assert.Equal(t, "legacy-id", NormalizeID("legacy-id "))
}

func TestIndex_PutKeepsMapsInSync(t *testing.T) {
	x := NewIndex()
	parent := "3F2A1C9E-8B7D-4E6F-A5B4-C3D2E1F0A9B8"
	x.Put(models.ContentNode{ID: parent, Path: "/blog"})
	x.Put(models.ContentNode{ID: "b", Path: "/blog/posts", ParentID: &parent})
	require.NoError(t, x.Check())

	n, ok := x.Get("3f2a1c9e-8b7d-4e6f-a5b4-c3d2e1f0a9b8")
	require.True(t, ok)
	assert.Equal(t, "/blog", n.Path)

	child, ok := x.GetByPath("/blog/posts")
	require.True(t, ok)
	assert.Equal(t, n.ID, child.Parent(), "parent ids are normalized too")

	// Moving a node frees its old path.
	x.Put(models.ContentNode{ID: "b", Path: "/news/posts"})
	_, ok = x.GetByPath("/blog/posts")
	assert.False(t, ok)
	assert.Equal(t, 2, x.Len())
	require.NoError(t, x.Check())

	// A different node taking a path evicts the previous holder.
	x.Put(models.ContentNode{ID: "c", Path: "/news/posts"})
	_, ok = x.Get("b")
	assert.False(t, ok)
	require.NoError(t, x.Check())

	assert.True(t, x.Remove("c"))
	assert.False(t, x.Remove("c"))
	assert.Equal(t, 1, x.Len())
	require.NoError(t, x.Check())
}

func TestIndex_ReplaceAndSnapshot(t *testing.T) {
	x := NewIndex()
	x.Put(models.ContentNode{ID: "old", Path: "/old"})

	x.Replace([]models.ContentNode{
		{ID: "b", Path: "/b"},
		{ID: "a", Path: "/a", Translations: []models.Translation{{LanguageTag: "en", TranslationName: "A"}}},
	})
	require.NoError(t, x.Check())
	_, ok := x.Get("old")
	assert.False(t, ok)

	snap := x.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "/a", snap[0].Path)

	// Snapshots are copies.
	snap[0].Translations[0].TranslationName = "changed"
	a, _ := x.Get("a")
	assert.Equal(t, "A", a.Translations[0].TranslationName)

	found, ok := x.Find(func(n *models.ContentNode) bool { return n.Path == "/b" })
	require.True(t, ok)
	assert.Equal(t, "b", found.ID)
}

func TestIndex_CheckDetectsDrift(t *testing.T) {
	x := NewIndex()
	x.Put(models.ContentNode{ID: "a", Path: "/a"})
	x.paths["/ghost"] = "missing"
	assert.Error(t, x.Check())
}
