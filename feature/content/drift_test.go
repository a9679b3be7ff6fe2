package content

import (
	"context"
	"testing"

	"content-manager/feature/content/models"
	"content-manager/feature/content/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDrift(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	collection := models.NodeTypeCollection
	category := models.NodeTypeCategory
	name := "x"
	require.NoError(t, s.BulkUpdate(ctx, "", []store.Update{
		{Path: "/legacy", Changes: store.Changes{Name: &name, NodeType: &collection, CollectionDef: &models.Projection{ID: "L"}}},
		{Path: "/manual", Changes: store.Changes{Name: &name, NodeType: &category}},
	}))

	m := New(s, staticSource{postsSchema()}, Config{}, zap.NewNop())

	report, err := m.Drift(ctx, "")
	require.NoError(t, err)
	assert.False(t, report.InSync())
	assert.Equal(t, DriftSummary{TotalPaths: 4, MissingDB: 2, MissingDisk: 2, Inserts: 2, Deletes: 1}, report.Summary)
	assert.Equal(t, []DriftAction{
		{Type: DriftInsert, Path: "/blog", Reason: "missing in database"},
		{Type: DriftInsert, Path: "/blog/posts", Reason: "missing in database"},
		{Type: DriftDelete, Path: "/legacy", Reason: "schema file removed"},
	}, report.Actions)
	assert.Equal(t, StateUninitialized, m.State(""), "drift never writes")

	require.NoError(t, m.Initialize(ctx, ""))
	report, err = m.Drift(ctx, "")
	require.NoError(t, err)
	assert.True(t, report.InSync(), "%v", report.Actions)
	assert.Equal(t, 1, report.Summary.MissingDisk, "editor-created categories are reported but kept")

	// A broken parent link and a changed icon are both reported.
	posts, ok := m.tenant("").index.GetByPath("/blog/posts")
	require.True(t, ok)
	icon := "bi:other"
	require.NoError(t, s.BulkUpdate(ctx, "", []store.Update{
		{Path: "/blog/posts", Changes: store.Changes{ClearParent: true, Icon: &icon}},
	}))
	report, err = m.Drift(ctx, "")
	require.NoError(t, err)
	require.Len(t, report.Actions, 2)
	assert.Equal(t, DriftUpdate, report.Actions[0].Type)
	assert.Equal(t, DriftRelink, report.Actions[1].Type)
	for _, r := range report.Results {
		if r.Path == posts.Path {
			assert.Contains(t, r.Mismatch, "parent: disk=/blog db=<root>")
		}
	}
}
