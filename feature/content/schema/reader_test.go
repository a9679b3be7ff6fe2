package schema

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const postsModule = `import widgets from "../widgets";
export const schema = {
	_id: "C1",
	icon: "mdi:post",
	status: "publish",
	order: 2,
	translations: [{ languageTag: "de", translationName: "Beiträge" }],
	fields: [widgets.Input({ label: "Title" }), widgets.RichText({ label: "Body" })],
	livePreview: true,
};
export default schema;
`

func writeFile(t *testing.T, fs afero.Fs, name, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
}

func TestReader_Scan(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/compiled/blog/posts.js", postsModule)
	writeFile(t, fs, "/compiled/blog/drafts.js", `export const schema = { _id: "C2", name: "Drafts", fields: [] };`)
	writeFile(t, fs, "/compiled/blog/readme.md", `export const schema = { _id: "ignored" };`)
	writeFile(t, fs, "/compiled/broken.js", `export const schema = { _id: "C3", fields: [ eval("x") ] };`)
	writeFile(t, fs, "/compiled/helpers.js", `export function helper() { return 1; }`)

	reader := NewReader(fs, "/compiled", zap.NewNop())
	schemas, err := reader.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, schemas, 2, "broken and schema-less files are skipped")

	assert.Equal(t, "/blog/drafts", schemas[0].Path)
	assert.Equal(t, "Drafts", schemas[0].Def.Name)

	posts := schemas[1]
	assert.Equal(t, "/blog/posts", posts.Path)
	assert.Equal(t, "C1", posts.Def.ID)
	assert.Equal(t, "posts", posts.Def.Name, "name falls back to the file name")
	assert.Equal(t, "/blog/posts", posts.Def.Path)
	assert.Equal(t, "mdi:post", posts.Def.Icon)
	require.NotNil(t, posts.Def.Order)
	assert.Equal(t, 2, *posts.Def.Order)
	require.Len(t, posts.Def.Fields, 2)
	assert.Equal(t, "Input", posts.Def.Fields[0][WidgetKey])
	require.Len(t, posts.Def.Translations, 1)
	assert.Equal(t, "de", posts.Def.Translations[0].LanguageTag)
	assert.Equal(t, true, posts.Def.Extra["livePreview"])
}

func TestReader_Options(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/c/pages.mjs", `export const collection = { _id: "P" };`)

	reader := NewReader(fs, "/c", zap.NewNop(), WithExtension("mjs"), WithToken("export const collection"))
	schemas, err := reader.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, schemas, 1)
	assert.Equal(t, "/pages", schemas[0].Path)
}

func TestReader_MissingRoot(t *testing.T) {
	reader := NewReader(afero.NewMemMapFs(), "/nowhere", zap.NewNop())
	_, err := reader.Scan(context.Background())
	assert.Error(t, err)
}

func TestReader_CancelledContext(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, "/c/a.js", `export const schema = { _id: "A" };`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewReader(fs, "/c", zap.NewNop()).Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
