package content

import (
	"sort"
	"strings"

	"content-manager/feature/content/models"
)

// CategoryDescriptor is a category implied by the location of a schema.
type CategoryDescriptor struct {
	Name     string
	Path     string
	NodeType models.NodeType
}

// SynthesizeCategories returns one category for every ancestor of every path,
// sorted by path. The result depends only on the set of input paths.
func SynthesizeCategories(paths []string) []CategoryDescriptor {
	seen := make(map[string]struct{})
	for _, p := range paths {
		segs := models.Segments(models.NormalizePath(p))
		for i := 1; i < len(segs); i++ {
			seen["/"+strings.Join(segs[:i], "/")] = struct{}{}
		}
	}

	out := make([]CategoryDescriptor, 0, len(seen))
	for p := range seen {
		out = append(out, CategoryDescriptor{
			Name:     models.BaseName(p),
			Path:     p,
			NodeType: models.NodeTypeCategory,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
