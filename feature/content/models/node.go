package models

import "time"

// NodeType distinguishes pure grouping nodes from nodes that carry a schema.
type NodeType string

const (
	NodeTypeCategory   NodeType = "category"
	NodeTypeCollection NodeType = "collection"
)

// Valid reports whether t is a known node type.
func (t NodeType) Valid() bool {
	return t == NodeTypeCategory || t == NodeTypeCollection
}

// Translation is a localized display name.
type Translation struct {
	LanguageTag     string `json:"languageTag"`
	TranslationName string `json:"translationName"`
}

// ContentNode is a single entry of the content tree.
type ContentNode struct {
	ID       string  `json:"_id"`
	ParentID *string `json:"parentId,omitempty"`
	Path     string  `json:"path"`
	Name     string  `json:"name"`
	Icon     string  `json:"icon,omitempty"`
	Order    int     `json:"order"`

	NodeType NodeType `json:"nodeType"`

	// CollectionDef is only set on collection nodes. The full definition always
	// comes from the schema files; the database keeps a projection.
	CollectionDef *CollectionDef `json:"collectionDef,omitempty"`

	Translations []Translation `json:"translations,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	TenantID     string        `json:"tenantId,omitempty"`
}

// IsCollection reports whether the node carries a collection schema.
func (n *ContentNode) IsCollection() bool {
	return n.NodeType == NodeTypeCollection
}

// Parent returns the parent id, or "" for roots.
func (n *ContentNode) Parent() string {
	if n.ParentID == nil {
		return ""
	}
	return *n.ParentID
}

// Clone returns a copy that shares no slices or pointers with n,
// except CollectionDef which is treated as immutable once built.
func (n *ContentNode) Clone() *ContentNode {
	c := *n
	if n.ParentID != nil {
		p := *n.ParentID
		c.ParentID = &p
	}
	if n.Translations != nil {
		c.Translations = append([]Translation(nil), n.Translations...)
	}
	return &c
}

// CollectionDef is the field-level schema of a collection as declared on disk.
type CollectionDef struct {
	// ID is the identifier declared in the schema file.
	ID          string           `json:"_id,omitempty"`
	Name        string           `json:"name,omitempty"`
	Label       string           `json:"label,omitempty"`
	Icon        string           `json:"icon,omitempty"`
	Status      string           `json:"status,omitempty"`
	Slug        string           `json:"slug,omitempty"`
	Description string           `json:"description,omitempty"`
	Path        string           `json:"path,omitempty"`
	Order       *int             `json:"order,omitempty"`
	Fields      []map[string]any `json:"fields,omitempty"`
	// Translations declared in the schema; only used when the database has none.
	Translations []Translation `json:"translations,omitempty"`
	// Extra holds keys this package does not interpret.
	Extra map[string]any `json:"extra,omitempty"`
}

// Projection is the part of a collection definition persisted to the database.
type Projection struct {
	ID     string `json:"_id,omitempty"`
	Name   string `json:"name,omitempty"`
	Icon   string `json:"icon,omitempty"`
	Status string `json:"status,omitempty"`
	Path   string `json:"path,omitempty"`
}

// Projection returns the minimal persisted form of d.
func (d *CollectionDef) Projection() Projection {
	return Projection{
		ID:     d.ID,
		Name:   d.Name,
		Icon:   d.Icon,
		Status: d.Status,
		Path:   d.Path,
	}
}

// Definition expands a stored projection back into a definition without fields.
// Used when the schema file for a collection is no longer available.
func (p Projection) Definition() *CollectionDef {
	return &CollectionDef{
		ID:     p.ID,
		Name:   p.Name,
		Icon:   p.Icon,
		Status: p.Status,
		Path:   p.Path,
	}
}
