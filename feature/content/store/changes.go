package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"content-manager/feature/content/models"

	"gorm.io/datatypes"
)

// Changes lists the columns to write for one node. Nil fields are left untouched.
// The canonical id is never part of a change set.
type Changes struct {
	// Path renames the node found at Update.Path.
	Path     *string
	Name     *string
	Icon     *string
	Order    *int
	NodeType *models.NodeType
	// CollectionDef is the projection persisted for collections.
	CollectionDef *models.Projection
	Translations  *[]models.Translation
	ParentID      *string
	// ClearParent writes NULL to parent_id and takes precedence over ParentID.
	ClearParent bool
	// CreatedAt is only honoured when the node is inserted.
	CreatedAt *time.Time
}

// Empty reports whether c writes nothing.
func (c Changes) Empty() bool {
	return c.Path == nil && c.Name == nil && c.Icon == nil && c.Order == nil &&
		c.NodeType == nil && c.CollectionDef == nil && c.Translations == nil &&
		c.ParentID == nil && !c.ClearParent
}

// Update is one write keyed by path.
type Update struct {
	Path    string
	Changes Changes
}

// columns returns the column map for an update of an existing row.
func (c Changes) columns() (map[string]any, error) {
	cols := make(map[string]any)
	if c.Path != nil {
		cols["path"] = *c.Path
	}
	if c.Name != nil {
		cols["name"] = *c.Name
	}
	if c.Icon != nil {
		cols["icon"] = *c.Icon
	}
	if c.Order != nil {
		cols["sort_order"] = *c.Order
	}
	if c.NodeType != nil {
		cols["node_type"] = string(*c.NodeType)
	}
	if c.CollectionDef != nil {
		raw, err := json.Marshal(c.CollectionDef)
		if err != nil {
			return nil, fmt.Errorf("failed to encode collection projection: %w", err)
		}
		cols["collection_def"] = datatypes.JSON(raw)
	}
	if c.Translations != nil {
		raw, err := encodeTranslations(*c.Translations)
		if err != nil {
			return nil, err
		}
		cols["translations"] = raw
	}
	if c.ClearParent {
		cols["parent_id"] = nil
	} else if c.ParentID != nil {
		cols["parent_id"] = *c.ParentID
	}
	return cols, nil
}

// dropUnchanged removes the columns whose value r already holds, so that
// replaying the same changes leaves the row and its updated_at alone.
func dropUnchanged(r *nodeRow, cols map[string]any) {
	for col, v := range cols {
		if sameColumn(r, col, v) {
			delete(cols, col)
		}
	}
}

func sameColumn(r *nodeRow, col string, v any) bool {
	switch col {
	case "path":
		return r.Path == v.(string)
	case "name":
		return r.Name == v.(string)
	case "icon":
		return r.Icon == v.(string)
	case "sort_order":
		return r.Order == v.(int)
	case "node_type":
		return r.NodeType == v.(string)
	case "collection_def":
		return bytes.Equal(r.CollectionDef, v.(datatypes.JSON))
	case "translations":
		return bytes.Equal(r.Translations, v.(datatypes.JSON))
	case "parent_id":
		if v == nil {
			return r.ParentID == nil
		}
		return r.ParentID != nil && *r.ParentID == v.(string)
	}
	return false
}

// applyTo fills a row that is about to be inserted.
func (c Changes) applyTo(r *nodeRow) error {
	if c.Path != nil {
		r.Path = *c.Path
	}
	if c.Name != nil {
		r.Name = *c.Name
	}
	if c.Icon != nil {
		r.Icon = *c.Icon
	}
	if c.Order != nil {
		r.Order = *c.Order
	}
	if c.NodeType != nil {
		r.NodeType = string(*c.NodeType)
	}
	if c.CollectionDef != nil {
		raw, err := json.Marshal(c.CollectionDef)
		if err != nil {
			return fmt.Errorf("failed to encode collection projection: %w", err)
		}
		r.CollectionDef = datatypes.JSON(raw)
	}
	if c.Translations != nil {
		raw, err := encodeTranslations(*c.Translations)
		if err != nil {
			return err
		}
		r.Translations = raw
	}
	if !c.ClearParent && c.ParentID != nil {
		p := *c.ParentID
		r.ParentID = &p
	}
	if c.CreatedAt != nil && !c.CreatedAt.IsZero() {
		r.CreatedAt = *c.CreatedAt
	}
	return nil
}

func encodeTranslations(t []models.Translation) (datatypes.JSON, error) {
	if t == nil {
		t = []models.Translation{}
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to encode translations: %w", err)
	}
	return datatypes.JSON(raw), nil
}
