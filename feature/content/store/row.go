package store

import (
	"encoding/json"
	"fmt"
	"time"

	"content-manager/feature/content/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TableName is the table holding content nodes.
const TableName = "content_nodes"

var (
	jsonNull      = datatypes.JSON("null")
	jsonEmptyList = datatypes.JSON("[]")
)

// requiredColumns are the columns the adapter reads and writes.
var requiredColumns = []string{
	"id", "parent_id", "tenant_id", "path", "name", "icon", "sort_order",
	"node_type", "collection_def", "translations", "created_at", "updated_at",
}

// nodeRow is the persisted form of a content node.
type nodeRow struct {
	ID            string         `gorm:"column:id;primaryKey;size:36"`
	ParentID      *string        `gorm:"column:parent_id;size:36;index"`
	TenantID      string         `gorm:"column:tenant_id;size:64;not null;default:'';uniqueIndex:idx_content_nodes_tenant_path,priority:1"`
	Path          string         `gorm:"column:path;size:512;not null;uniqueIndex:idx_content_nodes_tenant_path,priority:2"`
	Name          string         `gorm:"column:name;size:255"`
	Icon          string         `gorm:"column:icon;size:255"`
	Order         int            `gorm:"column:sort_order;not null;default:0"`
	NodeType      string         `gorm:"column:node_type;size:16;index"`
	CollectionDef datatypes.JSON `gorm:"column:collection_def;not null"`
	Translations  datatypes.JSON `gorm:"column:translations;not null"`
	CreatedAt     time.Time      `gorm:"column:created_at"`
	UpdatedAt     time.Time      `gorm:"column:updated_at"`
}

func (nodeRow) TableName() string {
	return TableName
}

// BeforeCreate assigns the canonical id of a new node.
func (r *nodeRow) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if len(r.CollectionDef) == 0 {
		r.CollectionDef = jsonNull
	}
	if len(r.Translations) == 0 {
		r.Translations = jsonEmptyList
	}
	return nil
}

// toModel converts a row into a content node. Collection nodes get a definition
// rebuilt from the stored projection, without fields.
func (r *nodeRow) toModel() (models.ContentNode, error) {
	n := models.ContentNode{
		ID:        r.ID,
		Path:      r.Path,
		Name:      r.Name,
		Icon:      r.Icon,
		Order:     r.Order,
		NodeType:  models.NodeType(r.NodeType),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
		TenantID:  r.TenantID,
	}
	if r.ParentID != nil && *r.ParentID != "" {
		p := *r.ParentID
		n.ParentID = &p
	}

	if len(r.Translations) > 0 {
		if err := json.Unmarshal(r.Translations, &n.Translations); err != nil {
			return n, fmt.Errorf("node %s: invalid translations: %w", r.Path, err)
		}
	}

	if n.IsCollection() && len(r.CollectionDef) > 0 {
		var proj *models.Projection
		if err := json.Unmarshal(r.CollectionDef, &proj); err != nil {
			return n, fmt.Errorf("node %s: invalid collection projection: %w", r.Path, err)
		}
		if proj != nil {
			n.CollectionDef = proj.Definition()
		}
	}
	return n, nil
}
