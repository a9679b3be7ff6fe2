package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"content-manager/core/database"
	"content-manager/feature/content/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Format selects the shape of a structure read.
type Format string

const (
	FormatFlat   Format = "flat"
	FormatNested Format = "nested"
)

// StructureQuery describes a structure read.
type StructureQuery struct {
	Format   Format
	TenantID string
	// NodeType restricts the result to one node type when set.
	NodeType models.NodeType
	// BypassCache reads straight from the database and leaves the cache untouched.
	BypassCache bool
}

// Structure is the result of a structure read. Tree is only set for FormatNested.
type Structure struct {
	Nodes []models.ContentNode
	Tree  []*models.TreeNode
}

// Store is the gorm-backed content node adapter.
type Store struct {
	db     *gorm.DB
	cache  *readCache
	logger *zap.Logger
	now    func() time.Time
}

// New creates a store on db.
func New(db *gorm.DB, cfg Config, logger *zap.Logger) *Store {
	return &Store{
		db:     db,
		cache:  newReadCache(time.Duration(cfg.ReadCacheTTLSeconds) * time.Second),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Migrate creates or updates the content_nodes table.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&nodeRow{}); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", TableName, err)
	}
	return nil
}

// Verify checks that the content_nodes table has every column the store uses.
func (s *Store) Verify(ctx context.Context) error {
	missing, err := database.MissingColumns(ctx, s.db, TableName, requiredColumns)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("table %s is missing columns: %s", TableName, strings.Join(missing, ", "))
	}
	return nil
}

// GetStructure reads every node of a tenant.
func (s *Store) GetStructure(ctx context.Context, q StructureQuery) (*Structure, error) {
	if q.Format == "" {
		q.Format = FormatFlat
	}
	if q.Format != FormatFlat && q.Format != FormatNested {
		return nil, fmt.Errorf("unsupported structure format %q", q.Format)
	}

	var (
		nodes []models.ContentNode
		err   error
	)
	if q.BypassCache {
		nodes, err = s.load(ctx, q.TenantID, q.NodeType)
	} else {
		nodes, err = s.cache.getOrLoad(categoryCollections, q.TenantID+"|"+string(q.NodeType), func() ([]models.ContentNode, error) {
			return s.load(ctx, q.TenantID, q.NodeType)
		})
	}
	if err != nil {
		return nil, err
	}

	result := &Structure{Nodes: nodes}
	if q.Format == FormatNested {
		result.Tree = models.BuildTree(nodes)
	}
	return result, nil
}

func (s *Store) load(ctx context.Context, tenantID string, nodeType models.NodeType) ([]models.ContentNode, error) {
	query := s.db.WithContext(ctx).Where("tenant_id = ?", tenantID)
	if nodeType != "" {
		query = query.Where("node_type = ?", string(nodeType))
	}

	var rows []nodeRow
	if err := query.Order("path").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", TableName, err)
	}

	nodes := make([]models.ContentNode, 0, len(rows))
	for i := range rows {
		n, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// BulkUpdate applies every update in one transaction. An update whose path has
// no row inserts one, and the database assigns its id.
func (s *Store) BulkUpdate(ctx context.Context, tenantID string, updates []Update) error {
	if len(updates) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now()
		for _, u := range updates {
			var row nodeRow
			err := tx.Where("tenant_id = ? AND path = ?", tenantID, u.Path).Take(&row).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				row = nodeRow{TenantID: tenantID, Path: u.Path, CreatedAt: now, UpdatedAt: now}
				if err := u.Changes.applyTo(&row); err != nil {
					return err
				}
				if err := tx.Create(&row).Error; err != nil {
					return fmt.Errorf("failed to insert node %s: %w", u.Path, err)
				}
			case err != nil:
				return fmt.Errorf("failed to look up node %s: %w", u.Path, err)
			default:
				cols, err := u.Changes.columns()
				if err != nil {
					return err
				}
				dropUnchanged(&row, cols)
				if len(cols) == 0 {
					continue
				}
				cols["updated_at"] = now
				if err := tx.Model(&nodeRow{}).Where("id = ?", row.ID).Updates(cols).Error; err != nil {
					return fmt.Errorf("failed to update node %s: %w", u.Path, err)
				}
			}
		}
		return nil
	})
}

// Delete removes the node at path and every node below it.
func (s *Store) Delete(ctx context.Context, tenantID, path string) error {
	prefix := path + "/"
	result := s.db.WithContext(ctx).
		Where("tenant_id = ? AND (path = ? OR SUBSTR(path, 1, ?) = ?)", tenantID, path, utf8.RuneCountInString(prefix), prefix).
		Delete(&nodeRow{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete node %s: %w", path, result.Error)
	}
	s.logger.Debug("Deleted content nodes", zap.String("path", path), zap.Int64("rows", result.RowsAffected))
	return nil
}

// InvalidateCategoryCache drops every cached read of category.
func (s *Store) InvalidateCategoryCache(category string) {
	s.cache.invalidate(category)
}
