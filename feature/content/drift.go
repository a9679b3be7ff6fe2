package content

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"content-manager/feature/content/models"
	"content-manager/feature/content/schema"
	"content-manager/feature/content/store"
)

// DriftActionType is the kind of write a reconciliation pass would perform.
type DriftActionType string

const (
	// DriftInsert stores a node found on disk.
	DriftInsert DriftActionType = "insert"
	// DriftDelete removes a stored collection whose schema file is gone.
	DriftDelete DriftActionType = "delete_db"
	// DriftUpdate rewrites the fields of a stored node.
	DriftUpdate DriftActionType = "update"
	// DriftRelink points a stored node at its parent's id.
	DriftRelink DriftActionType = "relink"
)

// DriftResult compares one path across the disk and the database.
type DriftResult struct {
	Path        string          `json:"path"`
	NodeType    models.NodeType `json:"node_type"`
	DiskPresent bool            `json:"disk_present"`
	DBPresent   bool            `json:"db_present"`
	// Mismatch describes each field that differs, e.g. "icon: disk=mdi:post db=bi:folder".
	Mismatch []string `json:"mismatch"`
}

// DriftAction is one planned write.
type DriftAction struct {
	Type   DriftActionType `json:"type"`
	Path   string          `json:"path"`
	Reason string          `json:"reason"`
}

// DriftSummary provides aggregate counts of a report.
type DriftSummary struct {
	TotalPaths  int `json:"total_paths"`
	MissingDB   int `json:"missing_db"`
	MissingDisk int `json:"missing_disk"`
	Mismatches  int `json:"mismatches"`
	Inserts     int `json:"inserts"`
	Deletes     int `json:"deletes"`
	Updates     int `json:"updates"`
	Relinks     int `json:"relinks"`
}

// DriftReport lists how the stored tree differs from the disk.
type DriftReport struct {
	Results []DriftResult `json:"results"`
	Actions []DriftAction `json:"actions"`
	Summary DriftSummary  `json:"summary"`
}

// InSync reports whether a reconciliation pass would write nothing.
func (r *DriftReport) InSync() bool {
	return len(r.Actions) == 0
}

// Drift compares the schemas on disk with the stored nodes of tenantID without
// writing anything. It does not need an initialized tenant.
func (m *Manager) Drift(ctx context.Context, tenantID string) (*DriftReport, error) {
	var (
		schemas []schema.Schema
		stored  *store.Structure
		scanErr error
		dbErr   error
		wg      sync.WaitGroup
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		schemas, scanErr = m.source.Scan(ctx)
	}()
	go func() {
		defer wg.Done()
		stored, dbErr = m.db.GetStructure(ctx, store.StructureQuery{TenantID: tenantID, BypassCache: true})
	}()
	wg.Wait()

	if scanErr != nil {
		return nil, fmt.Errorf("scan schemas: %w", scanErr)
	}
	if dbErr != nil {
		return nil, fmt.Errorf("read stored structure: %w", dbErr)
	}

	byPath := make(map[string]models.ContentNode, len(stored.Nodes))
	byID := make(map[string]models.ContentNode, len(stored.Nodes))
	for _, n := range stored.Nodes {
		byPath[n.Path] = n
		byID[NormalizeID(n.ID)] = n
	}

	wanted := make(map[string]*candidate)
	for _, c := range buildCandidates(tenantID, schemas, byPath) {
		wanted[c.node.Path] = c
	}

	union := make(map[string]struct{}, len(wanted)+len(byPath))
	for p := range wanted {
		union[p] = struct{}{}
	}
	for p := range byPath {
		union[p] = struct{}{}
	}

	report := &DriftReport{Results: make([]DriftResult, 0, len(union))}
	for p := range union {
		c, onDisk := wanted[p]
		n, inDB := byPath[p]
		report.Results = append(report.Results, driftResult(p, c, onDisk, n, inDB, byID))
	}
	sort.Slice(report.Results, func(i, j int) bool {
		return report.Results[i].Path < report.Results[j].Path
	})

	planDrift(report, byPath)
	return report, nil
}

func driftResult(path string, c *candidate, onDisk bool, n models.ContentNode, inDB bool, byID map[string]models.ContentNode) DriftResult {
	res := DriftResult{
		Path:        path,
		DiskPresent: onDisk,
		DBPresent:   inDB,
		Mismatch:    []string{},
	}
	if onDisk {
		res.NodeType = c.node.NodeType
	} else {
		res.NodeType = n.NodeType
	}
	if !onDisk || !inDB {
		return res
	}

	if c.node.NodeType != n.NodeType {
		res.Mismatch = append(res.Mismatch, fmt.Sprintf("node_type: disk=%s db=%s", c.node.NodeType, n.NodeType))
	}
	if c.node.Icon != n.Icon {
		res.Mismatch = append(res.Mismatch, fmt.Sprintf("icon: disk=%s db=%s", c.node.Icon, n.Icon))
	}
	if c.def != nil {
		declared := ""
		if n.CollectionDef != nil {
			declared = n.CollectionDef.ID
		}
		if c.def.ID != declared {
			res.Mismatch = append(res.Mismatch, fmt.Sprintf("collection_id: disk=%s db=%s", c.def.ID, declared))
		}
	}

	want := models.ParentPath(path)
	got := ""
	if n.ParentID != nil {
		got = "<missing>"
		if parent, ok := byID[NormalizeID(*n.ParentID)]; ok {
			got = parent.Path
		}
	}
	if want != got {
		res.Mismatch = append(res.Mismatch, fmt.Sprintf("parent: disk=%s db=%s", orRoot(want), orRoot(got)))
	}
	return res
}

func orRoot(p string) string {
	if p == "" {
		return "<root>"
	}
	return p
}

// planDrift fills the actions and the summary of report.
func planDrift(report *DriftReport, stored map[string]models.ContentNode) {
	s := &report.Summary
	s.TotalPaths = len(report.Results)

	for _, r := range report.Results {
		switch {
		case r.DiskPresent && !r.DBPresent:
			s.MissingDB++
			s.Inserts++
			report.Actions = append(report.Actions, DriftAction{Type: DriftInsert, Path: r.Path, Reason: "missing in database"})
		case !r.DiskPresent && r.DBPresent:
			s.MissingDisk++
			n := stored[r.Path]
			if n.IsCollection() {
				s.Deletes++
				report.Actions = append(report.Actions, DriftAction{Type: DriftDelete, Path: r.Path, Reason: "schema file removed"})
			}
		case len(r.Mismatch) > 0:
			s.Mismatches++
			relink, update := false, false
			for _, m := range r.Mismatch {
				if strings.HasPrefix(m, "parent:") {
					relink = true
				} else {
					update = true
				}
			}
			if update {
				s.Updates++
				report.Actions = append(report.Actions, DriftAction{Type: DriftUpdate, Path: r.Path, Reason: fmt.Sprintf("mismatch: %v", r.Mismatch)})
			}
			if relink {
				s.Relinks++
				report.Actions = append(report.Actions, DriftAction{Type: DriftRelink, Path: r.Path, Reason: "parent link does not match path"})
			}
		}
	}
}
