// Package domain defines the normalized domain types for the scan dashboard.
// These types represent the core concepts independent of the backend's wire
// format.
package domain

// Kind identifies the level of an entity in the Group > Folder > File tree.
type Kind string

const (
	KindGroup  Kind = "group"
	KindFolder Kind = "folder"
	KindFile   Kind = "file"
)

// EntityView is the display-level summary of an entity. It is the shape tree
// rows are built from and the shape a selection resolves to once detail data
// arrives.
type EntityView struct {
	Kind        Kind
	ID          string
	Name        string
	GroupID     string // Parent group ID; empty for groups
	FolderID    string // Parent folder ID; empty for groups and loose files
	Status      string // Processing status, only meaningful for files
	FileCount   int
	FolderCount int
}

// Node is a transient selection target created from a tree row activation.
// Seed carries the best information known before the network responds.
type Node struct {
	Kind Kind
	ID   string
	Seed EntityView
}

// GroupRow is one entry in the top-level group listing.
type GroupRow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	FileCount   int    `json:"fileCount"`
	FolderCount int    `json:"folderCount"`
}

// FolderRow is one folder entry in a group's child listing.
type FolderRow struct {
	ID        string `json:"id"`
	GroupID   string `json:"groupId"`
	Name      string `json:"name"`
	FileCount int    `json:"fileCount"`
}

// FileRow is one file entry in a group's child listing (files that live
// directly under the group, outside any folder).
type FileRow struct {
	ID       string `json:"id"`
	GroupID  string `json:"groupId"`
	FolderID string `json:"folderId"`
	Name     string `json:"name"`
	Status   string `json:"status"`
}

// GroupChildren is the lazily loaded child listing for one group.
type GroupChildren struct {
	Folders []FolderRow `json:"folders"`
	Files   []FileRow   `json:"files"`
}

// Detail is the payload a selection resolves to. It is a sealed union over
// the three entity levels; consumers switch on the concrete type.
type Detail interface {
	DetailName() string
}

// GroupDetail is the server's rollup for one group.
type GroupDetail struct {
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	FileCount      int            `json:"fileCount"`
	TotalIssues    int            `json:"totalIssues"`
	IssuesFixed    int            `json:"issuesFixed"`
	CategoryTotals map[string]int `json:"categoryTotals"`
	SeverityTotals map[string]int `json:"severityTotals"`
	StatusCounts   map[string]int `json:"statusCounts"`
}

func (d *GroupDetail) DetailName() string { return d.Name }

// BatchDetail is the server's detail payload for one folder (the backend
// calls folders "batches").
type BatchDetail struct {
	BatchName        string       `json:"batchName"`
	TotalIssues      int          `json:"totalIssues"`
	FixedIssues      int          `json:"fixedIssues"`
	RemainingIssues  int          `json:"remainingIssues"`
	UnprocessedFiles int          `json:"unprocessedFiles"`
	Scans            []ScanDetail `json:"scans"`
}

func (d *BatchDetail) DetailName() string { return d.BatchName }

// ScanDetail is the server's detail payload for one scanned file.
type ScanDetail struct {
	ID       string      `json:"id"`
	FileName string      `json:"fileName"`
	Status   string      `json:"status"`
	Summary  ScanSummary `json:"summary"`
	Results  IssueSet    `json:"results"`
}

func (d *ScanDetail) DetailName() string { return d.FileName }

// ScanSummary carries the server-declared issue counts for a scan. Remaining
// and Total are pointers because older scan records omit them; an absent
// count is not the same as zero.
type ScanSummary struct {
	TotalIssues     *int `json:"totalIssues"`
	RemainingIssues *int `json:"remainingIssues"`
	FixedIssues     int  `json:"issuesFixed"`
}

// AuthoritativeTotal returns the server-declared issue count for the scan,
// preferring remainingIssues over totalIssues. The second return is false
// when the summary declares neither.
func (s ScanSummary) AuthoritativeTotal() (int, bool) {
	if s.RemainingIssues != nil {
		return *s.RemainingIssues, true
	}
	if s.TotalIssues != nil {
		return *s.TotalIssues, true
	}
	return 0, false
}
