package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/avety/scandash/internal/domain"
)

// ListGroups returns the flat group listing used to populate the top level
// of the tree.
func (c *Client) ListGroups(ctx context.Context) ([]domain.GroupRow, error) {
	var groups []domain.GroupRow
	if err := c.get(ctx, "/groups", nil, &groups); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	return groups, nil
}

// GroupChildren returns one group's folder and loose-file listings. The tree
// calls this lazily on a group's first expansion.
func (c *Client) GroupChildren(ctx context.Context, groupID string) (*domain.GroupChildren, error) {
	query := url.Values{"group": {groupID}}
	var children domain.GroupChildren
	if err := c.get(ctx, "/groups", query, &children); err != nil {
		return nil, fmt.Errorf("list children of group %s: %w", groupID, err)
	}
	// Parent linkage is implied by the request; stamp it so cache eviction
	// by ancestor group works on rows the server left unlinked.
	for i := range children.Folders {
		if children.Folders[i].GroupID == "" {
			children.Folders[i].GroupID = groupID
		}
	}
	for i := range children.Files {
		if children.Files[i].GroupID == "" {
			children.Files[i].GroupID = groupID
		}
	}
	return &children, nil
}

// GroupDetails returns the rollup stats for one group.
func (c *Client) GroupDetails(ctx context.Context, groupID string) (*domain.GroupDetail, error) {
	var detail domain.GroupDetail
	if err := c.get(ctx, "/groups/"+url.PathEscape(groupID)+"/details", nil, &detail); err != nil {
		return nil, fmt.Errorf("group %s details: %w", groupID, err)
	}
	return &detail, nil
}

// BatchDetails returns the detail payload for one folder, including its
// per-file scan records.
func (c *Client) BatchDetails(ctx context.Context, folderID string) (*domain.BatchDetail, error) {
	var detail domain.BatchDetail
	if err := c.get(ctx, "/batches/"+url.PathEscape(folderID), nil, &detail); err != nil {
		return nil, fmt.Errorf("batch %s details: %w", folderID, err)
	}
	return &detail, nil
}

// ScanDetails returns the detail payload for one scanned file.
func (c *Client) ScanDetails(ctx context.Context, fileID string) (*domain.ScanDetail, error) {
	var detail domain.ScanDetail
	if err := c.get(ctx, "/scans/"+url.PathEscape(fileID), nil, &detail); err != nil {
		return nil, fmt.Errorf("scan %s details: %w", fileID, err)
	}
	return &detail, nil
}
