package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer serves a small fixture tree covering the four read
// endpoints.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/groups", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if groupID := r.URL.Query().Get("group"); groupID != "" {
			if groupID != "g1" {
				http.NotFound(w, r)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"folders": []map[string]any{
					{"id": "f1", "name": "Invoices", "fileCount": 2},
				},
				"files": []map[string]any{
					{"id": "s9", "name": "loose.pdf", "status": "processed"},
				},
			})
			return
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": "g1", "name": "Q3 Reports", "fileCount": 3, "folderCount": 1},
		})
	})
	mux.HandleFunc("/groups/g1/details", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"name":        "Q3 Reports",
			"fileCount":   3,
			"totalIssues": 12,
			"issuesFixed": 2,
		})
	})
	mux.HandleFunc("/batches/f1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"batchName":       "Invoices",
			"remainingIssues": 4,
			"scans": []map[string]any{
				{"id": "s1", "fileName": "a.pdf", "status": "processed",
					"results": map[string]any{"tagging": []map[string]any{{"severity": "high"}}}},
			},
		})
	})
	mux.HandleFunc("/scans/s1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"fileName": "a.pdf",
			"status":   "processed",
			"summary":  map[string]any{"totalIssues": 5},
			"results":  map[string]any{"issues": []map[string]any{{"issueId": "i1"}}},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(t *testing.T) *Client {
	srv := newTestServer(t)
	return New(srv.URL, WithToken("test-token"), WithTimeout(5*time.Second))
}

func TestListGroups(t *testing.T) {
	client := newTestClient(t)

	groups, err := client.ListGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "g1", groups[0].ID)
	assert.Equal(t, "Q3 Reports", groups[0].Name)
	assert.Equal(t, 1, groups[0].FolderCount)
}

func TestGroupChildren(t *testing.T) {
	client := newTestClient(t)

	children, err := client.GroupChildren(context.Background(), "g1")
	require.NoError(t, err)
	require.Len(t, children.Folders, 1)
	require.Len(t, children.Files, 1)
	assert.Equal(t, "g1", children.Folders[0].GroupID, "parent linkage stamped from the request")
	assert.Equal(t, "g1", children.Files[0].GroupID)
}

func TestGroupDetails(t *testing.T) {
	client := newTestClient(t)

	detail, err := client.GroupDetails(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, "Q3 Reports", detail.Name)
	assert.Equal(t, 12, detail.TotalIssues)
}

func TestBatchDetails(t *testing.T) {
	client := newTestClient(t)

	detail, err := client.BatchDetails(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, "Invoices", detail.BatchName)
	require.Len(t, detail.Scans, 1)
	assert.Equal(t, 1, detail.Scans[0].Results.Len())
}

func TestScanDetails(t *testing.T) {
	client := newTestClient(t)

	detail, err := client.ScanDetails(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "a.pdf", detail.FileName)
	require.NotNil(t, detail.Summary.TotalIssues)
	assert.Equal(t, 5, *detail.Summary.TotalIssues)
	assert.True(t, detail.Results.Canonical)
}

func TestNotFoundMapsToErrNotFound(t *testing.T) {
	client := newTestClient(t)

	_, err := client.GroupDetails(context.Background(), "deleted")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = client.ScanDetails(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServerErrorIsNotErrNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	client := New(srv.URL)
	_, err := client.ListGroups(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "500")
}

func TestMissingTokenRejected(t *testing.T) {
	srv := newTestServer(t)
	client := New(srv.URL) // no token

	_, err := client.ListGroups(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
