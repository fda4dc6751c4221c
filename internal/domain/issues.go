package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Issue is a single reported accessibility problem. Upstream scan records are
// loosely typed, so every field is optional and free-form.
type Issue struct {
	IssueID     string
	Category    string
	Criterion   string
	Clause      string
	Description string
	Page        string
	Severity    string
}

// IdentityKey synthesizes a stable identity for deduplication: the explicit
// issue ID when present, otherwise a composite of the descriptive fields so
// the same issue reported twice collapses to one.
func (i Issue) IdentityKey() string {
	if i.IssueID != "" {
		return "id:" + i.IssueID
	}
	return strings.Join([]string{i.Category, i.Criterion, i.Clause, i.Description, i.Page}, "\x1f")
}

// CategoryIssues is one source category key and the issues reported under it.
type CategoryIssues struct {
	Key    string
	Issues []Issue
}

// IssueSet is the parsed form of a scan's results payload. Upstream emits two
// shapes: a canonical top-level issues[] list, or an object whose array-valued
// keys are category buckets. Parsing never fails on an unexpected shape; keys
// that do not look like issue lists are skipped, preserving source key order
// for the rest.
type IssueSet struct {
	Canonical  bool // true when parsed from a canonical issues[] list
	Categories []CategoryIssues
}

// Empty reports whether the set contains no issues at all.
func (s IssueSet) Empty() bool {
	for _, c := range s.Categories {
		if len(c.Issues) > 0 {
			return false
		}
	}
	return true
}

// Len returns the raw (pre-dedup) issue count.
func (s IssueSet) Len() int {
	n := 0
	for _, c := range s.Categories {
		n += len(c.Issues)
	}
	return n
}

// UnmarshalJSON implements the tolerant results parser. It accepts null, a
// bare issues array, or an object; anything else yields an empty set.
func (s *IssueSet) UnmarshalJSON(data []byte) error {
	*s = IssueSet{}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	if trimmed[0] == '[' {
		if issues, ok := decodeIssueList(trimmed, ""); ok {
			s.Canonical = true
			s.Categories = []CategoryIssues{{Key: "issues", Issues: issues}}
		}
		return nil
	}

	if trimmed[0] != '{' {
		return nil
	}

	keys, values, ok := decodeOrderedObject(trimmed)
	if !ok {
		return nil
	}

	// A canonical issues[] key wins over the category-bucket fallback.
	for i, key := range keys {
		if key != "issues" {
			continue
		}
		if issues, listOK := decodeIssueList(values[i], ""); listOK {
			s.Canonical = true
			s.Categories = []CategoryIssues{{Key: "issues", Issues: issues}}
			return nil
		}
	}

	for i, key := range keys {
		if issues, listOK := decodeIssueList(values[i], key); listOK {
			s.Categories = append(s.Categories, CategoryIssues{Key: key, Issues: issues})
		}
	}
	return nil
}

// MarshalJSON round-trips the set in the category-bucket shape (or the
// canonical shape when that is how it arrived).
func (s IssueSet) MarshalJSON() ([]byte, error) {
	if s.Canonical {
		if len(s.Categories) == 0 {
			return []byte("[]"), nil
		}
		return json.Marshal(issuesToWire(s.Categories[0].Issues))
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range s.Categories {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(issuesToWire(c.Issues))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func issuesToWire(issues []Issue) []map[string]string {
	out := make([]map[string]string, len(issues))
	for i, is := range issues {
		m := map[string]string{}
		if is.IssueID != "" {
			m["issueId"] = is.IssueID
		}
		if is.Category != "" {
			m["category"] = is.Category
		}
		if is.Criterion != "" {
			m["criterion"] = is.Criterion
		}
		if is.Clause != "" {
			m["clause"] = is.Clause
		}
		if is.Description != "" {
			m["description"] = is.Description
		}
		if is.Page != "" {
			m["page"] = is.Page
		}
		if is.Severity != "" {
			m["severity"] = is.Severity
		}
		out[i] = m
	}
	return out
}

// decodeOrderedObject walks a JSON object token by token so source key order
// survives (a map would shuffle it and break insertion-order tie breaks).
func decodeOrderedObject(data []byte) (keys []string, values []json.RawMessage, ok bool) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return nil, nil, false
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, false
		}
		key, isStr := tok.(string)
		if !isStr {
			return nil, nil, false
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, false
		}
		keys = append(keys, key)
		values = append(values, raw)
	}
	return keys, values, true
}

// decodeIssueList parses a JSON array of issue-shaped objects. ok is false
// when raw is not an array. Elements that are not objects still count as
// issues (category only); upstream has been seen emitting bare strings.
func decodeIssueList(raw []byte, fallbackCategory string) ([]Issue, bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(trimmed, &elements); err != nil {
		return nil, false
	}

	issues := make([]Issue, 0, len(elements))
	for _, el := range elements {
		var fields map[string]any
		if err := json.Unmarshal(el, &fields); err != nil {
			issues = append(issues, Issue{Category: fallbackCategory})
			continue
		}
		issue := Issue{
			IssueID:     flexField(fields, "issueId", "issue_id", "id"),
			Category:    flexField(fields, "category"),
			Criterion:   flexField(fields, "criterion"),
			Clause:      flexField(fields, "clause"),
			Description: flexField(fields, "description", "message"),
			Page:        flexField(fields, "page", "pageNumber"),
			Severity:    flexField(fields, "severity"),
		}
		if issue.Category == "" {
			issue.Category = fallbackCategory
		}
		issues = append(issues, issue)
	}
	return issues, true
}

// flexField pulls the first present key as a string, stringifying scalars.
// Upstream types drift (page numbers arrive as both 12 and "12").
func flexField(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		v, present := fields[key]
		if !present || v == nil {
			continue
		}
		switch val := v.(type) {
		case string:
			return val
		case float64:
			if val == float64(int64(val)) {
				return fmt.Sprintf("%d", int64(val))
			}
			return fmt.Sprintf("%g", val)
		case bool:
			return fmt.Sprintf("%t", val)
		}
	}
	return ""
}
