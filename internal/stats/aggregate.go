// Package stats reduces heterogeneous scan issue records into severity,
// category, and status distributions for the dashboard panels. All functions
// are pure; the package holds no state and performs no I/O.
//
// Counted severities are rebalanced against the server-declared issue total
// when the server knows about more issues than the client can itemize: the
// result always sums exactly to the larger of the two, with every bucket
// non-negative.
package stats

import (
	"math"
	"sort"

	"github.com/avety/scandash/internal/domain"
)

// SeverityTotals is the three-bucket severity distribution.
type SeverityTotals struct {
	High   int
	Medium int
	Low    int
}

// Sum returns the total across all three buckets.
func (t SeverityTotals) Sum() int {
	return t.High + t.Medium + t.Low
}

// CategoryCount is one category's share of the issue population.
type CategoryCount struct {
	Key     string // raw source key
	Label   string // display label
	Count   int
	Percent int // share of Result.Total, rounded to the nearest integer
}

// Result is the aggregated view of one or more detail payloads.
type Result struct {
	Severity   SeverityTotals
	Categories []CategoryCount // count descending, source order on ties
	Status     map[string]int
	Total      int // the larger of counted issues and the authoritative total
	Empty      bool
}

// TopCategories returns at most the three largest categories.
func (r Result) TopCategories() []CategoryCount {
	if len(r.Categories) > 3 {
		return r.Categories[:3]
	}
	return r.Categories
}

// One aggregates a single scan. When the server declares more issues than the
// results itemize, the surplus lands entirely in the low bucket, the
// conservative choice for a single-entity view.
func One(scan *domain.ScanDetail) Result {
	t := newTally()
	t.addScan(scan)

	total := t.counted
	if authoritative, ok := scan.Summary.AuthoritativeTotal(); ok && authoritative > total {
		t.sev.Low += authoritative - total
		total = authoritative
	}

	if scan.Status != "" {
		t.status[scan.Status]++
	}
	return t.result(total)
}

// Batch aggregates a folder's scans. A declared remaining-issue count that
// exceeds the itemized count is redistributed proportionally across the
// severity buckets with largest-remainder rounding, so the buckets sum to the
// declared count exactly.
func Batch(batch *domain.BatchDetail) Result {
	t := newTally()
	for i := range batch.Scans {
		scan := &batch.Scans[i]
		t.addScan(scan)
		status := scan.Status
		if status == "" {
			status = "unknown"
		}
		t.status[status]++
	}
	if batch.UnprocessedFiles > 0 {
		t.status["unprocessed"] += batch.UnprocessedFiles
	}

	total := t.counted
	if batch.RemainingIssues > total {
		t.sev = redistribute(t.sev, total, batch.RemainingIssues)
		total = batch.RemainingIssues
	}
	return t.result(total)
}

// Group normalizes a group's server-computed rollup into the same Result
// shape. Negative server counts clamp to zero; a remaining-issue figure
// above the summed severities pads the low bucket, as in the single-entity
// view.
func Group(detail *domain.GroupDetail) Result {
	t := newTally()

	for key, count := range detail.SeverityTotals {
		if count <= 0 {
			continue
		}
		switch normalizeSeverity(key) {
		case severityMedium:
			t.sev.Medium += count
		case severityLow:
			t.sev.Low += count
		default:
			t.sev.High += count
		}
		t.counted += count
	}

	for _, key := range sortedKeys(detail.CategoryTotals) {
		if count := detail.CategoryTotals[key]; count > 0 {
			t.addCategory(key, count)
		}
	}
	for key, count := range detail.StatusCounts {
		if count > 0 {
			t.status[key] = count
		}
	}

	total := t.counted
	remaining := detail.TotalIssues - detail.IssuesFixed
	if remaining > total {
		t.sev.Low += remaining - total
		total = remaining
	}
	return t.result(total)
}

// severity buckets
type severityBucket int

const (
	severityHigh severityBucket = iota
	severityMedium
	severityLow
)

// normalizeSeverity maps free-text severity onto exactly one bucket. Known
// literals map directly; any other non-empty value is treated as high, the
// conservative default; absent severity is low.
func normalizeSeverity(raw string) severityBucket {
	switch lower(raw) {
	case "medium":
		return severityMedium
	case "low", "":
		return severityLow
	default:
		return severityHigh
	}
}

// tally accumulates severity, category, and status counts. Category order of
// first appearance is preserved so ties sort deterministically.
type tally struct {
	sev      SeverityTotals
	counted  int
	catIndex map[string]int
	cats     []CategoryCount
	status   map[string]int
}

func newTally() *tally {
	return &tally{
		catIndex: make(map[string]int),
		status:   make(map[string]int),
	}
}

// addScan counts one scan's issues. Canonical issue lists are deduplicated by
// identity key; category-bucket fallbacks count every entry since those lists
// carry no identity.
func (t *tally) addScan(scan *domain.ScanDetail) {
	set := scan.Results
	if set.Canonical {
		seen := make(map[string]struct{})
		for _, bucket := range set.Categories {
			for _, issue := range bucket.Issues {
				key := issue.IdentityKey()
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				t.addIssue(categoryKey(issue.Category), issue.Severity)
			}
		}
		return
	}
	for _, bucket := range set.Categories {
		for _, issue := range bucket.Issues {
			t.addIssue(categoryKey(bucket.Key), issue.Severity)
		}
	}
}

func (t *tally) addIssue(category, severity string) {
	switch normalizeSeverity(severity) {
	case severityMedium:
		t.sev.Medium++
	case severityLow:
		t.sev.Low++
	default:
		t.sev.High++
	}
	t.counted++
	t.addCategory(category, 1)
}

func (t *tally) addCategory(key string, count int) {
	if idx, ok := t.catIndex[key]; ok {
		t.cats[idx].Count += count
		return
	}
	t.catIndex[key] = len(t.cats)
	t.cats = append(t.cats, CategoryCount{Key: key, Label: labelFor(key), Count: count})
}

// result finalizes the tally against the settled total: categories sorted by
// count (stable, so first appearance breaks ties) with percentages of total.
func (t *tally) result(total int) Result {
	sort.SliceStable(t.cats, func(i, j int) bool {
		return t.cats[i].Count > t.cats[j].Count
	})
	for i := range t.cats {
		t.cats[i].Percent = percent(t.cats[i].Count, total)
	}

	return Result{
		Severity:   t.sev,
		Categories: t.cats,
		Status:     t.status,
		Total:      total,
		Empty:      total == 0 && len(t.status) == 0,
	}
}

// redistribute scales counted severities up to the authoritative total using
// largest-remainder rounding: each leading bucket takes its rounded
// proportional share clamped to the remaining budget, and the final bucket
// absorbs whatever is left, so the buckets always sum to total exactly. Only
// called with total > counted.
func redistribute(sev SeverityTotals, counted, total int) SeverityTotals {
	if counted == 0 {
		return SeverityTotals{Low: total}
	}

	buckets := [3]int{sev.High, sev.Medium, sev.Low}
	var out [3]int
	budget := total
	for i, count := range buckets {
		if i == len(buckets)-1 {
			out[i] = budget
			break
		}
		share := int(math.Round(float64(count) / float64(counted) * float64(total)))
		if share > budget {
			share = budget
		}
		out[i] = share
		budget -= share
	}
	return SeverityTotals{High: out[0], Medium: out[1], Low: out[2]}
}

// percent computes count's integer share of total, short-circuiting a zero
// denominator to 0.
func percent(count, total int) int {
	if total <= 0 || count <= 0 {
		return 0
	}
	return int(math.Round(float64(count) / float64(total) * 100))
}

func categoryKey(raw string) string {
	if raw == "" {
		return "other"
	}
	return raw
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if m[keys[i]] != m[keys[j]] {
			return m[keys[i]] > m[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}
