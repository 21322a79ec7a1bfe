package labs

import (
	"sort"
	"strings"
)

// Dataset is the immutable, in-memory lab collection loaded once at startup.
// Slices it returns are shared and must not be modified.
type Dataset struct {
	labs       []Lab
	schools    []string
	professors []string
}

// NewDataset copies records into a dataset, assigning each its Index.
func NewDataset(records []Lab) *Dataset {
	d := &Dataset{labs: make([]Lab, len(records))}
	schools := make(map[string]struct{})
	profs := make(map[string]struct{})
	for i, r := range records {
		r.Index = i
		d.labs[i] = r
		if r.School != "" {
			schools[r.School] = struct{}{}
		}
		if r.HasProfessor() {
			profs[r.Professor] = struct{}{}
		}
	}
	d.schools = sortedKeys(schools)
	d.professors = sortedKeys(profs)
	return d
}

// All returns every lab in dataset order.
func (d *Dataset) All() []Lab {
	if d == nil {
		return nil
	}
	return d.labs
}

// Len returns the number of labs.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.labs)
}

// At returns the lab at index i.
func (d *Dataset) At(i int) (Lab, bool) {
	if d == nil || i < 0 || i >= len(d.labs) {
		return Lab{}, false
	}
	return d.labs[i], true
}

// Schools returns the sorted distinct non-empty school names.
func (d *Dataset) Schools() []string {
	if d == nil {
		return nil
	}
	return d.schools
}

// Professors returns the sorted distinct professor names, excluding the
// "Unknown" sentinel.
func (d *Dataset) Professors() []string {
	if d == nil {
		return nil
	}
	return d.professors
}

// FindByName resolves a lab by name on a best-effort basis: a
// case-insensitive exact match wins, otherwise the first lab whose name
// contains the query or is contained by it.
func (d *Dataset) FindByName(name string) (Lab, bool) {
	q := strings.ToLower(strings.TrimSpace(name))
	if q == "" || d == nil {
		return Lab{}, false
	}
	for _, l := range d.labs {
		if strings.ToLower(l.Name) == q {
			return l, true
		}
	}
	for _, l := range d.labs {
		n := strings.ToLower(l.Name)
		if n != "" && (strings.Contains(n, q) || strings.Contains(q, n)) {
			return l, true
		}
	}
	return Lab{}, false
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
