package sync

import (
	"slices"

	"github.com/stacklok/toolhive-content-sync/internal/content"
	"github.com/stacklok/toolhive-content-sync/internal/sync/writer"
)

// Diff is the set difference between a repository and one provider listing
type Diff struct {
	ToAdd     content.IdentitySet
	ToRemove  content.IdentitySet
	Unchanged content.IdentitySet
}

// ComputeDiff compares the identities a repository holds with the
// identities a provider reports.
func ComputeDiff(existing, reported content.IdentitySet) Diff {
	return Diff{
		ToAdd:     reported.Minus(existing),
		ToRemove:  existing.Minus(reported),
		Unchanged: existing.Intersect(reported),
	}
}

// ProviderReport is the listing of one provider in a run. Err is set when
// the provider could not be listed, in which case Packages is empty.
type ProviderReport struct {
	Provider string
	Packages []content.PackageDescriptor
	Err      error
}

// Succeeded reports whether the provider was listed
func (r ProviderReport) Succeeded() bool {
	return r.Err == nil
}

// Candidate is one provider's offer of a package
type Candidate struct {
	Provider   string
	Descriptor content.PackageDescriptor
}

// Addition is a package to add together with the providers offering it, in
// repository provider order
type Addition struct {
	Identity   content.PackageIdentity
	Candidates []Candidate
}

// Providers returns the names of the providers offering the package
func (a Addition) Providers() []string {
	out := make([]string, 0, len(a.Candidates))
	for _, c := range a.Candidates {
		out = append(out, c.Provider)
	}
	return out
}

// ProvenanceUpdate replaces the provider list of an association
type ProvenanceUpdate = writer.ProvenanceUpdate

// Conflict is a package that providers describe differently
type Conflict struct {
	Identity   content.PackageIdentity
	Candidates []Candidate
}

// MergedDiff is the combined outcome of every provider listing
type MergedDiff struct {
	ToAdd             []Addition
	ToRemove          []content.Association
	Unchanged         []content.Association
	ProvenanceUpdates []ProvenanceUpdate
	Conflicts         []Conflict

	// AllFailed is set when no provider could be listed. Nothing is added or
	// removed in that case.
	AllFailed bool
}

// MergeReports combines the provider listings of a run with the existing
// associations of the repository. Reports must be in repository provider
// order; that order decides which provider is tried first for a fetch.
//
// Additions are the union over successful reports. An existing package is
// removed only when no successful provider reports it and none of the
// providers that reported it last time failed now. A package with unknown
// provenance is kept whenever any provider failed.
func MergeReports(existing []content.Association, reports []ProviderReport) MergedDiff {
	order := make([]string, 0, len(reports))
	failed := make(map[string]bool)
	for _, r := range reports {
		order = append(order, r.Provider)
		if !r.Succeeded() {
			failed[r.Provider] = true
		}
	}

	if len(failed) == len(reports) {
		return MergedDiff{
			Unchanged: slices.Clone(existing),
			AllFailed: true,
		}
	}

	candidates := make(map[content.PackageIdentity][]Candidate)
	for _, r := range reports {
		if !r.Succeeded() {
			continue
		}
		seen := make(content.IdentitySet, len(r.Packages))
		for _, desc := range r.Packages {
			id := desc.Identity()
			if seen.Has(id) {
				continue
			}
			seen.Add(id)
			candidates[id] = append(candidates[id], Candidate{Provider: r.Provider, Descriptor: desc})
		}
	}

	var merged MergedDiff
	existingIDs := content.IdentitiesOf(existing)

	reported := make(content.IdentitySet, len(candidates))
	for id := range candidates {
		reported.Add(id)
	}
	for _, id := range reported.Sorted() {
		cands := candidates[id]
		if hasConflict(cands) {
			merged.Conflicts = append(merged.Conflicts, Conflict{Identity: id, Candidates: cands})
		}
		if !existingIDs.Has(id) {
			merged.ToAdd = append(merged.ToAdd, Addition{Identity: id, Candidates: cands})
		}
	}

	sorted := slices.Clone(existing)
	slices.SortFunc(sorted, func(a, b content.Association) int { return a.Identity.Compare(b.Identity) })

	for _, assoc := range sorted {
		var retained []string
		for _, p := range assoc.Providers {
			if failed[p] {
				retained = append(retained, p)
			}
		}

		reporters := make(map[string]bool)
		for _, c := range candidates[assoc.Identity] {
			reporters[c.Provider] = true
		}

		if len(reporters) == 0 && len(retained) == 0 && !(len(assoc.Providers) == 0 && len(failed) > 0) {
			merged.ToRemove = append(merged.ToRemove, assoc)
			continue
		}

		merged.Unchanged = append(merged.Unchanged, assoc)

		keep := make(map[string]bool, len(reporters)+len(retained))
		for p := range reporters {
			keep[p] = true
		}
		for _, p := range retained {
			keep[p] = true
		}
		provenance := make([]string, 0, len(keep))
		for _, p := range order {
			if keep[p] {
				provenance = append(provenance, p)
			}
		}
		if !sameProviders(assoc.Providers, provenance) {
			merged.ProvenanceUpdates = append(merged.ProvenanceUpdates, ProvenanceUpdate{
				Association: assoc,
				Providers:   provenance,
			})
		}
	}

	return merged
}

func hasConflict(cands []Candidate) bool {
	for _, c := range cands[1:] {
		if !cands[0].Descriptor.SameContent(c.Descriptor) {
			return true
		}
	}
	return false
}

// sameProviders compares provider lists ignoring order
func sameProviders(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x, y := slices.Clone(a), slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}
