package usecase

import "github.com/akihito104/yttt-sub001/domain/model"

// IDDiff is the set difference between two snapshots of a collection.
type IDDiff struct {
	Added   []model.PlatformID
	Removed []model.PlatformID
}

func (d IDDiff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// DiffIDs returns (next - prev, prev - next). Both results keep the order of
// their source slice and contain no duplicates.
func DiffIDs(prev, next []model.PlatformID) IDDiff {
	prevSet := toSet(prev)
	nextSet := toSet(next)
	return IDDiff{
		Added:   subtract(next, prevSet),
		Removed: subtract(prev, nextSet),
	}
}

func toSet(ids []model.PlatformID) map[model.PlatformID]struct{} {
	set := make(map[model.PlatformID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func subtract(ids []model.PlatformID, exclude map[model.PlatformID]struct{}) []model.PlatformID {
	var out []model.PlatformID
	seen := make(map[model.PlatformID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := exclude[id]; ok {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// filterByIDs keeps the items whose ID is in ids.
func filterByIDs[T model.Entity](items []T, ids []model.PlatformID) []T {
	set := toSet(ids)
	var out []T
	for _, item := range items {
		if _, ok := set[item.EntityID()]; ok {
			out = append(out, item)
		}
	}
	return out
}
