package dto

import "github.com/akihito104/yttt-sub001/domain/model"

// LoadType is the kind of load request issued against a paged list.
type LoadType int

const (
	LoadRefresh LoadType = iota
	LoadAppend
	LoadPrepend
)

func (t LoadType) String() string {
	switch t {
	case LoadRefresh:
		return "refresh"
	case LoadAppend:
		return "append"
	case LoadPrepend:
		return "prepend"
	}
	return "unknown"
}

// ParseLoadType accepts the names produced by String.
func ParseLoadType(s string) (LoadType, bool) {
	switch s {
	case "", "refresh":
		return LoadRefresh, true
	case "append":
		return LoadAppend, true
	case "prepend":
		return LoadPrepend, true
	}
	return LoadRefresh, false
}

// InitializeAction tells the caller whether a paged list must be refreshed
// before its cached rows are served.
type InitializeAction int

const (
	LaunchInitialRefresh InitializeAction = iota
	SkipInitialRefresh
)

func (a InitializeAction) String() string {
	if a == SkipInitialRefresh {
		return "skip_initial_refresh"
	}
	return "launch_initial_refresh"
}

// PageResult is the successful outcome of a load request.
type PageResult struct {
	EndOfPaginationReached bool `json:"end_of_pagination_reached"`
}

// Page is one page returned by a platform client.
type Page[T any] struct {
	Items         []T
	NextPageToken string
	ETag          string
	CacheControl  model.CacheControl
}
