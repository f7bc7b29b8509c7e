package services

import "github.com/wadjakorntonsri/ecli-publisher/pkg/core/domain"

// Decision tells the caller what to do with a granted hash-link access.
type Decision int

const (
	// Serve the document without counting the view.
	DecisionServe Decision = iota
	// Send the requester to the canonical public URL.
	DecisionRedirect
	// Count one anonymous view, then serve.
	DecisionCount
)

func (d Decision) String() string {
	switch d {
	case DecisionRedirect:
		return "redirect"
	case DecisionCount:
		return "count"
	}
	return "serve"
}

// CheckAccess applies the hash-link policy. The order of the checks matters:
// moderators are never throttled, and deleted documents look like missing ones.
func CheckAccess(doc *domain.Document, p domain.Privilege, maxViews int) (Decision, error) {
	if p == domain.PrivilegeAdmin {
		return DecisionServe, nil
	}
	switch doc.Status {
	case domain.StatusPublic:
		return DecisionRedirect, nil
	case domain.StatusDeleted:
		return 0, domain.ErrNotFound
	case domain.StatusNew, domain.StatusHidden:
	default:
		return 0, domain.ErrLocked
	}
	if doc.ViewsHash >= int64(maxViews) {
		return 0, domain.ErrLocked
	}
	return DecisionCount, nil
}
