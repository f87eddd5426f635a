package models

import "fmt"

// ModerationStatus gates tuition visibility. Pending is entry-only: a
// request can never be moved back to Pending once moderated.
type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "pending"
	ModerationApproved ModerationStatus = "approved"
	ModerationRejected ModerationStatus = "rejected"
)

func ParseModerationStatus(raw string) (ModerationStatus, error) {
	switch ModerationStatus(raw) {
	case ModerationPending, ModerationApproved, ModerationRejected:
		return ModerationStatus(raw), nil
	}
	return "", fmt.Errorf("unknown moderation status %q", raw)
}

// ModerationPredecessors lists the statuses a request may hold when being
// moved to the given target. Re-applying the same terminal value is listed
// so duplicate admin clicks succeed as no-ops; Rejected→Approved lets an
// admin reconsider.
func ModerationPredecessors(target ModerationStatus) []ModerationStatus {
	switch target {
	case ModerationApproved:
		return []ModerationStatus{ModerationPending, ModerationRejected, ModerationApproved}
	case ModerationRejected:
		return []ModerationStatus{ModerationPending, ModerationRejected}
	}
	return nil
}

// ApplicationStatus is the tutor-application lifecycle state. Rejected and
// Confirmed are terminal.
type ApplicationStatus string

const (
	ApplicationRequested ApplicationStatus = "requested"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationApproved  ApplicationStatus = "approved"
	ApplicationPaid      ApplicationStatus = "paid"
	ApplicationConfirmed ApplicationStatus = "confirmed"
)

func ParseApplicationStatus(raw string) (ApplicationStatus, error) {
	switch ApplicationStatus(raw) {
	case ApplicationRequested, ApplicationRejected, ApplicationApproved, ApplicationPaid, ApplicationConfirmed:
		return ApplicationStatus(raw), nil
	}
	return "", fmt.Errorf("unknown application status %q", raw)
}

// applicationTransitions is the single authoritative transition table:
// target status to the set of statuses it is reachable from.
var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationApproved:  {ApplicationRequested},
	ApplicationRejected:  {ApplicationRequested, ApplicationApproved},
	ApplicationPaid:      {ApplicationApproved},
	ApplicationConfirmed: {ApplicationPaid},
}

func ApplicationPredecessors(target ApplicationStatus) []ApplicationStatus {
	return applicationTransitions[target]
}

func CanTransition(from, to ApplicationStatus) bool {
	for _, allowed := range applicationTransitions[to] {
		if allowed == from {
			return true
		}
	}
	return false
}

// Deletable statuses: an application is removable only before settlement.
func (s ApplicationStatus) Deletable() bool {
	return s == ApplicationRequested || s == ApplicationApproved
}
