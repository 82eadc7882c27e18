package domain

type Status string

const (
	StatusPending              Status = "pending"
	StatusConfirmed            Status = "confirmed"
	StatusInProgress           Status = "in_progress"
	StatusPendingCODCollection Status = "pending_cod_collection"
	StatusCompleted            Status = "completed"
	StatusCancelled            Status = "cancelled"
	StatusDisputed             Status = "disputed"
)

// mainChain orders the forward statuses; a booking may skip ahead but
// never move back.
var mainChain = map[Status]int{
	StatusPending:              0,
	StatusConfirmed:            1,
	StatusInProgress:           2,
	StatusPendingCODCollection: 3,
	StatusCompleted:            4,
}

var statuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusInProgress,
	StatusPendingCODCollection,
	StatusCompleted,
	StatusCancelled,
	StatusDisputed,
}

// Statuses lists every booking status in lifecycle order.
func Statuses() []Status {
	out := make([]Status, len(statuses))
	copy(out, statuses)
	return out
}

func (s Status) Valid() bool {
	for _, status := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether a caller may request moving a booking in
// from to to. Requesting the current status is always allowed and treated
// as a no-op.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	if from.Terminal() {
		return false
	}
	// Only the completion rules park a booking awaiting doorstep cash.
	if to == StatusPendingCODCollection {
		return false
	}

	switch to {
	case StatusCancelled:
		return true
	case StatusDisputed:
		return from != StatusDisputed
	}

	if from == StatusDisputed {
		return to == StatusCompleted
	}

	fromRank, fromOK := mainChain[from]
	toRank, toOK := mainChain[to]
	return fromOK && toOK && toRank > fromRank
}
