package scheduler

// ConflictType describes the type of conflict detected between bookings.
type ConflictType string

const (
	// ConflictTypeSlot indicates the candidate holds the same slot as an existing booking.
	ConflictTypeSlot ConflictType = "slot"
)

// Conflict details a booking that already occupies the candidate's slot.
type Conflict struct {
	WithBookingID string
	Type          ConflictType
	Date          Date
	Start         ClockTime
	End           ClockTime
}

// DetectConflicts identifies non-cancelled bookings holding the candidate's
// exact slot on the same date.
func DetectConflicts(existing []BookedSlot, candidate BookedSlot) []Conflict {
	if candidate.Cancelled {
		return nil
	}

	var conflicts []Conflict
	for _, slot := range existing {
		if slot.Cancelled {
			continue
		}
		if candidate.BookingID != "" && slot.BookingID == candidate.BookingID {
			continue
		}
		if slot.Date != candidate.Date || slot.Start != candidate.Start || slot.End != candidate.End {
			continue
		}
		conflicts = append(conflicts, Conflict{
			WithBookingID: slot.BookingID,
			Type:          ConflictTypeSlot,
			Date:          slot.Date,
			Start:         slot.Start,
			End:           slot.End,
		})
	}
	return conflicts
}
