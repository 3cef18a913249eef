package domain

import (
	"fmt"
	"slices"
)

// The functions below are the only place where Boat, Owner and Harbour
// references change. Each one updates both sides of a relationship together
// so the two views can never disagree.

// LinkOwner records o as an owner of b. Linking a pair that is already linked
// changes nothing and reports false.
func LinkOwner(b *Boat, o *Owner) bool {
	if slices.Contains(b.OwnerIDs, o.ID) {
		// Repair a one-sided link rather than adding a duplicate.
		if !slices.Contains(o.BoatIDs, b.ID) {
			o.BoatIDs = append(o.BoatIDs, b.ID)
			return true
		}
		return false
	}
	b.OwnerIDs = append(b.OwnerIDs, o.ID)
	if !slices.Contains(o.BoatIDs, b.ID) {
		o.BoatIDs = append(o.BoatIDs, b.ID)
	}
	return true
}

// UnlinkOwner removes the ownership between b and o. A boat left without
// owners stays valid.
func UnlinkOwner(b *Boat, o *Owner) bool {
	before := len(b.OwnerIDs) + len(o.BoatIDs)
	b.OwnerIDs = without(b.OwnerIDs, o.ID)
	o.BoatIDs = without(o.BoatIDs, b.ID)
	return len(b.OwnerIDs)+len(o.BoatIDs) != before
}

// AssignHarbour berths b in to. current must be the harbour b is berthed in
// (nil when it has none). The target's capacity is checked before anything
// is touched, so a rejected assignment leaves b, current and to unchanged.
func AssignHarbour(b *Boat, current, to *Harbour) error {
	if b.HarbourID == to.ID {
		if slices.Contains(to.BoatIDs, b.ID) {
			return nil
		}
		// One-sided berth: re-adding the boat takes a free slot like any
		// other assignment.
		if err := checkRoom(to); err != nil {
			return err
		}
		to.BoatIDs = append(to.BoatIDs, b.ID)
		return nil
	}
	if current != nil && current.ID != b.HarbourID {
		return fmt.Errorf("%w: boat %s is not berthed in harbour %s", ErrBerthMismatch, b.ID, current.ID)
	}
	if err := checkRoom(to); err != nil {
		return err
	}

	if current != nil {
		current.BoatIDs = without(current.BoatIDs, b.ID)
	}
	to.BoatIDs = append(to.BoatIDs, b.ID)
	b.HarbourID = to.ID
	return nil
}

func checkRoom(h *Harbour) error {
	if len(h.BoatIDs) >= h.Capacity {
		return fmt.Errorf("%w: harbour %q already holds %d of %d boats",
			ErrCapacityExceeded, h.Name, len(h.BoatIDs), h.Capacity)
	}
	return nil
}

// ReleaseHarbour removes b from h. h must be the harbour b is berthed in.
func ReleaseHarbour(b *Boat, h *Harbour) {
	if h != nil {
		h.BoatIDs = without(h.BoatIDs, b.ID)
	}
	b.HarbourID = ""
}

func without(ids []string, id string) []string {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
