package types

// ItemState is the merge bookkeeping of one ResourceItem. The states encode
// the legal combinations of the written, touched and removed flags:
//
//	ItemStateTouched    live, never emitted
//	ItemStateWritten    live, emitted and unchanged since
//	ItemStateUpdated    live, emitted before and changed since
//	ItemStateRemoved    tombstone whose removal a writer still has to emit
//	ItemStateDiscarded  tombstone that was never emitted
type ItemState uint8

const (
	ItemStateTouched ItemState = iota
	ItemStateWritten
	ItemStateUpdated
	ItemStateRemoved
	ItemStateDiscarded
)

var itemStateNames = map[ItemState]string{
	ItemStateTouched:   "touched",
	ItemStateWritten:   "written",
	ItemStateUpdated:   "updated",
	ItemStateRemoved:   "removed",
	ItemStateDiscarded: "discarded",
}

func (s ItemState) String() string {
	if name, ok := itemStateNames[s]; ok {
		return name
	}
	return "unknown"
}

func ParseItemState(value string) (ItemState, bool) {
	for state, name := range itemStateNames {
		if name == value {
			return state, true
		}
	}
	return 0, false
}

// IsWritten reports whether a previous pass emitted the item.
func (s ItemState) IsWritten() bool {
	return s == ItemStateWritten || s == ItemStateUpdated || s == ItemStateRemoved
}

// IsTouched reports whether the item content must be (re)emitted.
func (s ItemState) IsTouched() bool {
	return s == ItemStateTouched || s == ItemStateUpdated
}

func (s ItemState) IsRemoved() bool {
	return s == ItemStateRemoved || s == ItemStateDiscarded
}

// Touch marks a live item as changed. Tombstones stay tombstones.
func (s ItemState) Touch() ItemState {
	switch s {
	case ItemStateWritten:
		return ItemStateUpdated
	default:
		return s
	}
}

// Remove tombstones the item.
func (s ItemState) Remove() ItemState {
	switch s {
	case ItemStateTouched, ItemStateDiscarded:
		return ItemStateDiscarded
	default:
		return ItemStateRemoved
	}
}

// MarkWritten records that a writer consumed the item. It must not be called
// on tombstones; those are purged instead.
func (s ItemState) MarkWritten() ItemState {
	if s.IsRemoved() {
		return s
	}
	return ItemStateWritten
}
