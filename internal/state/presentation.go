package state

// Presentation is the consolidated, priority-ordered state shown to the host.
type Presentation int

const (
	PresentationUnset Presentation = iota
	PresentationNotAtHead
	PresentationLockedOther
	PresentationNotLatest

	// PresentationUnmerged is the conflicted state (modified, with conflicts)
	PresentationUnmerged
	PresentationAdded
	PresentationDeleted
	PresentationModified

	// PresentationCheckedOut means not modified, but locked explicitly
	PresentationCheckedOut
	PresentationUntracked
	PresentationLockable
	PresentationUnmodified
	PresentationIgnored

	PresentationNone
)

var presentationNames = map[Presentation]string{
	PresentationUnset:       "Unset",
	PresentationNotAtHead:   "NotAtHead",
	PresentationLockedOther: "LockedOther",
	PresentationNotLatest:   "NotLatest",
	PresentationUnmerged:    "Unmerged",
	PresentationAdded:       "Added",
	PresentationDeleted:     "Deleted",
	PresentationModified:    "Modified",
	PresentationCheckedOut:  "CheckedOut",
	PresentationUntracked:   "Untracked",
	PresentationLockable:    "Lockable",
	PresentationUnmodified:  "Unmodified",
	PresentationIgnored:     "Ignored",
	PresentationNone:        "None",
}

func (p Presentation) String() string {
	if name, ok := presentationNames[p]; ok {
		return name
	}
	return "Unset"
}

// Presentation computes the consolidated state from the composite by a fixed
// priority cascade. It is a pure function of the composite tuple; the host UI
// depends on this ordering.
func (s *State) Presentation() Presentation {
	// No matter what, we must pull from remote, even if we have locked or
	// modified the file.
	if s.Remote == RemoteNotAtHead {
		return PresentationNotAtHead
	}

	// We cannot push under any circumstance if someone else has locked.
	if s.Lock == LockLockedOther {
		return PresentationLockedOther
	}

	// We could theoretically push, but we shouldn't.
	if s.Remote == RemoteNotLatest {
		return PresentationNotLatest
	}

	switch s.File {
	case FileUnmerged:
		return PresentationUnmerged
	case FileAdded:
		return PresentationAdded
	case FileDeleted:
		return PresentationDeleted
	case FileModified:
		return PresentationModified
	}

	if s.Tree == TreeUntracked {
		return PresentationUntracked
	}

	if s.Lock == LockLocked {
		return PresentationCheckedOut
	}

	if s.IsSourceControlled() {
		if s.CanCheckout() {
			return PresentationLockable
		}
		return PresentationUnmodified
	}

	return PresentationNone
}
