// Package state models per-file source-control state as a composite of four
// orthogonal dimensions plus the cache that merges deltas from individual
// operations. Each dimension carries an explicit Unset sentinel so workers
// can stage partial updates.
package state

import (
	"time"
)

// FileState corresponds to diff file states.
type FileState int

const (
	FileUnset FileState = iota
	FileUnknown
	FileAdded
	FileCopied
	FileDeleted
	FileModified
	FileRenamed
	FileMissing
	FileUnmerged
)

// TreeState describes where the file sits relative to the working tree and index.
type TreeState int

const (
	TreeUnset TreeState = iota

	// TreeUnmodified means the file is synced to commit
	TreeUnmodified

	// TreeWorking means the file is modified, but not in the staging tree
	TreeWorking

	// TreeStaged means the file is in the staging tree (git add)
	TreeStaged

	// TreeUntracked means the file is not tracked in the repo yet
	TreeUntracked

	// TreeIgnored means the file is ignored by the repo
	TreeIgnored

	// TreeNotInRepo means the file is outside the repo folder
	TreeNotInRepo
)

// LockState is the LFS lock status of a file relative to the lock user.
type LockState int

const (
	LockUnset LockState = iota
	LockUnknown
	LockUnlockable
	LockNotLocked
	LockLocked
	LockLockedOther
)

// RemoteState describes what the file is doing at HEAD.
type RemoteState int

const (
	RemoteUnset RemoteState = iota

	// RemoteUpToDate means local matches the tracked branches
	RemoteUpToDate

	// RemoteNotAtHead means the local version is behind the current upstream
	RemoteNotAtHead

	// RemoteNotLatest means the file changed on another tracked status branch
	RemoteNotLatest
)

// PendingResolveInfo carries the three-stage conflict metadata recorded for
// unmerged files, parsed from `ls-files --unmerged`.
type PendingResolveInfo struct {
	BaseFile   string
	BaseHash   string
	RemoteFile string
	RemoteHash string
}

// State is the composite per-file source-control state.
type State struct {
	// Path is the absolute local filename this state describes
	Path string

	File   FileState
	Tree   TreeState
	Lock   LockState
	Remote RemoteState

	// LockOwner is the name of the user who holds the LFS lock, if any
	LockOwner string

	// HeadBranch is the branch with the latest commit for this file when
	// Remote is NotAtHead or NotLatest
	HeadBranch string

	// HeadAction describes what happened to the file on HeadBranch
	HeadAction string

	PendingResolve PendingResolveInfo

	History []*Revision

	TimeStamp time.Time
}

// NewState returns the default state for a path: nothing is known about the
// file until a status run reports on it.
func NewState(path string) *State {
	return &State{
		Path:   path,
		File:   FileUnknown,
		Tree:   TreeNotInRepo,
		Lock:   LockUnknown,
		Remote: RemoteUpToDate,
	}
}

// IsSourceControlled reports whether the file is tracked by the repository.
func (s *State) IsSourceControlled() bool {
	return s.Tree != TreeUntracked && s.Tree != TreeIgnored && s.Tree != TreeNotInRepo
}

// IsAdded reports whether the file was untracked and is now added.
func (s *State) IsAdded() bool {
	return s.File == FileAdded
}

// IsDeleted reports whether the file is marked for delete.
func (s *State) IsDeleted() bool {
	return s.File == FileDeleted
}

// IsIgnored reports whether the file is ignored by the repository.
func (s *State) IsIgnored() bool {
	return s.Tree == TreeIgnored
}

// IsUnknown reports whether nothing is known about the file yet.
func (s *State) IsUnknown() bool {
	return s.File == FileUnknown && s.Tree == TreeNotInRepo
}

// IsModified reports whether the file carries local changes, staged or not.
func (s *State) IsModified() bool {
	return s.Tree == TreeWorking || s.Tree == TreeStaged
}

// IsConflicted reports whether the file is unmerged.
func (s *State) IsConflicted() bool {
	return s.File == FileUnmerged
}

// IsCurrent reports whether the file is at the latest revision across the
// tracked branches.
func (s *State) IsCurrent() bool {
	return s.Remote != RemoteNotAtHead && s.Remote != RemoteNotLatest
}

// CanAdd reports whether the file can be marked for add.
func (s *State) CanAdd() bool {
	return s.Tree == TreeUntracked
}

// CanCheckIn reports whether the file can be submitted.
func (s *State) CanCheckIn() bool {
	// We can check in if this is new content
	if s.IsAdded() {
		return true
	}

	// Cannot check back in if conflicted or not current
	if !s.IsCurrent() || s.IsConflicted() {
		return false
	}

	// We can check back in if we're locked.
	if s.Lock == LockLocked {
		return true
	}

	// We can check in any file that has been modified, unless someone else locked it.
	return s.Lock != LockLockedOther && s.IsModified() && s.IsSourceControlled()
}

// CanCheckout reports whether the file can be locked for exclusive editing.
func (s *State) CanCheckout() bool {
	if s.Lock == LockUnlockable {
		// Everything is already available for check in (checked out).
		return false
	}
	// Don't allow checkout of an out-of-date file: modifying an out-of-date
	// binary file will most likely end in a merge conflict.
	return s.Lock == LockNotLocked && s.IsCurrent()
}

// IsCheckedOut reports whether the file is held for editing by the lock user.
func (s *State) IsCheckedOut() bool {
	if s.Lock == LockUnlockable {
		return s.IsSourceControlled()
	}
	// Modified counts too: sometimes you don't lock a file but still want to
	// push it. CanCheckout stays true so it can be locked later.
	return s.Lock == LockLocked || (s.File == FileModified && s.Lock != LockLockedOther)
}

// IsCheckedOutOther reports whether someone else holds the lock, and by whom.
func (s *State) IsCheckedOutOther() (bool, string) {
	who := ""
	if s.Lock == LockLockedOther || (s.Lock == LockLocked && s.Remote != RemoteNotLatest) {
		who = s.LockOwner
	}
	return s.Lock == LockLockedOther, who
}

// CanRevert reports whether the file has local state worth discarding. A file
// locked by someone else can still be reverted locally.
func (s *State) CanRevert() bool {
	return s.CanCheckIn() || s.IsModified()
}

// CanDelete reports whether the file can be marked for delete.
func (s *State) CanDelete() bool {
	if !s.IsCurrent() {
		return false
	}
	other, _ := s.IsCheckedOutOther()
	return !other && s.IsSourceControlled()
}
