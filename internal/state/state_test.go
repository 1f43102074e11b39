package state

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewStateDefaults(t *testing.T) {
	s := NewState("/work/project/Content/Hero.uasset")
	require.Equal(t, FileUnknown, s.File)
	require.Equal(t, TreeNotInRepo, s.Tree)
	require.Equal(t, LockUnknown, s.Lock)
	require.Equal(t, RemoteUpToDate, s.Remote)
	require.True(t, s.IsUnknown())
	require.False(t, s.IsSourceControlled())
}

func TestPredicates(t *testing.T) {
	s := NewState("f")
	s.Tree = TreeUntracked
	require.True(t, s.CanAdd())
	require.False(t, s.IsSourceControlled())

	s.Tree = TreeWorking
	s.File = FileModified
	require.True(t, s.IsModified())
	require.True(t, s.IsSourceControlled())
	require.True(t, s.CanRevert())

	s.File = FileUnmerged
	require.True(t, s.IsConflicted())
	require.False(t, s.CanCheckIn())
}

func TestCanCheckIn(t *testing.T) {
	added := NewState("f")
	added.File = FileAdded
	added.Tree = TreeStaged
	require.True(t, added.CanCheckIn())

	// Out of date blocks checkin even when locked
	stale := NewState("f")
	stale.File = FileModified
	stale.Tree = TreeWorking
	stale.Lock = LockLocked
	stale.Remote = RemoteNotAtHead
	require.False(t, stale.CanCheckIn())

	locked := NewState("f")
	locked.Tree = TreeUnmodified
	locked.Lock = LockLocked
	require.True(t, locked.CanCheckIn())

	lockedOther := NewState("f")
	lockedOther.File = FileModified
	lockedOther.Tree = TreeWorking
	lockedOther.Lock = LockLockedOther
	require.False(t, lockedOther.CanCheckIn())
}

func TestCanCheckout(t *testing.T) {
	s := NewState("f")
	s.Tree = TreeUnmodified
	s.Lock = LockNotLocked
	require.True(t, s.CanCheckout())

	s.Remote = RemoteNotLatest
	require.False(t, s.CanCheckout())

	s.Remote = RemoteUpToDate
	s.Lock = LockUnlockable
	require.False(t, s.CanCheckout())
}

func TestIsCheckedOut(t *testing.T) {
	s := NewState("f")
	s.Tree = TreeUnmodified
	s.Lock = LockLocked
	require.True(t, s.IsCheckedOut())

	// Modified but unlocked still counts as held for edit
	s.Lock = LockNotLocked
	s.File = FileModified
	require.True(t, s.IsCheckedOut())

	s.Lock = LockLockedOther
	require.False(t, s.IsCheckedOut())

	other, who := s.IsCheckedOutOther()
	require.True(t, other)
	require.Equal(t, s.LockOwner, who)
}

func TestCanDelete(t *testing.T) {
	s := NewState("f")
	s.Tree = TreeUnmodified
	s.Lock = LockNotLocked
	require.True(t, s.CanDelete())

	s.Lock = LockLockedOther
	require.False(t, s.CanDelete())

	s.Lock = LockNotLocked
	s.Remote = RemoteNotAtHead
	require.False(t, s.CanDelete())
}
