package xtray

import "errors"

var (
	// ErrSelectionOwned is returned by [Manager.Manage] when another process
	// owns the tray selection after the acquisition attempt.
	ErrSelectionOwned = errors.New("tray selection is owned by another client")

	// ErrAlreadyManaging is returned by [Manager.Manage] when the manager
	// already owns a selection.
	ErrAlreadyManaging = errors.New("manager is already managing a screen")

	// ErrNotManaging is returned by operations that require an owned
	// selection.
	ErrNotManaging = errors.New("manager is not managing a screen")

	// ErrUnknownIcon is returned when a window is not docked.
	ErrUnknownIcon = errors.New("icon not found")
)
