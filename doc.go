// Package xtray is a toolkit-agnostic implementation of the host side of the
// freedesktop.org [System Tray Protocol]. It provides services for system tray
// hosts (panels, docks). This package does not provide capabilities for tray
// icons (clients), it is intended to be used for building system trays
// themselves.
//
// # Usage
//
// System tray consists of a [Manager], the [Socket] instances it embeds, and
// one or more [Listener] values supplied by the host:
//   - [Manager] claims the _NET_SYSTEM_TRAY_S<n> selection of a screen,
//     accepts dock requests and reassembles balloon messages. One manager may
//     own the selection of a screen at a time.
//   - [Socket] is the embedding handle of a docked icon. The host must call
//     [Socket.Attach] from [Listener.IconAdded] to put the icon into a live
//     window, otherwise the dock request is dropped.
//   - [Listener] receives icon and message events synchronously, in arrival
//     order, on the goroutine that dispatches X events.
//
// The display server is reached through [Display]. Package
// github.com/shelepuginivan/xtray/x11 implements it on top of xgb.
//
// In addition to the base protocol, package xtray can export the tray state
// on D-Bus (see [Service]) and consume such an export (see [Client]).
//
// [System Tray Protocol]: https://specifications.freedesktop.org/systemtray-spec/latest/
package xtray
