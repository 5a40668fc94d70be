// Package texdoc provides the LaTeX-aware document handle that the
// reference session and the scanners operate on.
//
// A Document wraps a text buffer together with a marker set, so every
// region handed out by Insert, Highlight, or a Transaction stays valid
// while the text around it changes length. On top of that it supplies
// the small LaTeX surface the rest of the tool needs: unescaped-aware
// label search, comment and escape queries, the in-reference-argument
// check, visual line bounds, a position history, hidden regions, a
// status sink, and a highlight overlay registry with opaque handles.
//
// Documents are either bases or read-only clones. CloneReadOnly returns
// a clone sharing the base's text and markers, with its own cursor, so
// a scan walking the clone observes every edit made through the base
// while the base cursor stays put. Clones reject mutation with
// ErrReadOnly and must be closed when no longer needed.
package texdoc
