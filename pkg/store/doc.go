// Package store holds the editable layer-tree document.
//
// A Store owns one domain.Document and exposes the mutation API used by
// editors: adding, duplicating, moving, updating and removing layers and
// pages, selection, and variable management. Mutations are computed with
// the pure functions of package tree, so every committed snapshot shares
// unchanged subtrees with its predecessor. Snapshots are recorded by a
// history.Manager, which makes Undo and Redo cheap and lets identical
// results be ignored.
//
// Not-found targets are logged and reported with wrapped sentinel errors
// from package domain; the document is left untouched. Removing the last
// page is refused with domain.ErrLastPage.
package store
