// Package dom provides the in-memory document tree the runtime renders
// into: elements, text nodes, fragment parsing, CSS-style selector
// matching, and synthetic event dispatch with capture and bubble phases.
//
// The tree deliberately mirrors the browser surface the block code was
// written against. Re-rendering is a full SetInnerHTML replacement; there
// is no diffing. Selector support covers compound simple selectors
// (tag, .class, #id, [attr], [attr=value]) with descendant combinators
// and comma lists, which is all delegation needs.
//
// A Document and its nodes are not safe for concurrent mutation. Callers
// serialize access the way a browser main thread would; anything arriving
// on another goroutine (broadcast messages, timers) must be funnelled
// through the owner before it touches the tree.
package dom
