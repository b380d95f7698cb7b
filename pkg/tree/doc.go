/*
Package tree implements traversal and pure mutation algorithms over layer trees.

Every function treats its input as immutable. Mutations return a new root
slice in which only the nodes on the path to the change are rebuilt; every
other subtree is shared with the input by pointer. Callers can therefore
keep old roots around (for undo) at the cost of the changed path only.
*/
package tree
