/*
Package domain contains the core data model of the Arbor layer-tree engine.

It defines the fundamental entities of a builder document: layers, their
props and children, variables and the document aggregate itself. This package
is kept pure and free of external dependencies like I/O or persistence,
following Hexagonal Architecture principles.

# Key Entities

  - Layer: A node in the document tree (one component instance).
  - Children: Either an ordered list of layers, literal text, a variable
    reference, or absent.
  - PropValue: Tagged union of Literal, VariableRef, PropMap, Sequence and
    FunctionRef prop values.
  - Variable: A named, typed value that props may reference by id.
  - Document: The aggregate of pages, selection cursor and variables.

Layers are treated as immutable once they are part of a published tree.
Mutations build new nodes along the path to the change and share every
untouched subtree by pointer.
*/
package domain
