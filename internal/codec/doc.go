// Package codec converts attribute forests into object graphs and writes
// object graphs back into attribute forests.
//
// A group converts in one of two modes, decided only by the presence of an
// isArray node:
//
//   - scalar mode: every node becomes a string property named after the
//     node. When the group carries a size node, nodes whose name starts with
//     "value" are read as exactly size raw bytes.
//   - array mode: length gives the element count N. For every index below N
//     the indexed value node and the indexed type-tag node are appended to
//     the "value" and <tag> arrays; missing indices are skipped, not padded,
//     so the two arrays may drift apart. Remaining nodes that do not start
//     with "value", "size" or the tag name pass through as strings.
//
// Nested child forests are converted recursively and attached under a
// "child" property of the owning group's object.
package codec
