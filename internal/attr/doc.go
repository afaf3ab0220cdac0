// Package attr defines the attribute forest handed over by the calling
// kernel: ordered key/value Nodes collected into named Groups, which nest
// into Forests through their Child list.
//
// Names are compared case-insensitively. An Index normalizes the names of
// one group once so the codec can answer reserved-name and indexed lookups
// without repeated string folding.
package attr
