// Package registry provides the central "glue" for the engine system.
//
// The Registry maps the language names and file extensions used to select a
// script engine to the process-wide engine.Runtime that owns it. Modules
// register their engines at startup; duplicate registrations are programmer
// errors and panic.
package registry
