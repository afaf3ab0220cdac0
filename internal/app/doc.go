// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the two operations the kernel exposes:
// running a service function through the bridge and converting a forest
// into its object graph. It is decoupled from any specific entrypoint like
// a CLI.
package app
