// Package app contains the launcher's application logic. It wires the
// configuration store, analyzer, provisioner and supervisor together and
// implements every command, including the interactive shell, decoupled from
// any specific entrypoint like a CLI.
package app
