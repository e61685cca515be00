// Package config persists the launcher's settings between invocations.
//
// The record is a small HCL file next to the executable holding the projects
// root and optional analyzer and notify blocks. Loading never fails: a
// missing, unreadable or stale record falls back to the default projects
// folder. A record in the older JSON format is imported when no HCL record
// exists yet.
package config
