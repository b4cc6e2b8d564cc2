// Copyright (c) 2026 The Serval Project
// SPDX-License-Identifier: MIT

package serval

// Log is the ambient logging collaborator, modeled on davidcoles/cue's
// log.Log: one method per syslog-style severity, injected by the
// embedder rather than hard-wired to a concrete backend.
type Log interface {
	EMERG(string, ...any)
	ALERT(string, ...any)
	CRIT(string, ...any)
	ERR(string, ...any)
	WARNING(string, ...any)
	NOTICE(string, ...any)
	INFO(string, ...any)
	DEBUG(string, ...any)
}

// Nil is a Log that discards everything; the zero value is ready to use.
type Nil struct{}

func (Nil) EMERG(string, ...any)   {}
func (Nil) ALERT(string, ...any)   {}
func (Nil) CRIT(string, ...any)    {}
func (Nil) ERR(string, ...any)     {}
func (Nil) WARNING(string, ...any) {}
func (Nil) NOTICE(string, ...any)  {}
func (Nil) INFO(string, ...any)    {}
func (Nil) DEBUG(string, ...any)   {}
