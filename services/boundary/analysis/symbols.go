// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package analysis

import (
	"sync"

	"github.com/AleutianAI/tsboundary/services/boundary/checker"
)

// DirectoryNames are the source names of the well-known symbols.
type DirectoryNames struct {
	// ServerDirective and ClientDirective are the boolean directive
	// identifiers, "$SERVER" and "$CLIENT".
	ServerDirective string
	ClientDirective string

	// ServerDecorator, ClientDecorator and HostDecorator are the method
	// decorator factories, "Server", "Client" and "Host".
	ServerDecorator string
	ClientDecorator string
	HostDecorator   string

	// Environment is the runtime type exposing the implicit query
	// methods, "Game", with IsServerMethod and IsClientMethod members.
	Environment    string
	IsServerMethod string
	IsClientMethod string

	// Behaviour is the component base class, "AirshipBehaviour".
	Behaviour string

	// Modules are module specifiers searched, in order, for names that
	// are not declared globally.
	Modules []string
}

// DefaultDirectoryNames returns the Airship names.
func DefaultDirectoryNames() DirectoryNames {
	return DirectoryNames{
		ServerDirective: "$SERVER",
		ClientDirective: "$CLIENT",
		ServerDecorator: "Server",
		ClientDecorator: "Client",
		HostDecorator:   "Host",
		Environment:     "Game",
		IsServerMethod:  "IsServer",
		IsClientMethod:  "IsClient",
		Behaviour:       "AirshipBehaviour",
	}
}

// SymbolDirectory caches the well-known symbols of the current program.
//
// Description:
//
//	Every lookup compares by symbol identity, so the directory must be
//	refreshed against the checker of the program being analyzed before
//	any query. Refresh recomputes every entry; nothing is carried over
//	from a previous program. A symbol that cannot be resolved is nil.
//
// Thread Safety:
//
//	Safe for concurrent use. Callers that refresh and then analyze should
//	not interleave with a refresh for a different program.
type SymbolDirectory struct {
	names DirectoryNames

	mu              sync.RWMutex
	generation      uint64
	serverDirective *checker.Symbol
	clientDirective *checker.Symbol
	serverDecorator *checker.Symbol
	clientDecorator *checker.Symbol
	hostDecorator   *checker.Symbol
	environment     *checker.Symbol
	isServerMethod  *checker.Symbol
	isClientMethod  *checker.Symbol
	behaviour       *checker.Symbol
}

// NewSymbolDirectory creates an empty directory for the given names.
func NewSymbolDirectory(names DirectoryNames) *SymbolDirectory {
	return &SymbolDirectory{names: names}
}

// Names returns the configured names.
func (d *SymbolDirectory) Names() DirectoryNames {
	return d.names
}

// Generation counts completed refreshes.
func (d *SymbolDirectory) Generation() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.generation
}

// Refresh resolves every well-known symbol against c.
func (d *SymbolDirectory) Refresh(c *checker.Checker) {
	resolve := func(name string) *checker.Symbol {
		if name == "" {
			return nil
		}
		if sym := c.SkipAlias(c.ResolveName(name, nil)); sym != nil {
			return sym
		}
		for _, spec := range d.names.Modules {
			mod := c.ResolveModule(spec, nil)
			if mod == nil {
				continue
			}
			if sym := c.SkipAlias(c.MemberOfType(checker.TypeRef{Symbol: mod, Static: true}, name)); sym != nil {
				return sym
			}
		}
		return nil
	}
	member := func(owner *checker.Symbol, name string) *checker.Symbol {
		if owner == nil || name == "" {
			return nil
		}
		return c.SkipAlias(c.PropertyOf(owner, name))
	}

	env := resolve(d.names.Environment)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.serverDirective = resolve(d.names.ServerDirective)
	d.clientDirective = resolve(d.names.ClientDirective)
	d.serverDecorator = resolve(d.names.ServerDecorator)
	d.clientDecorator = resolve(d.names.ClientDecorator)
	d.hostDecorator = resolve(d.names.HostDecorator)
	d.environment = env
	d.isServerMethod = member(env, d.names.IsServerMethod)
	d.isClientMethod = member(env, d.names.IsClientMethod)
	d.behaviour = resolve(d.names.Behaviour)
	d.generation++
}

func (d *SymbolDirectory) get(p **checker.Symbol) *checker.Symbol {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return *p
}

// ServerDirective returns the "$SERVER" symbol, or nil.
func (d *SymbolDirectory) ServerDirective() *checker.Symbol { return d.get(&d.serverDirective) }

// ClientDirective returns the "$CLIENT" symbol, or nil.
func (d *SymbolDirectory) ClientDirective() *checker.Symbol { return d.get(&d.clientDirective) }

// ServerDecorator returns the "Server" decorator factory, or nil.
func (d *SymbolDirectory) ServerDecorator() *checker.Symbol { return d.get(&d.serverDecorator) }

// ClientDecorator returns the "Client" decorator factory, or nil.
func (d *SymbolDirectory) ClientDecorator() *checker.Symbol { return d.get(&d.clientDecorator) }

// HostDecorator returns the "Host" decorator factory, or nil.
func (d *SymbolDirectory) HostDecorator() *checker.Symbol { return d.get(&d.hostDecorator) }

// Environment returns the runtime environment symbol, or nil.
func (d *SymbolDirectory) Environment() *checker.Symbol { return d.get(&d.environment) }

// IsServerMethod returns the environment's server query method, or nil.
func (d *SymbolDirectory) IsServerMethod() *checker.Symbol { return d.get(&d.isServerMethod) }

// IsClientMethod returns the environment's client query method, or nil.
func (d *SymbolDirectory) IsClientMethod() *checker.Symbol { return d.get(&d.isClientMethod) }

// Behaviour returns the component base class, or nil.
func (d *SymbolDirectory) Behaviour() *checker.Symbol { return d.get(&d.behaviour) }

// is reports whether sym is the non-nil well-known symbol want.
func is(sym, want *checker.Symbol) bool {
	return sym != nil && sym == want
}
