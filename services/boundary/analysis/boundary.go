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
	"path"
	"strings"
	"sync"
)

// =============================================================================
// NETWORK BOUNDARY
// =============================================================================

// NetworkBoundary is the execution context code is guaranteed to run in.
type NetworkBoundary int

const (
	// Shared code runs on both server and client. It is the fallback root
	// of every resolution.
	Shared NetworkBoundary = iota

	// Server code runs only on the server.
	Server

	// Client code runs only on the client.
	Client

	// Host code runs only through the privileged host executor and
	// satisfies both Server and Client requirements.
	Host

	// Invalid marks a context asserted as both Server and Client. It is
	// only ever the result of analysis, never a declared boundary.
	Invalid
)

// String returns the display name of the boundary.
func (b NetworkBoundary) String() string {
	switch b {
	case Shared:
		return "Shared"
	case Server:
		return "Server"
	case Client:
		return "Client"
	case Host:
		return "Host"
	case Invalid:
		return "Invalid"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the boundary by name.
func (b NetworkBoundary) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// ParseNetworkBoundary parses a boundary name case-insensitively.
func ParseNetworkBoundary(s string) (NetworkBoundary, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "shared":
		return Shared, true
	case "server":
		return Server, true
	case "client":
		return Client, true
	case "host":
		return Host, true
	case "invalid":
		return Invalid, true
	}
	return Shared, false
}

// Opposite returns the boundary on the other side of a server/client
// branch. Only Server and Client have an opposite; other boundaries are
// returned unchanged.
func (b NetworkBoundary) Opposite() NetworkBoundary {
	switch b {
	case Server:
		return Client
	case Client:
		return Server
	}
	return b
}

// Satisfies reports whether code running in context may use something
// declared with the required boundary.
//
// Shared requirements are always satisfied. Host satisfies Server and
// Client requirements. A Host requirement is only satisfied by Host.
func Satisfies(context, required NetworkBoundary) bool {
	if required == Shared || context == required {
		return true
	}
	if context == Host && (required == Server || required == Client) {
		return true
	}
	return false
}

// CanSee reports whether code in boundary from may reference symbols of
// boundary to: only its own boundary and Shared.
func CanSee(from, to NetworkBoundary) bool {
	return from == to || to == Shared
}

// =============================================================================
// FILE BOUNDARY CACHE
// =============================================================================

// FileBoundaryCache maps files to the default boundary of their directory.
//
// Description:
//
//	Files under one of the configured server directories default to
//	Server, files under client directories to Client, everything else to
//	Shared. The longest matching directory wins. Results are cached until
//	Reset is called, which happens on every configuration change.
//
// Thread Safety:
//
//	Safe for concurrent use.
type FileBoundaryCache struct {
	mu     sync.RWMutex
	server []string
	client []string
	cache  map[string]NetworkBoundary
}

// NewFileBoundaryCache creates a cache for the given directories. Paths are
// compared after cleaning, relative to the same root as the file paths.
func NewFileBoundaryCache(serverDirs, clientDirs []string) *FileBoundaryCache {
	c := &FileBoundaryCache{}
	c.Reset(serverDirs, clientDirs)
	return c
}

// Reset replaces the directories and clears cached results.
func (c *FileBoundaryCache) Reset(serverDirs, clientDirs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.server = cleanDirs(serverDirs)
	c.client = cleanDirs(clientDirs)
	c.cache = make(map[string]NetworkBoundary)
}

// Clear drops cached results but keeps the directories.
func (c *FileBoundaryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]NetworkBoundary)
}

// Len returns the number of cached entries.
func (c *FileBoundaryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// BoundaryOf returns the default boundary of a file. A nil cache or an
// empty path yields Shared.
func (c *FileBoundaryCache) BoundaryOf(file string) NetworkBoundary {
	if c == nil || file == "" {
		return Shared
	}
	file = path.Clean(strings.ReplaceAll(file, "\\", "/"))

	c.mu.RLock()
	b, ok := c.cache[file]
	c.mu.RUnlock()
	if ok {
		return b
	}

	b = Shared
	best := -1
	for _, d := range c.server {
		if isUnder(file, d) && len(d) > best {
			b, best = Server, len(d)
		}
	}
	for _, d := range c.client {
		if isUnder(file, d) && len(d) > best {
			b, best = Client, len(d)
		}
	}

	c.mu.Lock()
	c.cache[file] = b
	c.mu.Unlock()
	return b
}

func cleanDirs(dirs []string) []string {
	out := make([]string, 0, len(dirs))
	for _, d := range dirs {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		out = append(out, path.Clean(strings.ReplaceAll(d, "\\", "/")))
	}
	return out
}

func isUnder(file, dir string) bool {
	if dir == "." {
		return true
	}
	return file == dir || strings.HasPrefix(file, dir+"/")
}
