// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ast provides the syntax tree used by the network boundary analysis.
//
// TypeScript and TSX sources are parsed with tree-sitter and converted into an
// owned tree of Node values. Unlike raw tree-sitter nodes, every Node carries
// a back-reference to its parent and to the SourceFile it belongs to, so
// analyses can walk outward from any node without holding on to the
// tree-sitter tree (which is closed as soon as conversion finishes).
//
// Architecture:
//
//	┌──────────────┐   content   ┌──────────────┐  convert  ┌──────────────┐
//	│ project/CLI  │ ──────────► │    Parser    │ ────────► │  SourceFile  │
//	└──────────────┘             │ (tree-sitter)│           │  Root *Node  │
//	                             └──────────────┘           └──────────────┘
//	                                                               │
//	                               Parent ◄── Node ──► Children ◄──┘
//
// Thread Safety:
//
//	Parser is safe for concurrent use. A SourceFile is immutable once
//	returned by Parse and may be shared between goroutines.
package ast
