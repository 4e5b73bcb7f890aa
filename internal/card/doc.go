// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package card provides the format-agnostic data model shared by every stage
// of card compilation and by the runtime.
//
// # Core Concepts
//
//   - RawCard: the source-of-truth definition of a card, as stored by a realm.
//     It points at a schema file, one template file per format, an optional
//     parent URL, arbitrary files and an optional initial data payload.
//
//   - FieldMeta: what the schema analyzer learns about one declared field
//     before any card reference is resolved.
//
//   - Field: a resolved field inside a CompiledCard. Its Card is always a
//     compiled card, never a URL.
//
//   - CompiledCard: the fully resolved artifact. It owns its merged field set
//     and holds a shared reference to its parent's compiled card.
//
//   - ComponentInfo: the compiled component of one display format, together
//     with the flattened list of data paths that format reads.
//
// Why a separate card package?
//
// The schema analyzer, template passes, compiler, builder and runtime all
// speak in these types. Keeping them in a leaf package with no dependencies
// lets each stage be tested in isolation against hand-built fixtures.
package card
