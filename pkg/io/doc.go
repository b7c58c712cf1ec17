// Package io imports and exports flow documents as JSON or YAML.
//
// # Overview
//
// Every import goes through the structural validator before the document is
// bound to the typed model, so a rejected file never reaches the graph
// transformer:
//
//	bytes ──► decode (JSON | YAML) ──► flow.Check ──► flow.Document
//
// Export writes the document back with two-space indentation. Fields the
// model does not know are written back unchanged, so export(import(b)) is
// structurally equal to b.
//
// # Formats
//
// JSON is the exchange format of the workflow platform. YAML is accepted as
// a friendlier authoring format and is converted to the same generic value
// tree before validation. [DetectFormat] picks a format from a file name and
// [Sniff] from content.
//
// # Errors
//
//   - INVALID_FORMAT: the bytes are not valid JSON or YAML
//   - INVALID_FLOW: the document does not have the structure of a flow
//   - INVALID_PATH: a file could not be opened or created
package io
