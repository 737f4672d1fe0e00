// Package render replays a finished batch of structures onto a shared
// painter and emits one image.
//
// # Overview
//
// A [Renderer] is created once per conversion job. For each batch it is
// handed the buffered structures, in submission order, together with the
// resolved [table.Grid]. For every structure it:
//
//  1. works on a copy, so the caller's structure is never modified
//  2. generates 2D coordinates when the copy has none
//  3. resolves the per-structure [Settings] from the job's options
//  4. selects the structure's grid cell and draws it
//
// After the last structure the painter writes the image to the output
// exactly once. Any failure stops the loop and no image is written.
//
// # Collaborators
//
// The renderer only talks to narrow interfaces:
//
//   - [Painter]: the drawing surface (see [raster.Painter] for the default)
//   - [CoordGenerator]: 2D layout (see [coords.Graphviz])
//   - [AliasConverter]: collapses expanded groups back to alias labels
//
// Width, height and table size are applied to the painter only for the
// first structure of a batch; title, draw flags and pen width are applied
// for every structure.
//
// [raster.Painter]: github.com/matzehuels/molgrid/pkg/render/raster.Painter
// [coords.Graphviz]: github.com/matzehuels/molgrid/pkg/coords.Graphviz
package render
