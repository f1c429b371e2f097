// Package pipeline implements the Markdown-to-HTML render pipeline.
//
// The stages run in a fixed order:
//   - Markdown preprocessing (line normalization, block then inline math
//     extraction into placeholders)
//   - Markdown to HTML conversion via Goldmark (GFM, hard wraps, diagram and
//     math fences, syntax highlighting)
//   - Heading collection, slug ids and table of contents generation
//   - Math placeholder restoration
//
// The package also composes the standalone print page used for PDF export.
// PDF rendering itself is handled by the root mdpreview package using
// headless Chrome (go-rod); this package only produces HTML.
//
// Every stage keeps its state in values scoped to a single call, so one
// converter can serve concurrent renders.
package pipeline
