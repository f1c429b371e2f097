// Package mdpreview renders Markdown for live preview and exports it to PDF.
//
// # Rendering
//
// A Renderer converts Markdown to an HTML fragment, a table of contents and
// the list of headings:
//
//	r, err := mdpreview.NewRenderer(mdpreview.WithTOCTitle("Contents"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out := r.Render("# Hello\n\nInline $x^2$ math.")
//	fmt.Println(out.HTML, out.TOC)
//
// Render never fails. The pipeline runs in a fixed order:
//
//  1. Line ending normalization
//  2. Block math ($$...$$) then inline math ($...$) extraction
//  3. Markdown to HTML via Goldmark (GFM, hard wraps, mermaid and math
//     fences, chroma highlighting with CSS classes)
//  4. Heading ids, table of contents and math restoration
//
// Math is emitted as <div class="math-block"> and <span class="math-inline">
// containers and mermaid fences as <div class="mermaid">; the browser
// typesets both with KaTeX and mermaid. Heading slugs are not de-duplicated.
//
// # Export
//
// An Exporter prints a rendered fragment through headless Chrome:
//
//	e, err := mdpreview.NewExporter(mdpreview.WithExportTimeout(time.Minute))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := e.Export(ctx, out.HTML, "notes.md")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.WriteFile("notes.pdf", res.PDF, 0644)
//
// Every export launches its own browser, waits for network idle plus a
// settle delay, and verifies the output with pdfcpu before returning it.
// WithMaxConcurrent bounds how many browsers run at once.
//
// # Errors
//
// Export errors wrap sentinels (ErrBrowserConnect, ErrPageLoad,
// ErrPDFGeneration, ErrInvalidPDF, ...) for classification with errors.Is.
package mdpreview
