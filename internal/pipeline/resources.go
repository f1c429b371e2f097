package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// localRefAttrs lists the attributes that may point at files next to the
// document. Media, srcset and CSS url() references are left alone.
var localRefAttrs = map[atom.Atom]string{
	atom.Img: "src",
	atom.A:   "href",
}

// ResolveLocalResources rewrites relative image and link targets in a body
// fragment to file:// URLs under baseDir, so the exported page finds them
// when loaded from a temporary file. Targets escaping baseDir are kept as
// written. An empty baseDir returns the fragment unchanged.
func ResolveLocalResources(fragment, baseDir string) (string, error) {
	if baseDir == "" || strings.TrimSpace(fragment) == "" {
		return fragment, nil
	}

	root, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}

	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	for _, n := range nodes {
		resolveNode(n, root)
		if err := html.Render(&buf, n); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func resolveNode(n *html.Node, root string) {
	if n.Type == html.ElementNode {
		if key, ok := localRefAttrs[n.DataAtom]; ok {
			for i := range n.Attr {
				if n.Attr[i].Key != key {
					continue
				}
				if resolved, ok := localFileURL(n.Attr[i].Val, root); ok {
					n.Attr[i].Val = resolved
				}
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		resolveNode(c, root)
	}
}

// localFileURL maps a relative reference to a file:// URL under root.
func localFileURL(ref, root string) (string, bool) {
	if !isLocalReference(ref) {
		return "", false
	}
	abs := filepath.Join(root, filepath.FromSlash(ref))
	if !withinDir(abs, root) {
		return "", false
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	if !strings.HasPrefix(u.Path, "/") {
		// Windows drive paths need a leading slash: file:///C:/...
		u.Path = "/" + u.Path
	}
	return u.String(), true
}

// isLocalReference reports whether ref is a relative filesystem path rather
// than a URL, an anchor or an absolute path.
func isLocalReference(ref string) bool {
	switch {
	case ref == "",
		strings.HasPrefix(ref, "#"),
		strings.HasPrefix(ref, "//"),
		filepath.IsAbs(ref),
		strings.HasPrefix(ref, "/"):
		return false
	}
	if u, err := url.Parse(ref); err == nil && u.Scheme != "" {
		return false // http:, https:, file:, data:, mailto:
	}
	return true
}

func withinDir(path, dir string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
