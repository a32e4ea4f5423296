package site

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// Report summarizes the structure of a generated page.
type Report struct {
	Title        string
	IDs          []string
	Missing      []string
	HasContainer bool
	Bootstrap    bool
}

// Inspect parses doc and checks it for the required element ids.
func Inspect(doc string, required []string) (Report, error) {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		return Report{}, fmt.Errorf("parse html: %w", err)
	}

	var rep Report
	seen := make(map[string]bool)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			for _, a := range n.Attr {
				switch a.Key {
				case "id":
					if a.Val != "" && !seen[a.Val] {
						seen[a.Val] = true
						rep.IDs = append(rep.IDs, a.Val)
					}
				case "class":
					for _, c := range strings.Fields(a.Val) {
						if c == "container" || strings.HasPrefix(c, "container-") {
							rep.HasContainer = true
						}
					}
				case "href", "src":
					if strings.Contains(strings.ToLower(a.Val), "bootstrap") {
						rep.Bootstrap = true
					}
				}
			}
			if n.Data == "title" && rep.Title == "" {
				rep.Title = strings.TrimSpace(text(n))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	for _, id := range required {
		if !seen[id] {
			rep.Missing = append(rep.Missing, id)
		}
	}
	return rep, nil
}

func text(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	}
	return b.String()
}
