package htmlutil

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func collectTextNodes(node *html.Node, out *[]string) {
	if node.Type == html.TextNode {
		*out = append(*out, node.Data)
		return
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		collectTextNodes(child, out)
	}
}

// TextNodes parses an html fragment (as it would appear inside <body>) and returns
// every text node in document order, whitespace-only nodes included.
func TextNodes(fragment string) ([]string, error) {
	context := &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return nil, err
	}

	var texts []string
	for _, n := range nodes {
		collectTextNodes(n, &texts)
	}
	return texts, nil
}

// TextNode returns the text node at index of the fragment.
func TextNode(fragment string, index int) (string, error) {
	texts, err := TextNodes(fragment)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(texts) {
		return "", fmt.Errorf("text node %d out of range, fragment has %d text nodes", index, len(texts))
	}
	return texts[index], nil
}
