// Package graph renders DOT and Mermaid dependency graphs for a
// synthesized stack.
package graph

import (
	"io"
	"strings"

	"github.com/emicklei/dot"

	"github.com/Lekan-Bamgbose/mcnc-llz/internal/stack"
)

// Format specifies the output format for the graph.
type Format string

const (
	// FormatDOT outputs Graphviz DOT format.
	FormatDOT Format = "dot"
	// FormatMermaid outputs Mermaid format for markdown rendering.
	FormatMermaid Format = "mermaid"
)

// Generator creates dependency graphs from a stack's declarations.
type Generator struct {
	// Format specifies the output format. Defaults to DOT.
	Format Format
}

// Generate renders the stack's resource dependency graph to w.
func (g *Generator) Generate(st *stack.Stack, w io.Writer) error {
	graph := g.buildGraph(st)

	format := g.Format
	if format == "" {
		format = FormatDOT
	}

	var output string
	if format == FormatMermaid {
		output = dot.MermaidGraph(graph, dot.MermaidTopToBottom)
	} else {
		output = graph.String()
	}

	_, err := w.Write([]byte(output))
	return err
}

// GenerateString returns the rendered graph as a string.
func (g *Generator) GenerateString(st *stack.Stack) (string, error) {
	var sb strings.Builder
	if err := g.Generate(st, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (g *Generator) buildGraph(st *stack.Stack) *dot.Graph {
	graph := dot.NewGraph(dot.Directed)
	graph.Attr("rankdir", "TB")
	graph.Attr("label", st.Name())

	graph.NodeInitializer(func(n dot.Node) {
		n.Attr("shape", "box")
		n.Attr("fontname", "Arial")
	})

	for _, name := range st.DeclarationOrder() {
		def, _ := st.Resource(name)
		n := graph.Node(name)
		n.Label(name + "\n" + def.Type)
	}

	// Edges point from a resource to what it references.
	for _, name := range st.DeclarationOrder() {
		from := graph.Node(name)
		for _, dep := range st.Dependencies(name) {
			graph.Edge(from, graph.Node(dep))
		}
	}

	return graph
}
