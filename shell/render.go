package shell

import (
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/benz9527/rbstore/lib/tree"
)

const displayIndent = 10

func (sh *Shell) painter(c tree.RBColor) *color.Color {
	if c == tree.Red {
		return sh.red
	}
	return sh.black
}

func (sh *Shell) paint(key int64, c tree.RBColor) string {
	return sh.painter(c).Sprintf("%d (%s)", key, c)
}

func (sh *Shell) traversal(label string, seq iter.Seq2[int64, tree.RBColor]) {
	builder := &strings.Builder{}
	builder.WriteString(label)
	builder.WriteString(" traversal:")
	for key, c := range seq {
		builder.WriteByte(' ')
		builder.WriteString(sh.paint(key, c))
	}
	sh.println(builder.String())
}

// renderSideways prints the right subtree above and the left subtree
// below every node, so the root sits at the left margin.
func (sh *Shell) renderSideways() {
	type frame struct {
		node  tree.RBNode[int64]
		depth int
	}
	stack := make([]frame, 0, 64)
	aux, depth := sh.tree.Root(), 0
	for !aux.IsNilLeaf() || len(stack) > 0 {
		for ; !aux.IsNilLeaf(); aux = aux.Right() {
			stack = append(stack, frame{node: aux, depth: depth})
			depth++
		}
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// 30(B), the color initial only.
		c := top.node.Color()
		label := sh.painter(c).Sprintf("%d(%s)", top.node.Key(), c.String()[:1])
		sh.printf("%s%s\n", strings.Repeat(" ", top.depth*displayIndent), label)

		aux, depth = top.node.Left(), top.depth+1
	}
}

func childKey(node tree.RBNode[int64]) string {
	if node.IsNilLeaf() {
		return "NULL"
	}
	return strconv.FormatInt(node.Key(), 10)
}

func (sh *Shell) renderNodes() string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"Node", "Color", "Left Child", "Right Child"})
	for node := range sh.tree.Nodes() {
		c := node.Color()
		tbl.AppendRow(table.Row{
			sh.painter(c).Sprint(node.Key()),
			strings.ToUpper(c.String()),
			childKey(node.Left()),
			childKey(node.Right()),
		})
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d nodes", sh.tree.Len())})
	tbl.Style().Format.Footer = text.FormatDefault
	return tbl.Render()
}

func (sh *Shell) renderHelp() string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.SeparateHeader = false
	tbl.AppendHeader(table.Row{"Command", "Aliases", "Description"})
	for _, cmd := range sh.commands {
		name := cmd.name
		if cmd.args != "" {
			name += " " + cmd.args
		}
		tbl.AppendRow(table.Row{name, strings.Join(cmd.aliases, ", "), cmd.help})
	}
	return tbl.Render()
}
