// arbor-demo is an interactive showcase of the arbor ownership tree:
// building a hierarchy, moving subtrees, and deterministic teardown.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/phroun/arbor"
)

var (
	branchStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	leafStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	noteStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true)
	headStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
)

func main() {
	root := &cobra.Command{
		Use:           "arbor-demo",
		Short:         "Demonstrations of the arbor ownership tree",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newShowCmd(), newTeardownCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Build a small hierarchy, then move and remove subtrees",
		RunE: func(cmd *cobra.Command, args []string) error {
			tree := arbor.New("engineering")
			defer tree.Close()

			roots := tree.Roots()
			eng := roots[0]
			defer eng.Release()

			platform, err := tree.Insert(eng, "platform")
			if err != nil {
				return err
			}
			defer platform.Release()

			for _, name := range []string{"storage", "networking"} {
				h, err := tree.Insert(platform, name)
				if err != nil {
					return err
				}
				h.Release()
			}

			product, err := tree.Insert(eng, "product")
			if err != nil {
				return err
			}
			defer product.Release()

			search, err := tree.Insert(product, "search")
			if err != nil {
				return err
			}
			defer search.Release()

			fmt.Println(headStyle.Render("initial structure"))
			render(tree)

			fmt.Println(noteStyle.Render("\nreparenting search under platform..."))
			if err := arbor.Reparent(search, platform); err != nil {
				return err
			}
			render(tree)

			fmt.Println(noteStyle.Render("\nremoving product (handle stays valid)..."))
			if err := tree.Remove(product); err != nil {
				return err
			}
			render(tree)

			if v, err := arbor.Payload(product); err == nil {
				fmt.Println(noteStyle.Render(
					fmt.Sprintf("detached node still readable through our handle: %q", v)))
			}
			return tree.Audit()
		},
	}
}

func newTeardownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "teardown",
		Short: "Watch the depth-first teardown cascade fire hooks post-order",
		RunE: func(cmd *cobra.Command, args []string) error {
			tree := arbor.NewWith(arbor.Options[string]{
				Teardown: func(v string) {
					fmt.Println(noteStyle.Render("  torn down: " + v))
				},
			})

			a, err := tree.AddRoot("A")
			if err != nil {
				return err
			}
			b, err := tree.Insert(a, "B")
			if err != nil {
				return err
			}
			d, err := tree.Insert(b, "D")
			if err != nil {
				return err
			}
			c, err := tree.Insert(a, "C")
			if err != nil {
				return err
			}

			render(tree)

			a.Release()
			b.Release()
			c.Release()
			d.Release()

			fmt.Println(headStyle.Render("closing the tree"))
			return tree.Close()
		},
	}
}

// render walks the tree and prints one styled line per node.
func render(tree *arbor.Tree[string]) {
	for h, depth := range tree.Walk() {
		kids, err := arbor.ChildrenOf(h)
		if err != nil {
			continue
		}
		style := leafStyle
		if len(kids) > 0 {
			style = branchStyle
		}
		for _, kid := range kids {
			kid.Release()
		}

		v, err := arbor.Payload(h)
		if err != nil {
			continue
		}
		fmt.Println(strings.Repeat("  ", depth) + style.Render(v))
	}
}
