package issues

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/tree"
	"github.com/charmbracelet/x/term"
	"github.com/mgutz/ansi"

	"github.com/worklift/worklift/cli/commands/common"
	"github.com/worklift/worklift/internal/collect"
	"github.com/worklift/worklift/internal/errors"
	"github.com/worklift/worklift/options"
)

// Run collects the issue set and renders it in the requested format.
func Run(ctx context.Context, opts *options.WorkliftOptions, format string) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	client, err := common.NewJiraClient(opts)
	if err != nil {
		return err
	}

	result, err := common.NewCollectionEngine(client, opts).Collect(ctx)
	if err != nil {
		return err
	}

	shouldColor := common.ShouldColor(opts, opts.Writer)

	switch format {
	case FormatJSON:
		return outputJSON(opts.Writer, result)
	case FormatTree:
		return outputTree(opts.Writer, opts.ProjectKey, result, shouldColor)
	default:
		return outputText(opts.Writer, result, shouldColor)
	}
}

// listedNode is the JSON projection of a collected node.
type listedNode struct {
	Key       string `json:"key"`
	Summary   string `json:"summary,omitempty"`
	IssueType string `json:"issue_type,omitempty"`
	Stage     string `json:"stage"`
	Via       string `json:"via,omitempty"`
}

func outputJSON(w io.Writer, result *collect.Result) error {
	listed := make([]listedNode, 0, len(result.Nodes))

	for _, node := range result.Nodes {
		listed = append(listed, listedNode{
			Key:       node.Key,
			Summary:   node.Summary,
			IssueType: node.IssueType,
			Stage:     string(node.Origin.Stage),
			Via:       node.Origin.Via,
		})
	}

	jsonBytes, err := json.MarshalIndent(listed, "", "  ")
	if err != nil {
		return errors.New(err)
	}

	if _, err := w.Write(append(jsonBytes, '\n')); err != nil {
		return errors.New(err)
	}

	return nil
}

// Colorizer colors issue keys by the stage that discovered them.
type Colorizer struct {
	stageColorizers map[collect.Stage]func(string) string
}

// NewColorizer creates a new Colorizer.
func NewColorizer(shouldColor bool) *Colorizer {
	if !shouldColor {
		return &Colorizer{}
	}

	return &Colorizer{
		stageColorizers: map[collect.Stage]func(string) string{
			collect.StageDirect:  ansi.ColorFunc("blue+bh"),
			collect.StageEpic:    ansi.ColorFunc("green+bh"),
			collect.StageLink:    ansi.ColorFunc("yellow+bh"),
			collect.StageSubtask: ansi.ColorFunc("cyan+bh"),
		},
	}
}

// Colorize returns the node key colored by its discovery stage.
func (c *Colorizer) Colorize(node collect.Node) string {
	if colorize, ok := c.stageColorizers[node.Origin.Stage]; ok {
		return colorize(node.Key)
	}

	return node.Key
}

// outputText renders the keys in as many terminal columns as fit.
func outputText(w io.Writer, result *collect.Result, shouldColor bool) error {
	colorizer := NewColorizer(shouldColor)
	maxCols, colWidth := maxColumns(result.Nodes)

	for i, node := range result.Nodes {
		if i > 0 && i%maxCols == 0 {
			if _, err := fmt.Fprintln(w); err != nil {
				return errors.New(err)
			}
		}

		// Pad on the raw key length since color codes carry no width.
		if _, err := fmt.Fprintf(w, "%s%*s", colorizer.Colorize(node), colWidth-len(node.Key), ""); err != nil {
			return errors.New(err)
		}
	}

	if _, err := fmt.Fprintln(w); err != nil {
		return errors.New(err)
	}

	return nil
}

// maxColumns returns how many key columns fit in the terminal and the width
// of each column: the longest key plus padding.
func maxColumns(nodes []collect.Node) (int, int) {
	longest := 0

	for _, node := range nodes {
		if len(node.Key) > longest {
			longest = len(node.Key)
		}
	}

	const padding = 2

	colWidth := longest + padding

	maxCols := 1
	if longest > 0 {
		if cols := terminalWidth() / colWidth; cols > 1 {
			maxCols = cols
		}
	}

	return maxCols, colWidth
}

func terminalWidth() int {
	// Default to 80 if we can't get the terminal width.
	width := 80

	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		width = w
	}

	return width
}

// TreeStyler styles the discovery tree.
type TreeStyler struct {
	shouldColor bool
	enumStyle   lipgloss.Style
	rootStyle   lipgloss.Style
	summaryFunc func(string) string
}

func NewTreeStyler(shouldColor bool) *TreeStyler {
	return &TreeStyler{
		shouldColor: shouldColor,
		enumStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginRight(1),
		rootStyle:   lipgloss.NewStyle().Foreground(lipgloss.Color("35")),
		summaryFunc: ansi.ColorFunc("white+d"),
	}
}

// Style applies the tree styles when color is on.
func (s *TreeStyler) Style(t *tree.Tree) *tree.Tree {
	t = t.Enumerator(tree.RoundedEnumerator)

	if !s.shouldColor {
		return t
	}

	return t.
		EnumeratorStyle(s.enumStyle).
		RootStyle(s.rootStyle)
}

func (s *TreeStyler) label(node collect.Node, colorizer *Colorizer) string {
	label := colorizer.Colorize(node)

	if node.Summary == "" {
		return label
	}

	summary := node.Summary
	if s.shouldColor {
		summary = s.summaryFunc(summary)
	}

	return label + " " + summary
}

// outputTree renders each issue under the issue that pulled it into the set.
// Discovery order guarantees a parent is rendered before its children.
func outputTree(w io.Writer, projectKey string, result *collect.Result, shouldColor bool) error {
	styler := NewTreeStyler(shouldColor)
	colorizer := NewColorizer(shouldColor)

	root := tree.Root(projectKey)
	nodes := make(map[string]*tree.Tree, len(result.Nodes))

	for _, node := range result.Nodes {
		branch := tree.New().Root(styler.label(node, colorizer))
		nodes[node.Key] = branch

		parent := root
		if via, ok := nodes[node.Origin.Via]; node.Origin.Via != "" && ok {
			parent = via
		}

		parent.Child(branch)
	}

	root = styler.Style(root)

	if _, err := w.Write([]byte(root.String() + "\n")); err != nil {
		return errors.New(err)
	}

	return nil
}
