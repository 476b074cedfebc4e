// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chatui

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var (
	markdownOnce   sync.Once
	markdownParser goldmark.Markdown
)

func parser() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownParser = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return markdownParser
}

// renderMarkdown renders a message body as styled terminal text
// wrapped to width. Unlike documents, chat text keeps its line breaks.
func renderMarkdown(input string, theme Theme, width int) string {
	if strings.TrimSpace(input) == "" {
		return ""
	}
	source := []byte(input)
	document := parser().Parser().Parse(text.NewReader(source))

	// The output always goes to the TUI, so force a color profile
	// instead of detecting one from a possibly absent TTY.
	lipRenderer := lipgloss.NewRenderer(os.Stderr, termenv.WithProfile(termenv.ANSI256))
	lipRenderer.SetColorProfile(termenv.ANSI256)

	renderer := &messageRenderer{
		source:      source,
		theme:       theme,
		width:       max(width, 10),
		lipRenderer: lipRenderer,
	}
	ast.Walk(document, renderer.walk)
	return strings.TrimRight(renderer.output.String(), "\n")
}

type messageRenderer struct {
	source      []byte
	theme       Theme
	width       int
	lipRenderer *lipgloss.Renderer

	output strings.Builder
	inline strings.Builder

	prefix      string
	prefixWidth int
	bullet      string
	lists       []listLevel

	bold, italic, strike int
}

type listLevel struct {
	ordered bool
	counter int
}

func (renderer *messageRenderer) style() lipgloss.Style {
	return renderer.lipRenderer.NewStyle()
}

func (renderer *messageRenderer) textStyle() lipgloss.Style {
	style := renderer.style().Foreground(renderer.theme.NormalText)
	if renderer.bold > 0 {
		style = style.Bold(true)
	}
	if renderer.italic > 0 {
		style = style.Italic(true)
	}
	if renderer.strike > 0 {
		style = style.Strikethrough(true)
	}
	return style
}

// emitBlock wraps content to the available width and writes it with
// the current prefix; the first line takes a pending list bullet.
func (renderer *messageRenderer) emitBlock(content string) {
	if content == "" {
		return
	}
	width := max(renderer.width-renderer.prefixWidth, 10)
	lines := strings.Split(ansi.Wrap(content, width, " ,.;-+|/"), "\n")
	for index, line := range lines {
		if index == 0 && renderer.bullet != "" {
			renderer.output.WriteString(renderer.bullet)
			renderer.bullet = ""
		} else {
			renderer.output.WriteString(renderer.prefix)
		}
		renderer.output.WriteString(line)
		renderer.output.WriteString("\n")
	}
}

func (renderer *messageRenderer) flushInline() {
	content := strings.TrimRight(renderer.inline.String(), "\n")
	renderer.inline.Reset()
	renderer.emitBlock(content)
}

func (renderer *messageRenderer) pushPrefix(prefix string, width int) (restore func()) {
	savedPrefix, savedWidth := renderer.prefix, renderer.prefixWidth
	renderer.prefix += prefix
	renderer.prefixWidth += width
	return func() {
		renderer.prefix, renderer.prefixWidth = savedPrefix, savedWidth
	}
}

func (renderer *messageRenderer) walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node.Kind() {
	case ast.KindParagraph, ast.KindTextBlock:
		if !entering {
			renderer.flushInline()
			if len(renderer.lists) == 0 && node.NextSibling() != nil {
				renderer.output.WriteString("\n")
			}
		}

	case ast.KindHeading:
		if !entering {
			content := ansi.Strip(renderer.inline.String())
			renderer.inline.Reset()
			renderer.emitBlock(renderer.style().Bold(true).Foreground(renderer.theme.HeaderForeground).Render(content))
		}

	case ast.KindFencedCodeBlock, ast.KindCodeBlock:
		if entering {
			renderer.renderCode(node)
			return ast.WalkSkipChildren, nil
		}

	case ast.KindBlockquote:
		if entering {
			bar := renderer.style().Foreground(renderer.theme.BorderColor).Render("│ ")
			restore := renderer.pushPrefix(bar, 2)
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				ast.Walk(child, renderer.walk)
			}
			restore()
			return ast.WalkSkipChildren, nil
		}

	case ast.KindList:
		if entering {
			list := node.(*ast.List)
			renderer.lists = append(renderer.lists, listLevel{ordered: list.IsOrdered(), counter: list.Start})
		} else {
			renderer.lists = renderer.lists[:len(renderer.lists)-1]
		}

	case ast.KindListItem:
		if entering {
			level := &renderer.lists[len(renderer.lists)-1]
			marker := "• "
			if level.ordered {
				marker = fmt.Sprintf("%d. ", level.counter)
				level.counter++
			}
			markerWidth := ansi.StringWidth(marker)
			renderer.bullet = renderer.prefix + renderer.style().Foreground(renderer.theme.FaintText).Render(marker)
			restore := renderer.pushPrefix(strings.Repeat(" ", markerWidth), markerWidth)
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				ast.Walk(child, renderer.walk)
			}
			restore()
			return ast.WalkSkipChildren, nil
		}

	case ast.KindThematicBreak:
		if entering {
			rule := strings.Repeat("─", max(renderer.width-renderer.prefixWidth, 1))
			renderer.emitBlock(renderer.style().Foreground(renderer.theme.BorderColor).Render(rule))
		}

	case ast.KindHTMLBlock:
		if entering {
			renderer.emitBlock(renderer.style().Foreground(renderer.theme.FaintText).Render(
				strings.TrimRight(string(node.Lines().Value(renderer.source)), "\n")))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindText:
		if entering {
			textNode := node.(*ast.Text)
			renderer.inline.WriteString(renderer.textStyle().Render(string(textNode.Segment.Value(renderer.source))))
			if textNode.SoftLineBreak() || textNode.HardLineBreak() {
				renderer.inline.WriteString("\n")
			}
		}

	case ast.KindString:
		if entering {
			renderer.inline.WriteString(renderer.textStyle().Render(string(node.(*ast.String).Value)))
		}

	case ast.KindEmphasis:
		emphasis := node.(*ast.Emphasis)
		delta := -1
		if entering {
			delta = 1
		}
		if emphasis.Level >= 2 {
			renderer.bold += delta
		} else {
			renderer.italic += delta
		}

	case extast.KindStrikethrough:
		if entering {
			renderer.strike++
		} else {
			renderer.strike--
		}

	case ast.KindCodeSpan:
		if entering {
			var code strings.Builder
			for child := node.FirstChild(); child != nil; child = child.NextSibling() {
				if textNode, ok := child.(*ast.Text); ok {
					code.Write(textNode.Segment.Value(renderer.source))
				}
			}
			renderer.inline.WriteString(renderer.style().
				Foreground(renderer.theme.StatusWaiting).
				Background(renderer.theme.SelectedBackground).
				Render(code.String()))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindLink:
		if entering {
			link := node.(*ast.Link)
			label := ansi.Strip(renderer.collectInline(node))
			destination := string(link.Destination)
			linkStyle := renderer.style().Foreground(renderer.theme.LinkForeground).Underline(true)
			if label == "" || label == destination {
				renderer.inline.WriteString(linkStyle.Render(destination))
			} else {
				renderer.inline.WriteString(linkStyle.Render(label) +
					renderer.style().Foreground(renderer.theme.FaintText).Render(" ("+destination+")"))
			}
			return ast.WalkSkipChildren, nil
		}

	case ast.KindAutoLink:
		if entering {
			url := string(node.(*ast.AutoLink).URL(renderer.source))
			renderer.inline.WriteString(renderer.style().Foreground(renderer.theme.LinkForeground).Underline(true).Render(url))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindImage:
		if entering {
			image := node.(*ast.Image)
			label := ansi.Strip(renderer.collectInline(node))
			if label == "" {
				label = "image"
			}
			renderer.inline.WriteString(renderer.style().Foreground(renderer.theme.LinkForeground).
				Render("[" + label + "] " + string(image.Destination)))
			return ast.WalkSkipChildren, nil
		}

	case ast.KindRawHTML:
		if entering {
			segments := node.(*ast.RawHTML).Segments
			for index := 0; index < segments.Len(); index++ {
				segment := segments.At(index)
				renderer.inline.WriteString(renderer.style().Foreground(renderer.theme.FaintText).
					Render(string(segment.Value(renderer.source))))
			}
			return ast.WalkSkipChildren, nil
		}

	case extast.KindTaskCheckBox:
		if entering {
			box := "[ ] "
			if node.(*extast.TaskCheckBox).IsChecked {
				box = "[x] "
			}
			renderer.inline.WriteString(renderer.textStyle().Render(box))
		}
	}
	return ast.WalkContinue, nil
}

// collectInline renders node's children into a string without
// disturbing the enclosing inline buffer.
func (renderer *messageRenderer) collectInline(node ast.Node) string {
	saved := renderer.inline.String()
	renderer.inline.Reset()
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		ast.Walk(child, renderer.walk)
	}
	collected := renderer.inline.String()
	renderer.inline.Reset()
	renderer.inline.WriteString(saved)
	return collected
}

func (renderer *messageRenderer) renderCode(node ast.Node) {
	var code strings.Builder
	lines := node.Lines()
	for index := 0; index < lines.Len(); index++ {
		segment := lines.At(index)
		code.Write(segment.Value(renderer.source))
	}
	language := ""
	if fenced, ok := node.(*ast.FencedCodeBlock); ok {
		language = string(fenced.Language(renderer.source))
	}

	body := strings.TrimRight(code.String(), "\n")
	highlighted := renderer.style().Foreground(renderer.theme.FaintText).Render(body)
	if language != "" {
		var buffer strings.Builder
		if err := quick.Highlight(&buffer, body, language, "terminal256", "monokai"); err == nil {
			highlighted = strings.TrimRight(buffer.String(), "\n")
		}
	}

	restore := renderer.pushPrefix("  ", 2)
	for _, line := range strings.Split(highlighted, "\n") {
		// Code is never rewrapped; overlong lines are cut.
		renderer.output.WriteString(renderer.prefix)
		renderer.output.WriteString(ansi.Truncate(line, max(renderer.width-renderer.prefixWidth, 1), "…"))
		renderer.output.WriteString("\n")
	}
	restore()
}
