package docconv

import (
	"strings"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/simhub/model-ingestion-service/internal/domain"
	"github.com/simhub/model-ingestion-service/internal/textutil"
)

// SplitOptions controls how markdown is split into sections and chunks.
type SplitOptions struct {
	// ChunkSize is the maximum chunk length in words.
	ChunkSize int
	// ChunkOverlap is the number of words shared between consecutive chunks.
	ChunkOverlap int
}

// SplitIntoSections parses markdown and produces the flat section arena for
// the given doc. Each heading starts a section; a section's parent is the
// nearest preceding heading of a shallower depth, carried as ParentID.
// Section levels are normalized so a child's level is always its parent's
// level plus one, regardless of how many heading levels the author skipped.
// Text before the first heading becomes an untitled root section.
//
// Every section's content is chunked into word windows; sections whose
// content is blank get no chunks.
func SplitIntoSections(docID string, markdown []byte, opts SplitOptions) ([]domain.DocSection, error) {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = textutil.DefaultChunkSize
	}
	if opts.ChunkOverlap < 0 {
		opts.ChunkOverlap = textutil.DefaultChunkOverlap
	}

	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(markdown))

	var sections []domain.DocSection

	// Stack of (heading depth as authored, index into sections).
	type frame struct {
		headingLevel int
		index        int
	}
	var stack []frame
	var content strings.Builder

	flush := func() {
		if len(sections) == 0 {
			return
		}
		current := &sections[len(sections)-1]
		current.Content = strings.TrimSpace(content.String())
		content.Reset()
		for _, chunkText := range textutil.ChunkWords(current.Content, opts.ChunkSize, opts.ChunkOverlap) {
			current.Chunks = append(current.Chunks, domain.Chunk{
				ID:        uuid.NewString(),
				SectionID: current.ID,
				Type:      domain.ChunkTypeText,
				Content:   chunkText,
			})
		}
	}

	for node := root.FirstChild(); node != nil; node = node.NextSibling() {
		heading, isHeading := node.(*ast.Heading)
		if !isHeading {
			if len(sections) == 0 {
				// Preamble before the first heading: untitled root section.
				sections = append(sections, domain.DocSection{
					ID:         uuid.NewString(),
					ModelDocID: docID,
					Level:      1,
				})
				stack = append(stack, frame{headingLevel: 0, index: len(sections) - 1})
			}
			if blockText := nodeText(node, markdown); blockText != "" {
				content.WriteString(blockText)
				content.WriteString("\n\n")
			}
			continue
		}

		flush()

		for len(stack) > 0 && stack[len(stack)-1].headingLevel >= heading.Level {
			stack = stack[:len(stack)-1]
		}

		parentID := ""
		level := 1
		if len(stack) > 0 {
			parent := sections[stack[len(stack)-1].index]
			parentID = parent.ID
			level = parent.Level + 1
		}

		sections = append(sections, domain.DocSection{
			ID:         uuid.NewString(),
			ModelDocID: docID,
			ParentID:   parentID,
			Title:      strings.TrimSpace(nodeText(heading, markdown)),
			Level:      level,
		})
		stack = append(stack, frame{headingLevel: heading.Level, index: len(sections) - 1})
	}
	flush()

	return sections, nil
}

// nodeText extracts the plain text of a block node, including the bodies of
// code blocks, which goldmark stores as line segments rather than text nodes.
func nodeText(node ast.Node, source []byte) string {
	var sb strings.Builder

	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte('\n')
			}
		case *ast.String:
			sb.Write(t.Value)
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := t.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				sb.Write(seg.Value(source))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(sb.String())
}
