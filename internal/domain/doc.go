package domain

// ChunkType describes how a chunk was produced from its section.
type ChunkType string

const (
	// ChunkTypeText is a fixed-size sliding window over the section text.
	ChunkTypeText ChunkType = "text"
)

// ChunkQA is a question/answer pair generated for a chunk.
type ChunkQA struct {
	ID       string `json:"id"`
	ChunkID  string `json:"chunk_id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// DocSectionQA is a question/answer pair generated for a section.
type DocSectionQA struct {
	ID        string `json:"id"`
	SectionID string `json:"section_id"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
}

// Chunk is a window of a section's text, small enough to embed on its own.
// ContentWithContext, Summary and QAs are filled by the synthetic-data
// enrichment pass; they are empty on a freshly split document.
type Chunk struct {
	ID        string    `json:"id"`
	SectionID string    `json:"section_id"`
	Type      ChunkType `json:"type"`
	// Content is the raw chunk text.
	Content string `json:"content"`
	// ContentWithContext is the chunk text prefixed with enough surrounding
	// context to stand alone in a vector search result.
	ContentWithContext string    `json:"content_with_context,omitempty"`
	Summary            string    `json:"summary,omitempty"`
	QAs                []ChunkQA `json:"qas,omitempty"`
}

// DocSection is one heading-delimited section of a model document. Sections
// live in the ModelDoc's flat Sections slice and reference their parent by
// id; ParentID is empty for root sections. A child's Level is always its
// parent's Level plus one, and parent links never form a cycle.
type DocSection struct {
	ID         string `json:"id"`
	ModelDocID string `json:"model_doc_id"`
	ParentID   string `json:"parent_id,omitempty"`
	Title      string `json:"title"`
	// Level is the heading depth, 1 for a top-level section.
	Level int `json:"level"`
	// Content is the section's own text, excluding child sections.
	Content string `json:"content"`
	Chunks  []Chunk `json:"chunks,omitempty"`
	// ContentWithContext, Summary and QAs are filled by enrichment.
	ContentWithContext string         `json:"content_with_context,omitempty"`
	Summary            string         `json:"summary,omitempty"`
	QAs                []DocSectionQA `json:"qas,omitempty"`
}

// ModelDoc is the documentation of a model: a flat arena of sections plus
// bookkeeping about where the source and converted files live in the object
// store.
type ModelDoc struct {
	ID      string `json:"id"`
	ModelID string `json:"model_id"`
	// Summary is synthesized from section summaries during enrichment.
	Summary string `json:"summary,omitempty"`
	// Sections is the flat section arena; tree structure is carried by
	// DocSection.ParentID.
	Sections []DocSection `json:"sections"`
	// OriginalObjectName and MarkdownObjectName locate the source document
	// and its markdown conversion in the object store.
	OriginalObjectName string `json:"original_object_name,omitempty"`
	MarkdownObjectName string `json:"markdown_object_name,omitempty"`
}

// SectionByID returns a pointer to the section with the given id, or nil.
func (d *ModelDoc) SectionByID(id string) *DocSection {
	for i := range d.Sections {
		if d.Sections[i].ID == id {
			return &d.Sections[i]
		}
	}
	return nil
}

// RootSections returns the sections with no parent, in arena order.
func (d *ModelDoc) RootSections() []*DocSection {
	var roots []*DocSection
	for i := range d.Sections {
		if d.Sections[i].ParentID == "" {
			roots = append(roots, &d.Sections[i])
		}
	}
	return roots
}

// ChildrenOf returns the direct children of the section with the given id,
// in arena order.
func (d *ModelDoc) ChildrenOf(id string) []*DocSection {
	var children []*DocSection
	for i := range d.Sections {
		if d.Sections[i].ParentID == id {
			children = append(children, &d.Sections[i])
		}
	}
	return children
}

// Breadcrumb returns the titles from the root ancestor down to the section
// with the given id, inclusive. It returns nil if the id is unknown or a
// parent link is dangling.
func (d *ModelDoc) Breadcrumb(id string) []string {
	var titles []string
	seen := make(map[string]bool)
	for cur := d.SectionByID(id); cur != nil; {
		if seen[cur.ID] {
			return nil
		}
		seen[cur.ID] = true
		titles = append(titles, cur.Title)
		if cur.ParentID == "" {
			break
		}
		parent := d.SectionByID(cur.ParentID)
		if parent == nil {
			return nil
		}
		cur = parent
	}
	for i, j := 0, len(titles)-1; i < j; i, j = i+1, j-1 {
		titles[i], titles[j] = titles[j], titles[i]
	}
	return titles
}
