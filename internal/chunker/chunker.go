package chunker

import "strings"

// Kind selects the chunking strategy for a document. It is resolved once
// from the file extension at ingestion time and passed in explicitly.
type Kind string

const (
	KindCode  Kind = "code"
	KindProse Kind = "prose"
)

// DefaultCodeOverlapLines is the number of trailing lines carried into the
// next chunk when splitting code.
const DefaultCodeOverlapLines = 5

// Chunk is a contiguous slice of a document's text. Index is the ordinal
// position within the document, starting at 0; it feeds the derived
// document id, so chunking must stay deterministic.
type Chunk struct {
	Text  string
	Index int
	Kind  Kind
}

// Chunker splits document text into overlapping chunks. Size and Overlap
// are measured in words; CodeOverlapLines is measured in lines.
type Chunker struct {
	Size             int
	Overlap          int
	CodeOverlapLines int
}

// New returns a Chunker with the given word budget and overlap.
func New(size, overlap int) *Chunker {
	return &Chunker{Size: size, Overlap: overlap, CodeOverlapLines: DefaultCodeOverlapLines}
}

// Chunk splits text according to kind. Empty or whitespace-only text yields
// no chunks; text smaller than the chunk size yields exactly one.
func (c *Chunker) Chunk(text string, kind Kind) []Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if kind == KindCode {
		return c.chunkCode(text)
	}
	return c.chunkProse(text)
}

// chunkProse packs consecutive paragraphs into chunks of at most Size
// words. A single paragraph exceeding the budget is split with a sliding
// word window and never merges with its neighbours.
func (c *Chunker) chunkProse(text string) []Chunk {
	paragraphs := strings.Split(text, "\n\n")

	var chunks []Chunk
	var current []string
	currentWords := 0
	index := 0

	flush := func() {
		joined := strings.TrimSpace(strings.Join(current, "\n\n"))
		if joined != "" {
			chunks = append(chunks, Chunk{Text: joined, Index: index, Kind: KindProse})
			index++
		}
		current = nil
		currentWords = 0
	}

	for _, para := range paragraphs {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}

		if len(words) > c.Size {
			flush()
			for _, text := range c.slideWords(words) {
				chunks = append(chunks, Chunk{Text: text, Index: index, Kind: KindProse})
				index++
			}
			continue
		}

		if currentWords+len(words) > c.Size && len(current) > 0 {
			flush()
		}
		current = append(current, para)
		currentWords += len(words)
	}
	flush()

	return chunks
}

// slideWords yields sliding windows of Size words with Overlap words shared
// between consecutive windows.
func (c *Chunker) slideWords(words []string) []string {
	var out []string
	start := 0
	for start < len(words) {
		end := start + c.Size
		if end > len(words) {
			end = len(words)
		}
		out = append(out, strings.Join(words[start:end], " "))
		if end >= len(words) {
			break
		}
		next := end - c.Overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return out
}

// chunkCode accumulates whole lines until the word budget is exceeded,
// carrying the last CodeOverlapLines lines into the next chunk so that
// context is preserved across boundaries.
func (c *Chunker) chunkCode(text string) []Chunk {
	lines := strings.Split(text, "\n")

	var chunks []Chunk
	var current []string
	currentWords := 0
	index := 0

	overlap := c.CodeOverlapLines
	if overlap <= 0 {
		overlap = DefaultCodeOverlapLines
	}

	for _, line := range lines {
		lineWords := len(strings.Fields(line))

		if currentWords+lineWords > c.Size && len(current) > 0 {
			content := strings.Join(current, "\n")
			if strings.TrimSpace(content) != "" {
				chunks = append(chunks, Chunk{Text: content, Index: index, Kind: KindCode})
				index++
			}

			keep := len(current) - overlap
			if keep < 0 {
				keep = 0
			}
			current = append([]string(nil), current[keep:]...)
			currentWords = 0
			for _, l := range current {
				currentWords += len(strings.Fields(l))
			}
		}

		current = append(current, line)
		currentWords += lineWords
	}

	if len(current) > 0 {
		content := strings.Join(current, "\n")
		if strings.TrimSpace(content) != "" {
			chunks = append(chunks, Chunk{Text: content, Index: index, Kind: KindCode})
		}
	}

	return chunks
}
