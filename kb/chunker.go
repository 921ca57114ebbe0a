package kb

import (
	"encoding/hex"
	"strings"

	"github.com/go-crypt/x/blake2b"
	"github.com/pkoukk/tiktoken-go"
)

const (
	// DefaultChunkSize is the target token count per chunk.
	DefaultChunkSize = 800
	// DefaultChunkOverlap is the token overlap between consecutive chunks.
	DefaultChunkOverlap = 200

	// defaultEncoding is the tiktoken encoding used for chunk windows.
	defaultEncoding = "cl100k_base"

	// charsPerToken approximates tokens as characters when no tokenizer is
	// available. Applied to both size and overlap so fallback chunks stay
	// comparable to tokenized ones.
	charsPerToken = 4
)

// Chunk is a contiguous slice of source text prepared for embedding.
// Offsets are token indices, or character indices for the fallback path.
type Chunk struct {
	Content     string
	ContentHash string
	StartIdx    int
	EndIdx      int
}

// ContentHash computes a blake2b-256 hex digest of the UTF-8 bytes of text.
// Identical text always yields an identical hash; this is the sole identity
// mechanism for deduplication and stable point IDs.
func ContentHash(text string) string {
	h, _ := blake2b.New256(nil)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}

// ChunkText splits text into overlapping token-bounded chunks.
//
// A window of chunkSize tokens slides over the encoded text, advancing by
// chunkSize-chunkOverlap each step. Windows that decode to whitespace-only
// text are skipped. The loop terminates once a window reaches the end of
// the token stream, so no trailing zero-length window is emitted.
//
// Edge cases: empty text returns an empty slice; text shorter than one
// window returns exactly one chunk equal to the input.
//
// When the tiktoken encoding cannot be loaded, chunking degrades to a
// character-based approximation with both parameters scaled by
// charsPerToken.
func ChunkText(text string, chunkSize, chunkOverlap int) []Chunk {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap % chunkSize
	}

	encoding, err := tiktoken.GetEncoding(defaultEncoding)
	if err != nil {
		return chunkByChars(text, chunkSize*charsPerToken, chunkOverlap*charsPerToken)
	}

	tokens := encoding.Encode(text, nil, nil)

	var chunks []Chunk
	startIdx := 0

	for startIdx < len(tokens) {
		endIdx := min(startIdx+chunkSize, len(tokens))
		window := encoding.Decode(tokens[startIdx:endIdx])

		if strings.TrimSpace(window) != "" {
			chunks = append(chunks, Chunk{
				Content:     window,
				ContentHash: ContentHash(window),
				StartIdx:    startIdx,
				EndIdx:      endIdx,
			})
		}

		startIdx += chunkSize - chunkOverlap

		if endIdx == len(tokens) {
			break
		}
	}

	return chunks
}

// chunkByChars is the fallback character-based chunker used when the
// tokenizer is unavailable.
func chunkByChars(text string, chunkSize, chunkOverlap int) []Chunk {
	var chunks []Chunk
	runes := []rune(text)
	start := 0

	for start < len(runes) {
		end := min(start+chunkSize, len(runes))
		window := string(runes[start:end])

		if strings.TrimSpace(window) != "" {
			chunks = append(chunks, Chunk{
				Content:     window,
				ContentHash: ContentHash(window),
				StartIdx:    start,
				EndIdx:      end,
			})
		}

		start += chunkSize - chunkOverlap

		if end == len(runes) {
			break
		}
	}

	return chunks
}

// Deduplicate retains the first occurrence of each distinct content hash,
// preserving the original relative order and dropping later duplicates.
func Deduplicate(chunks []Chunk) []Chunk {
	seen := make(map[string]bool, len(chunks))
	unique := make([]Chunk, 0, len(chunks))

	for _, chunk := range chunks {
		if seen[chunk.ContentHash] {
			continue
		}
		seen[chunk.ContentHash] = true
		unique = append(unique, chunk)
	}

	return unique
}
