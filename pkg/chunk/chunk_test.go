package chunk

import (
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// expectedCount mirrors the closed-form chunk count for text of length l:
// ceil(max(l-overlap, 0)/(size-overlap)), or 1 when 0 < l <= size.
func expectedCount(l, size, overlap int) int {
	if l == 0 {
		return 0
	}
	if l <= size {
		return 1
	}
	stride := size - overlap
	return (l - overlap + stride - 1) / stride
}

var _ = Describe("NewSplitter", func() {
	It("rejects overlap equal to size", func() {
		_, err := NewSplitter(100, 100)
		Expect(err).To(MatchError(ErrConfiguration))
	})

	It("rejects overlap greater than size", func() {
		_, err := NewSplitter(100, 150)
		Expect(err).To(MatchError(ErrConfiguration))
	})

	It("rejects non-positive size", func() {
		_, err := NewSplitter(0, 0)
		Expect(err).To(MatchError(ErrConfiguration))
	})

	It("rejects negative overlap", func() {
		_, err := NewSplitter(100, -1)
		Expect(err).To(MatchError(ErrConfiguration))
	})

	It("accepts zero overlap", func() {
		s, err := NewSplitter(100, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Size).To(Equal(100))
	})
})

var _ = Describe("Split", func() {
	var splitter *Splitter

	BeforeEach(func() {
		var err error
		splitter, err = NewSplitter(1000, 200)
		Expect(err).NotTo(HaveOccurred())
	})

	It("produces zero chunks for empty input", func() {
		Expect(splitter.Split("", "doc")).To(BeEmpty())
	})

	It("produces a single chunk when the text fits in one window", func() {
		chunks := splitter.Split("short text", "doc")
		Expect(chunks).To(HaveLen(1))
		Expect(chunks[0].Text).To(Equal("short text"))
		Expect(chunks[0].Index).To(Equal(0))
		Expect(chunks[0].Source).To(Equal("doc"))
	})

	It("matches the closed-form chunk count across text lengths", func() {
		for _, l := range []int{0, 1, 199, 200, 201, 999, 1000, 1001, 1800, 1801, 5000, 12345} {
			text := strings.Repeat("x", l)
			chunks := splitter.Split(text, "doc")
			Expect(chunks).To(HaveLen(expectedCount(l, 1000, 200)),
				"length %d", l)
		}
	})

	It("overlaps consecutive chunks by exactly the configured overlap", func() {
		// Distinct runes so overlapping spans are recognizable.
		text := make([]rune, 3000)
		for i := range text {
			text[i] = rune('a' + i%26)
		}

		chunks := splitter.Split(string(text), "doc")
		Expect(len(chunks)).To(BeNumerically(">", 1))

		for i := 0; i < len(chunks)-1; i++ {
			tail := []rune(chunks[i].Text)
			head := []rune(chunks[i+1].Text)
			Expect(string(tail[len(tail)-200:])).To(Equal(string(head[:200])))
		}
	})

	It("never emits a chunk longer than the configured size", func() {
		chunks := splitter.Split(strings.Repeat("y", 4321), "doc")
		for _, c := range chunks {
			Expect(len([]rune(c.Text))).To(BeNumerically("<=", 1000))
		}
	})

	It("assigns strictly increasing sequence indexes", func() {
		chunks := splitter.Split(strings.Repeat("z", 3000), "doc")
		for i, c := range chunks {
			Expect(c.Index).To(Equal(i))
		}
	})

	It("is deterministic for identical input and parameters", func() {
		text := strings.Repeat("determinism ", 500)
		Expect(splitter.Split(text, "doc")).To(Equal(splitter.Split(text, "doc")))
	})

	It("reconstructs the original text from chunk strides", func() {
		text := strings.Repeat("The quick brown fox. ", 300)
		chunks := splitter.Split(text, "doc")

		var rebuilt strings.Builder
		for i, c := range chunks {
			runes := []rune(c.Text)
			if i == len(chunks)-1 {
				rebuilt.WriteString(string(runes))
				break
			}
			rebuilt.WriteString(string(runes[:800]))
		}
		Expect(rebuilt.String()).To(Equal(text))
	})
})

var _ = Describe("Texts", func() {
	It("extracts chunk contents in order", func() {
		chunks := []Chunk{{Text: "a"}, {Text: "b"}, {Text: "c"}}
		Expect(Texts(chunks)).To(Equal([]string{"a", "b", "c"}))
	})
})
