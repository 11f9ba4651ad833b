package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const pptxSlidePathPrefix = "ppt/slides/slide"

// atTag matches <a:t>text</a:t> with any attributes.
var atTag = regexp.MustCompile(`<a:t[^>]*>([^<]*)</a:t>`)

// extractPPTX returns one page per slide, ordered by slide number.
func extractPPTX(content []byte) ([]string, error) {
	zr, err := openZip(content)
	if err != nil {
		return nil, fmt.Errorf("extract PPTX: %w", err)
	}
	type slide struct {
		n    int
		name string
	}
	var slides []slide
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, pptxSlidePathPrefix) || !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(f.Name, pptxSlidePathPrefix), ".xml"))
		if err != nil {
			continue
		}
		slides = append(slides, slide{n: n, name: f.Name})
	}
	// slide10.xml sorts before slide2.xml lexically.
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })

	pages := make([]string, 0, len(slides))
	for _, s := range slides {
		data, err := readZipEntry(zr, s.name)
		if err != nil {
			return nil, fmt.Errorf("extract PPTX: %w", err)
		}
		pages = append(pages, joinMatches(atTag, data))
	}
	return pages, nil
}
