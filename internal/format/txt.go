package format

import (
	"bufio"
	"io"
	"strings"

	"github.com/ontotag/ontotag/pkg/doc"
)

// TxtOptions configure the plain-text loader.
type TxtOptions struct {
	// SectionPerLine makes every non-empty line its own section. Off by
	// default: the whole input is one section.
	SectionPerLine bool
}

// LoadText reads plain text as a single article.
func LoadText(id string, r io.Reader, opts TxtOptions) (*doc.Article, error) {
	article := doc.NewArticle(id)
	if !opts.SectionPerLine {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		article.AddSection("text", strings.TrimRight(string(data), "\n"))
		return article, nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		article.AddSection("text", line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return article, nil
}
