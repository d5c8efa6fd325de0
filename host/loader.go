package host

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/drpcorg/octo"
)

type Chunk struct {
	Index   int
	Content string
}

type ParsedDoc struct {
	Name   string
	Chunks []Chunk
}

// Loader turns a file into text chunks. Implementations (pdf, markdown)
// live with the host.
type Loader interface {
	Load(path string, data []byte) (ParsedDoc, error)
}

type LoaderFunc func(path string, data []byte) (ParsedDoc, error)

func (f LoaderFunc) Load(path string, data []byte) (ParsedDoc, error) {
	return f(path, data)
}

// PlainText splits by blank lines.
var PlainText = LoaderFunc(func(path string, data []byte) (ParsedDoc, error) {
	doc := ParsedDoc{Name: filepath.Base(path)}
	for _, part := range strings.Split(string(data), "\n\n") {
		if part = CleanContent(part); part != "" {
			doc.Chunks = append(doc.Chunks, Chunk{Index: len(doc.Chunks), Content: part})
		}
	}
	return doc, nil
})

// CleanContent trims the lines and drops the empty ones.
func CleanContent(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

type ParseResult struct {
	Doc ParsedDoc
	Err error
}

// ParseDoc runs the loader off the caller's goroutine. The channel gets
// exactly one result and is closed.
func ParseDoc(ctx context.Context, loader Loader, path string, data []byte) <-chan ParseResult {
	ch := make(chan ParseResult, 1)
	go func() {
		defer close(ch)
		doc, err := loader.Load(path, data)
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		ch <- ParseResult{Doc: doc, Err: err}
	}()
	return ch
}

type Tokenizer interface {
	Count(text string, allowedSpecial []string) int
}

// TokenizerFactory gives the tokenizer of a model, if it knows one.
type TokenizerFactory func(model string) (Tokenizer, bool)

// TokenizerFor picks the tokenizer used to size the context of a model:
// gpt models by name, image models none, everything else the gpt-4 one.
func TokenizerFor(factory TokenizerFactory, model string) Tokenizer {
	var name string
	switch {
	case model == "", strings.HasPrefix(model, "dall"):
		return nil
	case strings.HasPrefix(model, "gpt"):
		name = model
	default:
		name = "gpt-4"
	}
	t, ok := factory(name)
	if !ok {
		return nil
	}
	return t
}

// MergeInApplyWay applies the updates one by one to a scratch document
// and encodes its whole state.
func MergeInApplyWay(opts octo.Options, updates ...[]byte) ([]byte, error) {
	doc := octo.NewDoc(opts)
	defer doc.Destroy()
	for _, update := range updates {
		if err := doc.ApplyUpdate(update); err != nil {
			return nil, err
		}
	}
	return doc.EncodeStateAsUpdate(nil), nil
}
