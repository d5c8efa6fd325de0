package octo

import (
	"fmt"
	"unicode/utf8"

	"github.com/drpcorg/octo/octo_errors"
	"github.com/drpcorg/octo/protocol"
	"github.com/drpcorg/octo/value"
)

// ContentTag is the low 5 bits of an item's info byte.
type ContentTag byte

const (
	ContentGC     ContentTag = 0
	ContentString ContentTag = 4
	ContentType   ContentTag = 7
	ContentAny    ContentTag = 8
)

func (t ContentTag) String() string {
	switch t {
	case ContentGC:
		return "gc"
	case ContentString:
		return "string"
	case ContentType:
		return "type"
	case ContentAny:
		return "any"
	}
	return fmt.Sprintf("tag%d", byte(t))
}

// TypeKind is the kind of a shared type. The numbers are the wire ones.
type TypeKind byte

const (
	KindArray TypeKind = 0
	KindMap   TypeKind = 1
	KindText  TypeKind = 2

	kindUnknown TypeKind = 0xff
)

func (k TypeKind) String() string {
	switch k {
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindText:
		return "text"
	}
	return "unknown"
}

/*
Content is the payload of an item. The set of variants is closed:

	GC      a placeholder for a span that can never be shown
	String  a run of text, one clock tick per code point
	Type    the start of a nested Array, Map or Text (one tick)
	Any     a run of leaf values, one tick per value
*/
type Content struct {
	Tag  ContentTag
	Str  string
	Anys []value.Any
	Kind TypeKind

	// set when a type item is integrated
	branch *branch
}

func StringContent(s string) Content {
	return Content{Tag: ContentString, Str: s}
}

func AnyContent(vals ...value.Any) Content {
	return Content{Tag: ContentAny, Anys: vals}
}

func TypeContent(kind TypeKind) Content {
	return Content{Tag: ContentType, Kind: kind}
}

// Len is the number of clock ticks the content spans.
func (c *Content) Len() uint64 {
	switch c.Tag {
	case ContentString:
		return uint64(utf8.RuneCountInString(c.Str))
	case ContentAny:
		return uint64(len(c.Anys))
	case ContentType:
		return 1
	}
	return 0
}

// Countable content takes positions in a sequence when visible.
func (c *Content) Countable() bool {
	return c.Tag != ContentGC
}

// splice cuts the content at offset, keeps the head, returns the tail.
func (c *Content) splice(offset uint64) Content {
	switch c.Tag {
	case ContentString:
		at := runeOffset(c.Str, offset)
		tail := Content{Tag: ContentString, Str: c.Str[at:]}
		c.Str = c.Str[:at]
		return tail
	case ContentAny:
		tail := Content{Tag: ContentAny, Anys: c.Anys[offset:]}
		c.Anys = c.Anys[:offset:offset]
		return tail
	}
	return Content{Tag: c.Tag, Kind: c.Kind}
}

// tail returns a detached copy of the content starting at offset.
func (c *Content) tail(offset uint64) Content {
	switch c.Tag {
	case ContentString:
		return Content{Tag: ContentString, Str: c.Str[runeOffset(c.Str, offset):]}
	case ContentAny:
		return Content{Tag: ContentAny, Anys: c.Anys[offset:]}
	}
	return Content{Tag: c.Tag, Kind: c.Kind}
}

func runeOffset(s string, n uint64) int {
	at := 0
	for i := uint64(0); i < n && at < len(s); i++ {
		_, size := utf8.DecodeRuneInString(s[at:])
		at += size
	}
	return at
}

func appendContent(into []byte, c *Content) []byte {
	switch c.Tag {
	case ContentString:
		into = protocol.AppendString(into, c.Str)
	case ContentType:
		into = append(into, byte(c.Kind))
	case ContentAny:
		for _, a := range c.Anys {
			into = value.Append(into, a)
		}
	}
	return into
}

// readContent parses the payload of a content of the given span.
func readContent(d *protocol.Decoder, tag ContentTag, length uint64) (c Content, err error) {
	c.Tag = tag
	switch tag {
	case ContentGC:
	case ContentString:
		if c.Str, err = d.ReadString(); err != nil {
			return
		}
		if uint64(utf8.RuneCountInString(c.Str)) != length {
			err = fmt.Errorf("%w: string content of %d runes, span %d",
				octo_errors.ErrMalformed, utf8.RuneCountInString(c.Str), length)
		}
	case ContentType:
		var k byte
		if k, err = d.ReadByte(); err != nil {
			return
		}
		if k > byte(KindText) {
			return c, fmt.Errorf("%w: type kind %d", octo_errors.ErrInvalidTag, k)
		}
		c.Kind = TypeKind(k)
		if length != 1 {
			err = fmt.Errorf("%w: type content spans %d", octo_errors.ErrMalformed, length)
		}
	case ContentAny:
		// every value takes at least a byte
		if length > uint64(d.Len()) {
			return c, octo_errors.ErrTruncated
		}
		c.Anys = make([]value.Any, length)
		for i := range c.Anys {
			if c.Anys[i], err = value.Read(d); err != nil {
				return
			}
		}
	default:
		err = fmt.Errorf("%w: content tag %d", octo_errors.ErrInvalidTag, tag)
	}
	return
}
