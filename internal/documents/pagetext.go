package documents

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

// kernSpaceThreshold is the TJ displacement (thousandths of text space) past
// which a gap is treated as a word break.
const kernSpaceThreshold = -200

// maxFormDepth bounds form XObject nesting. Deeper chains are cyclic or broken.
const maxFormDepth = 16

// textFont is the font selected by Tf along with its decoder.
type textFont struct {
	name      string
	enc       pdf.TextEncoding
	composite bool
	// mapped is false for composite fonts without a ToUnicode map; their
	// codes are glyph IDs that cannot be turned back into characters.
	mapped bool
}

func defaultFont() textFont {
	return textFont{enc: pdf.Font{}.Encoder(), mapped: true}
}

func loadFont(resources pdf.Value, name string) textFont {
	v := resources.Key("Font").Key(name)
	if v.Kind() != pdf.Dict {
		f := defaultFont()
		f.name = name
		return f
	}
	f := textFont{name: name, enc: pdf.Font{V: v}.Encoder(), mapped: true}
	if v.Key("Subtype").Name() == "Type0" {
		f.composite = true
		f.mapped = v.Key("ToUnicode").Kind() == pdf.Stream
	}
	return f
}

func (f textFont) decode(raw string) (string, error) {
	if !f.mapped {
		return "", fmt.Errorf("font %s has no ToUnicode map", f.name)
	}
	text := f.enc.Decode(raw)
	if f.composite && strings.ContainsRune(text, unicode.ReplacementChar) {
		return "", fmt.Errorf("font %s has codes missing from its ToUnicode map", f.name)
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\n' || r == '\r':
			return ' '
		case r == unicode.ReplacementChar || unicode.IsControl(r):
			return -1
		}
		return r
	}, text), nil
}

// pageText accumulates the text of one page, following the text-showing
// operators and using the positioning operators to place word and line breaks.
type pageText struct {
	out   strings.Builder
	last  rune
	lastY float64
	haveY bool
	depth int
}

// extractPageText returns the text of a page, including text drawn by the
// form XObjects it invokes. Text in a font that cannot be mapped to Unicode
// is an error rather than silently garbled output.
func extractPageText(page pdf.Page) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed content stream: %v", r)
		}
	}()

	p := &pageText{}
	resources := page.Resources()
	font := defaultFont()
	contents := page.V.Key("Contents")
	switch contents.Kind() {
	case pdf.Stream:
		_, err = p.walk(contents, resources, font)
	case pdf.Array:
		for i := 0; i < contents.Len() && err == nil; i++ {
			font, err = p.walk(contents.Index(i), resources, font)
		}
	}
	if err != nil {
		return "", err
	}
	return normalizeExtractedText(p.out.String()), nil
}

func (p *pageText) walk(content, resources pdf.Value, font textFont) (textFont, error) {
	var err error
	var saved []textFont
	fonts := map[string]textFont{}

	pdf.Interpret(content, func(stk *pdf.Stack, op string) {
		n := stk.Len()
		args := make([]pdf.Value, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}
		if err != nil {
			return
		}

		switch op {
		case "q":
			saved = append(saved, font)
		case "Q":
			if len(saved) > 0 {
				font = saved[len(saved)-1]
				saved = saved[:len(saved)-1]
			}
		case "Tf":
			if len(args) > 0 {
				name := args[0].Name()
				f, ok := fonts[name]
				if !ok {
					f = loadFont(resources, name)
					fonts[name] = f
				}
				font = f
			}
		case "Tj":
			if len(args) > 0 {
				err = p.show(font, args[len(args)-1])
			}
		case "'", "\"":
			p.newline()
			if len(args) > 0 {
				err = p.show(font, args[len(args)-1])
			}
		case "TJ":
			if len(args) > 0 {
				err = p.showArray(font, args[len(args)-1])
			}
		case "T*":
			p.newline()
		case "Td", "TD":
			if len(args) == 2 {
				if args[1].Float64() != 0 {
					p.newline()
				} else if args[0].Float64() != 0 {
					p.space()
				}
			}
		case "Tm":
			if len(args) == 6 {
				y := args[5].Float64()
				if p.haveY && y != p.lastY {
					p.newline()
				} else if p.haveY {
					p.space()
				}
				p.lastY, p.haveY = y, true
			}
		case "ET":
			p.space()
		case "Do":
			if len(args) > 0 {
				err = p.form(resources, args[0].Name(), font)
			}
		}
	})
	return font, err
}

// form runs a form XObject's content stream. Image XObjects carry no text
// and are skipped.
func (p *pageText) form(resources pdf.Value, name string, font textFont) error {
	xobj := resources.Key("XObject").Key(name)
	if xobj.Kind() != pdf.Stream || xobj.Key("Subtype").Name() != "Form" {
		return nil
	}
	if p.depth >= maxFormDepth {
		return fmt.Errorf("form %s nested more than %d deep", name, maxFormDepth)
	}

	formResources := xobj.Key("Resources")
	if formResources.Kind() != pdf.Dict {
		formResources = resources
	}
	p.depth++
	defer func() { p.depth-- }()
	_, err := p.walk(xobj, formResources, font)
	return err
}

func (p *pageText) show(font textFont, v pdf.Value) error {
	if v.Kind() != pdf.String {
		return nil
	}
	text, err := font.decode(v.RawString())
	if err != nil {
		return err
	}
	p.write(text)
	return nil
}

func (p *pageText) showArray(font textFont, v pdf.Value) error {
	for i := 0; i < v.Len(); i++ {
		el := v.Index(i)
		switch el.Kind() {
		case pdf.String:
			if err := p.show(font, el); err != nil {
				return err
			}
		case pdf.Integer, pdf.Real:
			if el.Float64() <= kernSpaceThreshold {
				p.space()
			}
		}
	}
	return nil
}

func (p *pageText) write(s string) {
	if s == "" {
		return
	}
	p.out.WriteString(s)
	p.last, _ = utf8.DecodeLastRuneInString(s)
}

func (p *pageText) newline() {
	if p.out.Len() > 0 && p.last != '\n' {
		p.out.WriteByte('\n')
		p.last = '\n'
	}
}

func (p *pageText) space() {
	if p.out.Len() > 0 && p.last != ' ' && p.last != '\n' {
		p.out.WriteByte(' ')
		p.last = ' '
	}
}

func normalizeExtractedText(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	blank := 0
	for _, line := range lines {
		line = strings.TrimRight(line, " ")
		if line == "" {
			blank++
			if blank > 1 {
				continue
			}
		} else {
			blank = 0
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}
