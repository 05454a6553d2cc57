package markup

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

const (
	defaultWidth      = 600
	defaultBackground = "#f4f4f4"
	defaultFontStack  = "Helvetica,Arial,sans-serif"
	defaultTextColor  = "#333333"
	defaultAccent     = "#2563eb"
)

// CompileResult holds the compiled document and any recoverable defects
// found along the way. Warnings never prevent compilation.
type CompileResult struct {
	HTML     string
	Warnings []string
}

// emailPolicy sanitizes raw HTML blocks down to constructs that render
// consistently in email clients. Scripts, event handlers, and javascript:
// URLs are stripped; table layout attributes survive because the rest of
// the document is built from them.
var emailPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("style", "align", "valign", "width", "height", "border",
		"cellpadding", "cellspacing", "bgcolor", "role").Globally()
	p.AllowElements("table", "thead", "tbody", "tr", "td", "th", "center")
	return p
}()

// markdown renders text blocks. Raw HTML inside markdown is omitted by the
// default renderer, which keeps text blocks and raw blocks distinct tools.
var markdown = goldmark.New()

// Compile transforms a definition into a self-contained HTML document.
// The output is byte-deterministic for identical definitions; placeholders
// like {{firstName}} are preserved verbatim for the recipient renderer.
func Compile(def *Definition) (*CompileResult, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	width := def.Width
	if width == 0 {
		width = defaultWidth
	}
	background := def.Background
	if background == "" {
		background = defaultBackground
	}

	var warnings []string
	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n")
	b.WriteString(`<html lang="en">`)
	b.WriteString("\n<head>\n")
	b.WriteString(`<meta charset="utf-8">` + "\n")
	b.WriteString(`<meta name="viewport" content="width=device-width,initial-scale=1">` + "\n")
	b.WriteString("<title>" + html.EscapeString(def.Name) + "</title>\n")
	b.WriteString("</head>\n")
	fmt.Fprintf(&b, `<body style="margin:0;padding:0;background-color:%s;">`, html.EscapeString(background))
	b.WriteString("\n")
	fmt.Fprintf(&b, `<table role="presentation" width="100%%" cellpadding="0" cellspacing="0" border="0" style="background-color:%s;">`, html.EscapeString(background))
	b.WriteString("\n<tr><td align=\"center\">\n")
	fmt.Fprintf(&b, `<table role="presentation" width="%d" cellpadding="0" cellspacing="0" border="0" style="width:%dpx;max-width:100%%;">`, width, width)
	b.WriteString("\n")

	for si, section := range def.Sections {
		sectionBG := section.Background
		if sectionBG == "" {
			sectionBG = "#ffffff"
		}
		padding := section.Padding
		if padding == 0 {
			padding = 24
		}
		fmt.Fprintf(&b, `<tr><td style="background-color:%s;padding:%dpx;">`, html.EscapeString(sectionBG), padding)
		b.WriteString("\n")

		for bi, block := range section.Blocks {
			out, ws := compileBlock(block, si, bi)
			warnings = append(warnings, ws...)
			b.WriteString(out)
		}

		b.WriteString("</td></tr>\n")
	}

	b.WriteString("</table>\n</td></tr>\n</table>\n</body>\n</html>\n")

	return &CompileResult{HTML: b.String(), Warnings: warnings}, nil
}

func compileBlock(block Block, si, bi int) (string, []string) {
	var warnings []string
	var b strings.Builder

	align := block.Align
	if align == "" {
		align = "left"
	}
	color := block.Color
	if color == "" {
		color = defaultTextColor
	}

	switch block.Kind {
	case BlockText:
		var md bytes.Buffer
		if err := markdown.Convert([]byte(block.Text), &md); err != nil {
			// goldmark is total over byte input; treat a failure as a
			// recoverable defect rather than aborting the document.
			warnings = append(warnings, fmt.Sprintf("section %d block %d: markdown rendering failed: %v", si+1, bi+1, err))
			fmt.Fprintf(&b, `<p style="margin:0 0 16px;font-family:%s;font-size:16px;line-height:24px;color:%s;">%s</p>`,
				defaultFontStack, html.EscapeString(color), html.EscapeString(block.Text))
			b.WriteString("\n")
			break
		}
		fmt.Fprintf(&b, `<div style="font-family:%s;font-size:16px;line-height:24px;color:%s;text-align:%s;">`,
			defaultFontStack, html.EscapeString(color), html.EscapeString(align))
		b.Write(bytes.TrimRight(md.Bytes(), "\n"))
		b.WriteString("</div>\n")

	case BlockHeading:
		level := block.Level
		if level < 1 || level > 3 {
			level = 2
		}
		sizes := map[int]int{1: 28, 2: 22, 3: 18}
		fmt.Fprintf(&b, `<h%d style="margin:0 0 16px;font-family:%s;font-size:%dpx;color:%s;text-align:%s;">%s</h%d>`,
			level, defaultFontStack, sizes[level], html.EscapeString(color), html.EscapeString(align), html.EscapeString(block.Text), level)
		b.WriteString("\n")

	case BlockButton:
		if block.URL == "" || block.Label == "" {
			warnings = append(warnings, fmt.Sprintf("section %d block %d: button requires url and label", si+1, bi+1))
			b.WriteString("<!-- button omitted: missing url or label -->\n")
			break
		}
		accent := block.Color
		if accent == "" {
			accent = defaultAccent
		}
		fmt.Fprintf(&b, `<table role="presentation" cellpadding="0" cellspacing="0" border="0" align="%s"><tr><td style="background-color:%s;border-radius:4px;">`,
			html.EscapeString(align), html.EscapeString(accent))
		fmt.Fprintf(&b, `<a href="%s" style="display:inline-block;padding:12px 24px;font-family:%s;font-size:16px;color:#ffffff;text-decoration:none;">%s</a>`,
			html.EscapeString(block.URL), defaultFontStack, html.EscapeString(block.Label))
		b.WriteString("</td></tr></table>\n")

	case BlockImage:
		if block.Src == "" {
			warnings = append(warnings, fmt.Sprintf("section %d block %d: image block missing src", si+1, bi+1))
			b.WriteString("<!-- image omitted: missing src -->\n")
			break
		}
		w := ""
		if block.Width > 0 {
			w = fmt.Sprintf(` width="%d"`, block.Width)
		}
		fmt.Fprintf(&b, `<img src="%s" alt="%s"%s style="display:block;max-width:100%%;height:auto;border:0;">`,
			html.EscapeString(block.Src), html.EscapeString(block.Alt), w)
		b.WriteString("\n")

	case BlockDivider:
		b.WriteString(`<table role="presentation" width="100%" cellpadding="0" cellspacing="0" border="0"><tr><td style="border-top:1px solid #dddddd;font-size:0;line-height:0;">&nbsp;</td></tr></table>` + "\n")

	case BlockSpacer:
		height := block.Height
		if height <= 0 {
			height = 16
		}
		fmt.Fprintf(&b, `<div style="height:%dpx;line-height:%dpx;font-size:0;">&nbsp;</div>`, height, height)
		b.WriteString("\n")

	case BlockRaw:
		sanitized := emailPolicy.Sanitize(block.HTML)
		if strings.TrimSpace(sanitized) != strings.TrimSpace(block.HTML) {
			warnings = append(warnings, fmt.Sprintf("section %d block %d: raw html was sanitized", si+1, bi+1))
		}
		b.WriteString(sanitized)
		b.WriteString("\n")

	default:
		warnings = append(warnings, fmt.Sprintf("section %d block %d: unknown block kind %q", si+1, bi+1, block.Kind))
		fmt.Fprintf(&b, "<!-- unsupported block kind %q -->\n", html.EscapeString(string(block.Kind)))
	}

	return b.String(), warnings
}
