package hocr

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding/charmap"
)

// lineClasses are the hOCR classes that describe a single line of text.
var lineClasses = []string{"ocr_line", "ocr_header", "ocr_caption", "ocr_textfloat"}

// Parse converts raw hOCR data into a structured HOCR object.
func Parse(data []byte) (HOCR, error) {
	result := HOCR{Metadata: make(map[string]string)}

	decoded := data
	if enc := declaredCharset(data); enc != "" && enc != "utf-8" && enc != "utf8" {
		var err error
		decoded, err = charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return result, fmt.Errorf("failed to decode %s: %w", enc, err)
		}
	}

	doc, err := html.Parse(bytes.NewReader(decoded))
	if err != nil {
		return result, err
	}

	extractDocumentMeta(&result, doc)

	var findPages func(*html.Node)
	findPages = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "ocr_page") {
			result.Pages = append(result.Pages, processPage(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findPages(c)
		}
	}
	findPages(doc)

	if len(result.Pages) == 0 {
		return result, fmt.Errorf("no ocr_page elements found in hOCR data")
	}
	return result, nil
}

// declaredCharset returns the lowercased charset named in a meta tag, if any.
func declaredCharset(data []byte) string {
	const marker = "charset="
	idx := bytes.Index(bytes.ToLower(data), []byte(marker))
	if idx < 0 {
		return ""
	}
	rest := data[idx+len(marker):]
	fields := strings.FieldsFunc(string(rest), func(r rune) bool {
		return r == '"' || r == ';' || r == '\'' || r == '>' || r == ' ' || r == '/'
	})
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// extractDocumentMeta extracts document-level metadata from the html and head elements
func extractDocumentMeta(result *HOCR, doc *html.Node) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "html":
				if lang := getAttrVal(n, "lang"); lang != "" {
					result.Language = lang
				} else if lang := getAttrVal(n, "xml:lang"); lang != "" {
					result.Language = lang
				}
			case "title":
				if n.FirstChild != nil {
					result.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				name, content := getAttrVal(n, "name"), getAttrVal(n, "content")
				if strings.HasPrefix(name, "ocr-") && content != "" {
					result.Metadata[name] = content
				}
			case "body":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
}

// processPage extracts page information and every line below it
func processPage(n *html.Node) Page {
	page := Page{
		ID:   getAttrVal(n, "id"),
		Lang: getAttrVal(n, "lang"),
	}
	if title := getAttrVal(n, "title"); title != "" {
		if bbox := ParseBoundingBoxFromTitle(title); bbox != nil {
			page.BBox = *bbox
		}
		props := ParseTitle(title)
		if image, ok := props["image"]; ok && len(image) > 0 {
			page.ImageName = strings.Trim(strings.Join(image, " "), `"`)
		}
		if ppageno, ok := props["ppageno"]; ok && len(ppageno) > 0 {
			page.PageNumber, _ = strconv.Atoi(ppageno[0])
		}
	}

	var collect func(*html.Node, string)
	collect = func(node *html.Node, lang string) {
		if node.Type == html.ElementNode {
			if l := getAttrVal(node, "lang"); l != "" {
				lang = l
			}
			for _, class := range lineClasses {
				if hasClass(node, class) {
					page.Lines = append(page.Lines, processLine(node, lang))
					return
				}
			}
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			collect(c, lang)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c, page.Lang)
	}
	return page
}

// processLine extracts line information and its words
func processLine(n *html.Node, lang string) Line {
	line := Line{
		ID:   getAttrVal(n, "id"),
		Lang: lang,
	}
	if title := getAttrVal(n, "title"); title != "" {
		if bbox := ParseBoundingBoxFromTitle(title); bbox != nil {
			line.BBox = *bbox
		}
		props := ParseTitle(title)
		if baseline, ok := props["baseline"]; ok && len(baseline) > 0 {
			line.Baseline = strings.Join(baseline, " ")
		}
	}

	var extractWords func(*html.Node)
	extractWords = func(node *html.Node) {
		if node.Type == html.ElementNode && hasClass(node, "ocrx_word") {
			line.Words = append(line.Words, processWord(node, line.Lang))
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			extractWords(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractWords(c)
	}
	return line
}

// processWord extracts a word's text and properties
func processWord(n *html.Node, lang string) Word {
	word := Word{
		ID:   getAttrVal(n, "id"),
		Lang: lang,
		Text: extractTextContent(n),
	}
	if l := getAttrVal(n, "lang"); l != "" {
		word.Lang = l
	}
	if title := getAttrVal(n, "title"); title != "" {
		if bbox := ParseBoundingBoxFromTitle(title); bbox != nil {
			word.BBox = *bbox
		}
		if conf, ok := ParseTitle(title)["x_wconf"]; ok && len(conf) > 0 {
			word.Confidence, _ = strconv.ParseFloat(conf[0], 64)
		}
	}
	return word
}

// extractTextContent gets all text from a node and its children
func extractTextContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(getAttrVal(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// Get the value of a specific attribute from a node
func getAttrVal(n *html.Node, attrName string) string {
	for _, attr := range n.Attr {
		if attr.Key == attrName {
			return attr.Val
		}
	}
	return ""
}
