package dump

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Page is one <page> element of a MediaWiki XML export.
type Page struct {
	Title     string    `xml:"title" json:"title"`
	Namespace int       `xml:"ns" json:"ns"`
	ID        int64     `xml:"id" json:"id"`
	Redirect  *Redirect `xml:"redirect" json:"redirect,omitempty"`
	Revision  Revision  `xml:"revision" json:"revision"`
}

// Redirect names the page a redirect points at.
type Redirect struct {
	Title string `xml:"title,attr" json:"title"`
}

// Revision holds the latest revision of a page, including its markup.
type Revision struct {
	ID          int64       `xml:"id" json:"id"`
	ParentID    int64       `xml:"parentid" json:"parentid,omitempty"`
	Timestamp   time.Time   `xml:"timestamp" json:"timestamp"`
	Contributor Contributor `xml:"contributor" json:"contributor"`
	Comment     string      `xml:"comment" json:"comment,omitempty"`
	Model       string      `xml:"model" json:"model,omitempty"`
	Format      string      `xml:"format" json:"format,omitempty"`
	Text        string      `xml:"text" json:"text"`
	SHA1        string      `xml:"sha1" json:"sha1,omitempty"`
}

// timestampLayouts are tried in order. Dumps use RFC 3339, older tools wrote
// the SQL form.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// UnmarshalXML decodes a revision, reading the timestamp leniently. A missing
// or unparseable timestamp leaves the zero time.
func (rv *Revision) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var raw struct {
		ID          int64       `xml:"id"`
		ParentID    int64       `xml:"parentid"`
		Timestamp   string      `xml:"timestamp"`
		Contributor Contributor `xml:"contributor"`
		Comment     string      `xml:"comment"`
		Model       string      `xml:"model"`
		Format      string      `xml:"format"`
		Text        string      `xml:"text"`
		SHA1        string      `xml:"sha1"`
	}
	if err := d.DecodeElement(&raw, &start); err != nil {
		return err
	}
	*rv = Revision{
		ID:          raw.ID,
		ParentID:    raw.ParentID,
		Timestamp:   parseTimestamp(raw.Timestamp),
		Contributor: raw.Contributor,
		Comment:     raw.Comment,
		Model:       raw.Model,
		Format:      raw.Format,
		Text:        raw.Text,
		SHA1:        raw.SHA1,
	}
	return nil
}

func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

type Contributor struct {
	Username string `xml:"username" json:"username,omitempty"`
	ID       int64  `xml:"id" json:"id,omitempty"`
	IP       string `xml:"ip" json:"ip,omitempty"`
}

// Text returns the page markup.
func (p *Page) Text() string {
	return p.Revision.Text
}

// IsRedirect reports whether the page only redirects elsewhere.
func (p *Page) IsRedirect() bool {
	return p.Redirect != nil
}

// PageError reports a page whose element was read but could not be decoded.
// The stream stays usable: Next can be called again for the following page.
type PageError struct {
	// Seq is the position of the page in the dump, starting at 1.
	Seq int

	// Page holds whatever was decoded before the failure, at least the title
	// when it came first.
	Page *Page

	Err error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("decode page %d %q: %v", e.Seq, e.Page.Title, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// Reader streams pages from an XML dump without loading it whole.
type Reader struct {
	dec   *xml.Decoder
	pages int
}

// NewReader returns a Reader over r. Decoding is non-strict and understands
// HTML entities, which show up in real dumps.
func NewReader(r io.Reader) *Reader {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	return &Reader{dec: dec}
}

// Next returns the next page, or io.EOF once the dump is exhausted. A page
// that fails to decode comes back with a *PageError, and reading can go on.
// Any other error means the stream itself is broken.
func (r *Reader) Next() (*Page, error) {
	for {
		tok, err := r.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("read dump after %d pages: %w", r.pages, err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "page" {
			continue
		}

		// Buffer the element first so a bad field cannot leave the stream
		// in the middle of a page.
		body, err := r.element(se)
		if err != nil {
			return nil, fmt.Errorf("read dump after %d pages: %w", r.pages, err)
		}
		r.pages++

		var p Page
		if err := xml.NewTokenDecoder(body).Decode(&p); err != nil {
			return &p, &PageError{Seq: r.pages, Page: &p, Err: err}
		}
		return &p, nil
	}
}

// element buffers start and every token up to and including its end.
func (r *Reader) element(start xml.StartElement) (*tokens, error) {
	toks := []xml.Token{xml.CopyToken(start)}
	for depth := 1; depth > 0; {
		tok, err := r.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
		toks = append(toks, xml.CopyToken(tok))
	}
	return &tokens{toks: toks}, nil
}

// tokens replays buffered tokens as an xml.TokenReader.
type tokens struct {
	toks []xml.Token
}

func (t *tokens) Token() (xml.Token, error) {
	if len(t.toks) == 0 {
		return nil, io.EOF
	}
	tok := t.toks[0]
	t.toks = t.toks[1:]
	return tok, nil
}

// Pages returns how many pages have been read so far, including pages that
// failed to decode.
func (r *Reader) Pages() int {
	return r.pages
}

// ReadAll calls fn for every page in r. For a page that failed to decode, fn
// gets the partial page and its *PageError; returning nil skips it. ReadAll
// stops at the first error from fn, a broken stream, or when ctx is done, and
// returns the number of pages handed to fn.
func ReadAll(ctx context.Context, r io.Reader, fn func(*Page, error) error) (int, error) {
	reader := NewReader(r)
	n := 0
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		p, err := reader.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		var pe *PageError
		if err != nil && !errors.As(err, &pe) {
			return n, err
		}
		n++
		if err := fn(p, err); err != nil {
			return n, err
		}
	}
}
