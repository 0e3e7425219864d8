package fetch

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"screener/pkg/platform/sentinel"
)

// maxDownloadBytes bounds a single download. Larger bodies fail the cycle.
var maxDownloadBytes int64 = 256 << 20

// URLResolver yields the URL of the file to download for one cycle.
type URLResolver interface {
	ResolveURL(ctx context.Context) (string, error)
}

// StaticURL is a URLResolver for a fixed download location.
type StaticURL string

func (u StaticURL) ResolveURL(context.Context) (string, error) {
	return string(u), nil
}

// Format describes how to read a downloaded file.
type Format struct {
	Delimiter rune
	Encoding  string // utf-8, utf-8-sig, latin1, windows-1252
	HasHeader bool
}

// Validate checks that the encoding is supported.
func (f Format) Validate() error {
	_, err := decoderFor(f.Encoding)
	return err
}

// Downloader fetches a delimiter-separated file and parses it into a Table.
type Downloader struct {
	client   *http.Client
	resolver URLResolver
	format   Format
}

// NewDownloader creates a downloader. A nil client uses http.DefaultClient.
func NewDownloader(client *http.Client, resolver URLResolver, format Format) (*Downloader, error) {
	if resolver == nil {
		return nil, fmt.Errorf("url resolver is required")
	}
	if err := format.Validate(); err != nil {
		return nil, err
	}
	if format.Delimiter == 0 {
		format.Delimiter = ','
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Downloader{client: client, resolver: resolver, format: format}, nil
}

// Fetch resolves the URL, downloads the file and parses it.
func (d *Downloader) Fetch(ctx context.Context) (Table, error) {
	url, err := d.resolver.ResolveURL(ctx)
	if err != nil {
		return Table{}, err
	}

	body, err := get(ctx, d.client, url)
	if err != nil {
		return Table{}, err
	}

	table, err := Parse(body, d.format)
	if err != nil {
		return Table{}, newError(KindParse, url, err)
	}
	return table, nil
}

// Parse decodes raw bytes with the format's encoding and splits them into a
// table.
func Parse(raw []byte, format Format) (Table, error) {
	dec, err := decoderFor(format.Encoding)
	if err != nil {
		return Table{}, err
	}
	text, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), dec.NewDecoder()))
	if err != nil {
		return Table{}, fmt.Errorf("decode %s: %w", format.Encoding, err)
	}

	r := csv.NewReader(bytes.NewReader(text))
	r.Comma = format.Delimiter
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	rows, err := r.ReadAll()
	if err != nil {
		return Table{}, err
	}
	if len(rows) == 0 {
		return Table{}, fmt.Errorf("file is empty")
	}

	if format.HasHeader {
		header := rows[0]
		for i := range header {
			header[i] = strings.TrimSpace(header[i])
		}
		return NewTable(header, rows[1:]), nil
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	return NewTable(positionalHeader(width), rows), nil
}

func decoderFor(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "utf-8-sig", "utf8-sig":
		return unicode.UTF8BOM, nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}

func get(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, newError(KindFetch, url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, newError(KindFetch, url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, newError(KindFetch, url, sentinel.ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, newError(KindFetch, url, fmt.Errorf("status %d: %w", resp.StatusCode, sentinel.ErrUnavailable))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes+1))
	if err != nil {
		return nil, newError(KindFetch, url, err)
	}
	if int64(len(body)) > maxDownloadBytes {
		return nil, newError(KindFetch, url, fmt.Errorf("%w: limit %d bytes", ErrBodyTooLarge, maxDownloadBytes))
	}
	return body, nil
}
