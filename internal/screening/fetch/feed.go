package fetch

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/html/charset"
)

// FeedResolver finds the current download link of a list that is published
// through an RSS index, such as the EU financial sanctions feed.
type FeedResolver struct {
	client  *http.Client
	feedURL string
	title   string
}

// NewFeedResolver creates a resolver looking for the item titled title.
func NewFeedResolver(client *http.Client, feedURL, title string) *FeedResolver {
	if client == nil {
		client = http.DefaultClient
	}
	return &FeedResolver{client: client, feedURL: feedURL, title: title}
}

type rssDocument struct {
	Items []rssItem `xml:"channel>item"`
}

type rssItem struct {
	Title string `xml:"title"`
	Link  string `xml:"link"`
}

// ResolveURL downloads the feed and returns the link of the first item whose
// title equals the configured title exactly.
func (f *FeedResolver) ResolveURL(ctx context.Context) (string, error) {
	body, err := get(ctx, f.client, f.feedURL)
	if err != nil {
		return "", err
	}

	var doc rssDocument
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&doc); err != nil {
		return "", newError(KindParse, f.feedURL, fmt.Errorf("decode feed: %w", err))
	}

	for _, item := range doc.Items {
		if strings.TrimSpace(item.Title) != f.title {
			continue
		}
		if link := strings.TrimSpace(item.Link); link != "" {
			return link, nil
		}
	}
	return "", newError(KindFeedLookup, f.feedURL, fmt.Errorf("%w: %q", ErrFeedEntryNotFound, f.title))
}
