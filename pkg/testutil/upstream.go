package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
)

// EUFeedTitle is the RSS item title under which Upstream publishes its EU file.
const EUFeedTitle = "CSV - v1.0"

// SDNFixture is a headerless OFAC-style file.
const SDNFixture = `306,"BANCO NACIONAL DE CUBA","-0- ","CUBA","-0- ","-0- ","-0- ","-0- ","-0- ","-0- ","-0- ","a.k.a. 'BNC'."
7157,"ABBAS, Abu","individual","SDGT","-0- ","-0- ","-0- ","-0- ","-0- ","-0- ","-0- ","DOB 10 Dec 1948; POB Safed, Israel; nationality Palestinian."
9306,"SMITH, John","individual","SDGT","-0- ","-0- ","-0- ","-0- ","-0- ","-0- ","-0- ","DOB 15 Jun 1970; nationality British."
`

// EUFixture is a semicolon-separated, BOM-prefixed file with several rows
// per entity.
const EUFixture = "\ufeff" + `Entity_logical_id;Naal_wholename;Birt_date;Addr_country;Birt_country;Entity_remark
13;John Smith;1970-06-15;;GBR;
13;Johnny Smith;1970-06-15;GBR;;
21;Maria Garcia;1980-01-01;ESP;;
30;Banco Nacional de Cuba;;CUB;;State bank
`

// Upstream serves the fixture lists the way the real publishers do: a static
// SDN file, and an EU file located through an RSS index.
type Upstream struct {
	*httptest.Server

	mu      sync.RWMutex
	failing map[string]bool
}

// NewUpstream starts the fixture server. Callers must Close it.
func NewUpstream() *Upstream {
	u := &Upstream{failing: make(map[string]bool)}
	mux := http.NewServeMux()
	mux.HandleFunc("/sdn.csv", u.serve("/sdn.csv", "text/csv", func() string { return SDNFixture }))
	mux.HandleFunc("/rss", u.serve("/rss", "application/rss+xml", u.feed))
	mux.HandleFunc("/eu.csv", u.serve("/eu.csv", "text/csv; charset=utf-8", func() string { return EUFixture }))
	u.Server = httptest.NewServer(mux)
	return u
}

// SDNURL is the download location of the SDN fixture.
func (u *Upstream) SDNURL() string {
	return u.URL + "/sdn.csv"
}

// FeedURL is the location of the RSS index that links to the EU fixture.
func (u *Upstream) FeedURL() string {
	return u.URL + "/rss"
}

// SetFailing makes path answer 503 until reset.
func (u *Upstream) SetFailing(path string, failing bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failing[path] = failing
}

func (u *Upstream) serve(path, contentType string, body func() string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		u.mu.RLock()
		failing := u.failing[path]
		u.mu.RUnlock()
		if failing {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write([]byte(body()))
	}
}

func (u *Upstream) feed() string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Financial sanctions files</title>
    <item><title>XML - v1.1</title><link>%[1]s/eu.xml</link></item>
    <item><title>%[2]s</title><link>%[1]s/eu.csv</link></item>
  </channel>
</rss>`, u.URL, EUFeedTitle)
}
