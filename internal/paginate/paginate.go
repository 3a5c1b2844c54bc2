// Package paginate computes the page links shown under listings.
package paginate

import (
	"net/url"
	"strconv"
)

// window is the number of page links shown around the current page.
const window = 5

type Link struct {
	Label   string `json:"label"`
	Page    int    `json:"page"`
	URL     string `json:"url"`
	Current bool   `json:"current,omitempty"`
}

type Pager struct {
	Total   int    `json:"total"`
	PerPage int    `json:"per_page"`
	Page    int    `json:"page"`
	Pages   int    `json:"pages"`
	Links   []Link `json:"links,omitempty"`
}

func (p Pager) Offset() int { return (p.Page - 1) * p.PerPage }
func (p Pager) Limit() int  { return p.PerPage }

// New clamps page into [1, Pages] and builds links from rawURL, replacing
// its pageno parameter and keeping all others.
func New(total, perPage, page int, rawURL string) Pager {
	if perPage <= 0 {
		perPage = 10
	}
	pages := (total + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	p := Pager{Total: total, PerPage: perPage, Page: page, Pages: pages}
	if pages == 1 {
		return p
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		u = &url.URL{}
	}
	link := func(label string, n int) Link {
		q := u.Query()
		q.Set("pageno", strconv.Itoa(n))
		v := *u
		v.RawQuery = q.Encode()
		return Link{Label: label, Page: n, URL: v.String(), Current: n == page}
	}

	first := page - window/2
	if first < 1 {
		first = 1
	}
	last := first + window - 1
	if last > pages {
		last = pages
		if first = last - window + 1; first < 1 {
			first = 1
		}
	}

	if first > 1 {
		p.Links = append(p.Links, link("«", 1))
	}
	for n := first; n <= last; n++ {
		p.Links = append(p.Links, link(strconv.Itoa(n), n))
	}
	if last < pages {
		p.Links = append(p.Links, link("»", pages))
	}
	return p
}
