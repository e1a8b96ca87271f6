package sitemap

import (
	"bytes"
	"encoding/xml"

	"github.com/pkg/errors"
)

// Declaration prepended to every sitemap
const Declaration = `<?xml version="1.0" encoding="utf-8"?>` + "\n"

type (
	urlSet struct {
		XMLName     xml.Name `xml:"urlset"`
		Xmlns       string   `xml:"xmlns,attr"`
		XmlnsXhtml  string   `xml:"xmlns:xhtml,attr,omitempty"`
		XmlnsMobile string   `xml:"xmlns:mobile,attr,omitempty"`
		URLs        []*URL   `xml:"url"`
	}
	// URL a sitemap entry
	URL struct {
		Comment    string      `xml:",comment"`
		Loc        string      `xml:"loc"`
		LastMod    string      `xml:"lastmod"`
		ChangeFreq string      `xml:"changefreq"`
		Priority   string      `xml:"priority"`
		Mobile     *mobile     `xml:"mobile:mobile"`
		Alternates []*HrefLang `xml:"xhtml:link"`
	}
	// HrefLang alternate language link of an entry
	HrefLang struct {
		Rel  string `xml:"rel,attr"`
		Lang string `xml:"hreflang,attr"`
		Href string `xml:"href,attr"`
	}
	mobile struct{}
)

func marshal(set *urlSet) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(Declaration)
	if err := xml.NewEncoder(&buf).Encode(set); err != nil {
		return nil, errors.Wrap(err, "failed to encode sitemap")
	}
	return buf.Bytes(), nil
}
