package resolver

import "encoding/xml"

// atomFeed is the subset of the Atom syndication format the SWORDv2
// statement document needs: a feed whose entries carry sword-state
// categories.
type atomFeed struct {
	XMLName xml.Name     `xml:"feed"`
	Entries []atomEntry  `xml:"entry"`
}

type atomEntry struct {
	Categories []atomCategory `xml:"category"`
}

type atomCategory struct {
	Scheme string `xml:"scheme,attr"`
	Term   string `xml:"term,attr"`
}

// swordStateScheme is the category scheme SWORDv2 statement documents use
// to carry the deposit's external status term.
const swordStateScheme = "http://purl.org/net/sword/terms/state"

// extractSwordStateTerm returns the term of the first sword-state category
// found across the feed's entries, in document order.
func extractSwordStateTerm(body []byte) (string, bool, error) {
	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return "", false, err
	}

	for _, entry := range feed.Entries {
		for _, cat := range entry.Categories {
			if cat.Scheme == swordStateScheme {
				return cat.Term, true, nil
			}
		}
	}

	return "", false, nil
}
