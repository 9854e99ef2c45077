package bluesky

import "regexp"

// The consuming network addresses rich-text spans in UTF-8 bytes, not
// characters. Go's regexp indices are byte offsets already, so they can be
// used directly; re-slicing the text with them must yield the exact span.
var (
	urlPattern     = regexp.MustCompile(`https?://[^\s<>\[\]]+`)
	hashtagPattern = regexp.MustCompile(`#([0-9A-Za-z_\x{00C0}-\x{024F}]+)`)
)

type facetIndex struct {
	ByteStart int `json:"byteStart"`
	ByteEnd   int `json:"byteEnd"`
}

type facetFeature struct {
	Type string `json:"$type"`
	URI  string `json:"uri,omitempty"`
	Tag  string `json:"tag,omitempty"`
}

type facet struct {
	Index    facetIndex     `json:"index"`
	Features []facetFeature `json:"features"`
}

// parseFacets annotates every HTTP(S) URL and #hashtag in the text with its
// byte-offset span.
func parseFacets(text string) []facet {
	var facets []facet

	for _, span := range urlPattern.FindAllStringIndex(text, -1) {
		facets = append(facets, facet{
			Index: facetIndex{ByteStart: span[0], ByteEnd: span[1]},
			Features: []facetFeature{{
				Type: "app.bsky.richtext.facet#link",
				URI:  text[span[0]:span[1]],
			}},
		})
	}

	for _, span := range hashtagPattern.FindAllStringSubmatchIndex(text, -1) {
		facets = append(facets, facet{
			Index: facetIndex{ByteStart: span[0], ByteEnd: span[1]},
			Features: []facetFeature{{
				Type: "app.bsky.richtext.facet#tag",
				Tag:  text[span[2]:span[3]],
			}},
		})
	}

	return facets
}
