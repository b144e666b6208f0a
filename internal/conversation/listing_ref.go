package conversation

import (
	"net/url"
	"regexp"
	"strings"
)

var listingIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ListingRef is a listing mentioned in a message.
type ListingRef struct {
	ID    string
	Title string
}

// ParseListingRef extracts a listing from a marketplace item URL such as
// https://market.example.com/item/123/vintage-bike. The optional segment after the
// id is used as the title.
func ParseListingRef(text string) (ListingRef, bool) {
	text = strings.TrimSpace(text)
	if text == "" || strings.ContainsAny(text, " \n\t") {
		return ListingRef{}, false
	}

	u, err := url.Parse(text)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ListingRef{}, false
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, seg := range segments {
		if seg != "item" || i+1 >= len(segments) {
			continue
		}

		id := segments[i+1]
		if !ValidListingID(id) {
			return ListingRef{}, false
		}

		ref := ListingRef{ID: id}
		if i+2 < len(segments) {
			ref.Title = titleFromSlug(segments[i+2])
		}
		return ref, true
	}

	return ListingRef{}, false
}

// ValidListingID reports whether id can be used as a listing id (also as a deep link payload).
func ValidListingID(id string) bool {
	return listingIDPattern.MatchString(id)
}

func titleFromSlug(slug string) string {
	slug, err := url.PathUnescape(slug)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.ReplaceAll(slug, "-", " "))
}
