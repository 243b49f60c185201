package rating

import "strings"

// Tags exposes the static metadata the default heuristics compare.
type Tags interface {
	Artist() string
	Album() string
	Genre() string
}

// Matcher awards Bonus to a pair of tracks when Match holds.
type Matcher struct {
	Name  string
	Bonus float64
	Match func(a, b Tags) bool
}

// DefaultMatchers is the ordered list of heuristics used to derive the
// initial rating between two tracks that have never been rated.
var DefaultMatchers = []Matcher{
	{Name: "genre", Bonus: 1, Match: sameGenre},
	{Name: "artist-contains", Bonus: 1, Match: artistContains},
	{Name: "artist", Bonus: 1, Match: sameArtist},
	{Name: "album", Bonus: 1, Match: sameAlbum},
}

func sameGenre(a, b Tags) bool {
	return equalFold(a.Genre(), b.Genre())
}

func sameArtist(a, b Tags) bool {
	return equalFold(a.Artist(), b.Artist())
}

func sameAlbum(a, b Tags) bool {
	return equalFold(a.Album(), b.Album())
}

// artistContains matches "Artist" against "Artist feat. Other".
func artistContains(a, b Tags) bool {
	s1, s2 := a.Artist(), b.Artist()
	if s1 == "" || s2 == "" {
		return false
	}
	if len(s1) > len(s2) {
		return strings.Contains(s1, s2)
	}
	return strings.Contains(s2, s1)
}

func equalFold(s1, s2 string) bool {
	return s1 != "" && s2 != "" && strings.EqualFold(s1, s2)
}

// Derive computes the default rating between two tracks: Base plus the
// bonus of every matcher that holds.
func Derive(matchers []Matcher, a, b Tags) float64 {
	r := Base
	for _, m := range matchers {
		if m.Match(a, b) {
			r += m.Bonus
		}
	}
	return r
}
