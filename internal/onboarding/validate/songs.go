// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package validate

import (
	"slices"
	"strings"
)

// MaxCustomSongs bounds how many custom entries a user may type in.
const MaxCustomSongs = 10

const (
	MsgSongsRequired = "Pick at least one song to continue."
	MsgSongsTooMany  = "You can add up to 10 custom songs."
)

// TopSongs is the catalog shown next to the custom entries.
var TopSongs = []string{
	"Blinding Lights – The Weeknd",
	"Shape of You – Ed Sheeran",
	"Levitating – Dua Lipa",
	"As It Was – Harry Styles",
	"drivers license – Olivia Rodrigo",
	"Uptown Funk – Mark Ronson ft. Bruno Mars",
	"Bad Guy – Billie Eilish",
	"Rolling in the Deep – Adele",
}

// NormalizeSongs trims every entry, drops blanks and removes exact duplicates,
// keeping the first occurrence and the original order.
func NormalizeSongs(inputs []string) []string {
	out := make([]string, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	for _, raw := range inputs {
		song := strings.TrimSpace(raw)
		if song == "" {
			continue
		}
		if _, dup := seen[song]; dup {
			continue
		}
		seen[song] = struct{}{}
		out = append(out, song)
	}
	return out
}

// Songs collects the raw custom entries of step 2. The entry limit is
// checked on the raw inputs; the result is the normalized list to store.
func Songs(inputs []string) ([]string, FieldErrors) {
	errs := FieldErrors{}
	if len(inputs) > MaxCustomSongs {
		errs.set(FieldSongs, MsgSongsTooMany)
		return nil, errs
	}
	songs := NormalizeSongs(inputs)
	if len(songs) == 0 {
		errs.set(FieldSongs, MsgSongsRequired)
		return nil, errs
	}
	return songs, errs
}

// CustomSongPrefill returns the stored songs that are not catalog entries,
// or a single blank entry so the form always shows one input.
func CustomSongPrefill(stored []string) []string {
	out := make([]string, 0, len(stored))
	for _, song := range stored {
		if !slices.Contains(TopSongs, song) {
			out = append(out, song)
		}
	}
	if len(out) == 0 {
		return []string{""}
	}
	return out
}
