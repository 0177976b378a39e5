// Package identity derives leaderboard display names from subject identifiers.
//
// The masking here is best-effort PII reduction for a public leaderboard:
// it hides most of the unique id but is not a confidentiality control.
package identity

import (
	"strings"

	"github.com/okian/winner/internal/domain/model"
)

// Unknown is used for both parts when the identifier cannot be parsed.
const Unknown = "UNKNOWN"

// Mask window, counted back from the end of the unique id.
const (
	maskFrom = 7
	maskTo   = 4
)

// Source is a parsed subject identifier.
type Source struct {
	UniqueID     string
	FriendlyName string
}

// Parse splits a widget/role/uniqueId/friendlyName identifier. Three parts
// use the unique id as the friendly name; two parts use the second part for
// both; anything shorter yields Unknown.
func Parse(subject string) Source {
	parts := strings.Split(subject, "/")
	switch {
	case len(parts) > 2:
		friendly := parts[2]
		if len(parts) > 3 {
			friendly = parts[3]
		}
		return Source{UniqueID: parts[2], FriendlyName: friendly}
	case len(parts) == 2:
		return Source{UniqueID: parts[1], FriendlyName: parts[1]}
	default:
		return Source{UniqueID: Unknown, FriendlyName: Unknown}
	}
}

// MaskedFragment returns the characters of uniqueID in [len-7, len-4), with
// both bounds clamped at zero. Ids of four characters or fewer yield "".
func MaskedFragment(uniqueID string) string {
	r := []rune(uniqueID)
	from := max(len(r)-maskFrom, 0)
	to := max(len(r)-maskTo, 0)
	return string(r[from:to])
}

// DisplayName renders the friendly name followed by the masked fragment of
// the unique id, e.g. "Alice (**...**123****)".
func DisplayName(subject string) string {
	src := Parse(subject)
	fragment := MaskedFragment(src.UniqueID)
	if fragment == "" {
		return src.FriendlyName
	}
	return src.FriendlyName + " (**...**" + fragment + "****)"
}

// Display replaces the raw subject identifier of a score record with its
// display name, keeping the score.
func Display(rec model.ScoreRecord) model.ScoreRecord {
	return model.ScoreRecord{
		UserID: DisplayName(rec.UserID),
		Score:  rec.Score,
	}
}
