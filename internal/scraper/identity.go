package scraper

import (
	"crypto/md5"
	"encoding/hex"
)

// NewID derives the stable content identity for a canonical URL. The hash is
// content-independent of price, so re-scraping the same URL yields the same
// identity.
func NewID(canonicalURL string) string {
	sum := md5.Sum([]byte(canonicalURL))
	return hex.EncodeToString(sum[:])
}

// PairID derives the identity of a candidate/reference pair, used as the
// opportunity key.
func PairID(candidateID, referenceID string) string {
	return NewID(candidateID + "-" + referenceID)
}
