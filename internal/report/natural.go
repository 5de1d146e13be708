package report

import (
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// naturalOrder sorts strings the way a reader expects: runs of digits compare
// as numbers ("3.10" after "3.2") and case is ignored.
//
// A collate.Collator keeps internal buffers, so a naturalOrder must not be
// shared between goroutines.
type naturalOrder struct {
	c *collate.Collator
}

func newNaturalOrder() *naturalOrder {
	return &naturalOrder{
		c: collate.New(language.Und, collate.Numeric, collate.IgnoreCase, collate.IgnoreDiacritics, collate.IgnoreWidth),
	}
}

// Compare returns -1, 0 or 1. Strings that collate equal fall back to byte
// order so that the result is a total order.
func (n *naturalOrder) Compare(a, b string) int {
	if r := n.c.CompareString(a, b); r != 0 {
		return r
	}
	return strings.Compare(a, b)
}
