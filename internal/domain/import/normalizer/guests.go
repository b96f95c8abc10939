package normalizer

import (
	"fmt"
	"strings"
)

// plural picks the Italian singular or plural form for n
func plural(n int, singular, pluralForm string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, singular)
	}
	return fmt.Sprintf("%d %s", n, pluralForm)
}

// DescribeParty renders adult, child and infant counts, e.g. "2 adulti, 1 bambino".
// Children and infants are omitted when zero.
func DescribeParty(adults, children, infants int) string {
	parts := []string{plural(adults, "adulto", "adulti")}
	if children > 0 {
		parts = append(parts, plural(children, "bambino", "bambini"))
	}
	if infants > 0 {
		parts = append(parts, plural(infants, "neonato", "neonati"))
	}
	return strings.Join(parts, ", ")
}

// DescribeStay renders a person and night count, e.g. "2 persone, 3 notti"
func DescribeStay(persons, nights int) string {
	return plural(persons, "persona", "persone") + ", " + DescribeNights(nights)
}

// DescribeNights renders a night count, e.g. "1 notte"
func DescribeNights(nights int) string {
	return plural(nights, "notte", "notti")
}
