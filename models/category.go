package models

// Categories an article or trend may be classified under. The categorizer
// maps any off-list answer to DefaultCategory.
var Categories = []string{
	"Siyosat",
	"Iqtisodiyot",
	"Sport",
	"Texnologiya",
	"Madaniyat",
	"Sog'liqni saqlash",
	"Ta'lim",
	"Ijtimoiy",
	"Boshqa",
}

const DefaultCategory = "Boshqa"

// ValidCategory reports whether s matches one of the known categories.
func ValidCategory(s string) bool {
	for _, c := range Categories {
		if c == s {
			return true
		}
	}
	return false
}
