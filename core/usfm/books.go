package usfm

import "strings"

// Book is one entry of the canonical book table.
type Book struct {
	ID   string // USFM book ID, upper case (e.g., "GEN")
	Name string // English display name
}

// canonicalBooks lists the 66 protestant canon books in canonical order.
var canonicalBooks = []Book{
	{"GEN", "Genesis"}, {"EXO", "Exodus"}, {"LEV", "Leviticus"}, {"NUM", "Numbers"},
	{"DEU", "Deuteronomy"}, {"JOS", "Joshua"}, {"JDG", "Judges"}, {"RUT", "Ruth"},
	{"1SA", "1 Samuel"}, {"2SA", "2 Samuel"}, {"1KI", "1 Kings"}, {"2KI", "2 Kings"},
	{"1CH", "1 Chronicles"}, {"2CH", "2 Chronicles"}, {"EZR", "Ezra"}, {"NEH", "Nehemiah"},
	{"EST", "Esther"}, {"JOB", "Job"}, {"PSA", "Psalms"}, {"PRO", "Proverbs"},
	{"ECC", "Ecclesiastes"}, {"SNG", "Song of Solomon"}, {"ISA", "Isaiah"}, {"JER", "Jeremiah"},
	{"LAM", "Lamentations"}, {"EZK", "Ezekiel"}, {"DAN", "Daniel"}, {"HOS", "Hosea"},
	{"JOL", "Joel"}, {"AMO", "Amos"}, {"OBA", "Obadiah"}, {"JON", "Jonah"},
	{"MIC", "Micah"}, {"NAM", "Nahum"}, {"HAB", "Habakkuk"}, {"ZEP", "Zephaniah"},
	{"HAG", "Haggai"}, {"ZEC", "Zechariah"}, {"MAL", "Malachi"},
	{"MAT", "Matthew"}, {"MRK", "Mark"}, {"LUK", "Luke"}, {"JHN", "John"},
	{"ACT", "Acts"}, {"ROM", "Romans"}, {"1CO", "1 Corinthians"}, {"2CO", "2 Corinthians"},
	{"GAL", "Galatians"}, {"EPH", "Ephesians"}, {"PHP", "Philippians"}, {"COL", "Colossians"},
	{"1TH", "1 Thessalonians"}, {"2TH", "2 Thessalonians"}, {"1TI", "1 Timothy"}, {"2TI", "2 Timothy"},
	{"TIT", "Titus"}, {"PHM", "Philemon"}, {"HEB", "Hebrews"}, {"JAS", "James"},
	{"1PE", "1 Peter"}, {"2PE", "2 Peter"}, {"1JN", "1 John"}, {"2JN", "2 John"},
	{"3JN", "3 John"}, {"JUD", "Jude"}, {"REV", "Revelation"},
}

var bookIndex = func() map[string]int {
	m := make(map[string]int, len(canonicalBooks))
	for i, b := range canonicalBooks {
		m[b.ID] = i
	}
	return m
}()

// Books returns a copy of the canonical book table.
func Books() []Book {
	out := make([]Book, len(canonicalBooks))
	copy(out, canonicalBooks)
	return out
}

// BookKey normalizes the value of an \id marker to the lower-case book key
// used in anchors ("GEN EN_ULT en_English_ltr" -> "gen").
func BookKey(idValue string) string {
	fields := strings.Fields(idValue)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}

// BookNumber returns the 1-based canonical position of a book, or 0 if the
// book is not in the table.
func BookNumber(id string) int {
	if i, ok := bookIndex[strings.ToUpper(id)]; ok {
		return i + 1
	}
	return 0
}

// BookName returns the display name for a book ID.
func BookName(id string) (string, bool) {
	if i, ok := bookIndex[strings.ToUpper(id)]; ok {
		return canonicalBooks[i].Name, true
	}
	return "", false
}
