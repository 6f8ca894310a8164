package pipeline

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/siherrmann/chronique/model"
)

// Parse confidences per surface form. Fully specified days are trusted most,
// partial and relative forms progressively less.
const (
	dayParseConfidence       = 1.0
	monthYearParseConfidence = 0.9
	yearParseConfidence      = 0.75
	relativeParseConfidence  = 0.5
)

// Recognized date format families, selectable and ordered via
// PipelineConfig.DateFormats
const (
	FormatNumeric   = "numeric"    // 12/01/2023, 12-01-2023, 12.01.2023
	FormatTextual   = "textual"    // 12 janvier 2023, 1er août 2022
	FormatMonthYear = "month_year" // janvier 2023
	FormatYear      = "year"       // 2023
	FormatRelative  = "relative"   // le lendemain, trois jours après
)

var frenchMonths = map[string]time.Month{
	"janvier": time.January, "fevrier": time.February, "février": time.February,
	"mars": time.March, "avril": time.April, "mai": time.May, "juin": time.June,
	"juillet": time.July, "aout": time.August, "août": time.August,
	"septembre": time.September, "octobre": time.October,
	"novembre": time.November, "decembre": time.December, "décembre": time.December,
}

var frenchNumbers = map[string]int{
	"un": 1, "une": 1, "deux": 2, "trois": 3, "quatre": 4, "cinq": 5,
	"six": 6, "sept": 7, "huit": 8, "neuf": 9, "dix": 10, "quinze": 15,
}

const monthAlternatives = `janvier|f[ée]vrier|mars|avril|mai|juin|juillet|ao[ûu]t|septembre|octobre|novembre|d[ée]cembre`

var (
	numericPattern   = regexp.MustCompile(`\b(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4})\b`)
	textualPattern   = regexp.MustCompile(`(?i)\b(1er|\d{1,2})\s+(` + monthAlternatives + `)\s+(\d{4})\b`)
	monthYearPattern = regexp.MustCompile(`(?i)\b(` + monthAlternatives + `)\s+(\d{4})\b`)
	yearPattern      = regexp.MustCompile(`\b(1[89]\d{2}|20\d{2})\b`)

	relativeFixedPattern = regexp.MustCompile(`(?i)\b(le\s+lendemain|la\s+veille|aujourd'hui|hier|demain)\b`)
	relativeCountPattern = regexp.MustCompile(`(?i)\b(un|une|deux|trois|quatre|cinq|six|sept|huit|neuf|dix|quinze|\d+)\s+(jours?|semaines?|mois)\s+(apr[èe]s|plus\s+tard|avant|auparavant)\b`)
)

// dateCandidate is a raw pattern match before overlap resolution
type dateCandidate struct {
	byteStart   int
	byteEnd     int
	rawText     string
	resolved    *model.PartialDate
	parseConf   float64
	relOffset   *int
	granularity int // finer granularity wins overlap ties
	familyOrder int
}

// DefaultDateDetector creates a date detector for French medical text.
// formats selects and orders the recognized format families (FormatNumeric,
// FormatTextual, ...); an empty list enables all of them. On overlapping
// matches the longest span wins, then the most specific granularity. A
// syntactically matched date with an impossible calendar value is kept with a
// nil resolved date and parse confidence 0, never dropped.
func DefaultDateDetector(formats []string) DateDetectFunc {
	if len(formats) == 0 {
		formats = []string{FormatNumeric, FormatTextual, FormatMonthYear, FormatYear, FormatRelative}
	}

	return func(text string) ([]*model.DateMention, error) {
		var candidates []dateCandidate

		for order, family := range formats {
			switch family {
			case FormatNumeric:
				candidates = append(candidates, matchNumeric(text, order)...)
			case FormatTextual:
				candidates = append(candidates, matchTextual(text, order)...)
			case FormatMonthYear:
				candidates = append(candidates, matchMonthYear(text, order)...)
			case FormatYear:
				candidates = append(candidates, matchYear(text, order)...)
			case FormatRelative:
				candidates = append(candidates, matchRelative(text, order)...)
			default:
				return nil, fmt.Errorf("unknown date format family %q", family)
			}
		}

		kept := resolveOverlaps(candidates)

		// Spans are rune offsets into the normalized text
		byteToRune := buildRuneIndex(text)
		mentions := make([]*model.DateMention, 0, len(kept))
		for _, c := range kept {
			mentions = append(mentions, &model.DateMention{
				Span:            model.Span{Start: byteToRune[c.byteStart], End: byteToRune[c.byteEnd]},
				RawText:         c.rawText,
				Resolved:        c.resolved,
				ParseConfidence: c.parseConf,
				RelativeOffset:  c.relOffset,
			})
		}

		sort.SliceStable(mentions, func(i, j int) bool {
			return mentions[i].Span.Start < mentions[j].Span.Start
		})

		return mentions, nil
	}
}

func matchNumeric(text string, order int) []dateCandidate {
	var out []dateCandidate
	for _, m := range numericPattern.FindAllStringSubmatchIndex(text, -1) {
		raw := text[m[0]:m[1]]
		day, _ := strconv.Atoi(text[m[2]:m[3]])
		month, _ := strconv.Atoi(text[m[4]:m[5]])
		year, _ := strconv.Atoi(text[m[6]:m[7]])

		c := dateCandidate{byteStart: m[0], byteEnd: m[1], rawText: raw, granularity: 3, familyOrder: order}
		if resolved, err := model.NewPartialDate(year, time.Month(month), day); err == nil {
			c.resolved = resolved
			c.parseConf = dayParseConfidence
		}
		out = append(out, c)
	}
	return out
}

func matchTextual(text string, order int) []dateCandidate {
	var out []dateCandidate
	for _, m := range textualPattern.FindAllStringSubmatchIndex(text, -1) {
		raw := text[m[0]:m[1]]
		dayText := strings.ToLower(text[m[2]:m[3]])
		if dayText == "1er" {
			dayText = "1"
		}
		day, _ := strconv.Atoi(dayText)
		month := frenchMonths[strings.ToLower(text[m[4]:m[5]])]
		year, _ := strconv.Atoi(text[m[6]:m[7]])

		c := dateCandidate{byteStart: m[0], byteEnd: m[1], rawText: raw, granularity: 3, familyOrder: order}
		if resolved, err := model.NewPartialDate(year, month, day); err == nil {
			c.resolved = resolved
			c.parseConf = dayParseConfidence
		}
		out = append(out, c)
	}
	return out
}

func matchMonthYear(text string, order int) []dateCandidate {
	var out []dateCandidate
	for _, m := range monthYearPattern.FindAllStringSubmatchIndex(text, -1) {
		raw := text[m[0]:m[1]]
		month := frenchMonths[strings.ToLower(text[m[2]:m[3]])]
		year, _ := strconv.Atoi(text[m[4]:m[5]])

		c := dateCandidate{byteStart: m[0], byteEnd: m[1], rawText: raw, granularity: 2, familyOrder: order}
		if resolved, err := model.NewPartialDate(year, month, 0); err == nil {
			c.resolved = resolved
			c.parseConf = monthYearParseConfidence
		}
		out = append(out, c)
	}
	return out
}

func matchYear(text string, order int) []dateCandidate {
	var out []dateCandidate
	for _, m := range yearPattern.FindAllStringIndex(text, -1) {
		raw := text[m[0]:m[1]]
		year, _ := strconv.Atoi(raw)

		c := dateCandidate{byteStart: m[0], byteEnd: m[1], rawText: raw, granularity: 1, familyOrder: order}
		if resolved, err := model.NewPartialDate(year, 0, 0); err == nil {
			c.resolved = resolved
			c.parseConf = yearParseConfidence
		}
		out = append(out, c)
	}
	return out
}

func matchRelative(text string, order int) []dateCandidate {
	var out []dateCandidate

	for _, m := range relativeFixedPattern.FindAllStringIndex(text, -1) {
		raw := text[m[0]:m[1]]
		offset := 0
		switch {
		case strings.Contains(strings.ToLower(raw), "lendemain"), strings.EqualFold(raw, "demain"):
			offset = 1
		case strings.Contains(strings.ToLower(raw), "veille"), strings.EqualFold(raw, "hier"):
			offset = -1
		}
		out = append(out, dateCandidate{
			byteStart: m[0], byteEnd: m[1], rawText: raw,
			parseConf: relativeParseConfidence, relOffset: &offset,
			granularity: 0, familyOrder: order,
		})
	}

	for _, m := range relativeCountPattern.FindAllStringSubmatchIndex(text, -1) {
		raw := text[m[0]:m[1]]
		countText := strings.ToLower(text[m[2]:m[3]])
		count, ok := frenchNumbers[countText]
		if !ok {
			count, _ = strconv.Atoi(countText)
		}

		unit := strings.ToLower(text[m[4]:m[5]])
		days := count
		switch {
		case strings.HasPrefix(unit, "semaine"):
			days = count * 7
		case unit == "mois":
			days = count * 30
		}

		direction := strings.ToLower(text[m[6]:m[7]])
		if strings.HasPrefix(direction, "avant") || strings.HasPrefix(direction, "auparavant") {
			days = -days
		}

		out = append(out, dateCandidate{
			byteStart: m[0], byteEnd: m[1], rawText: raw,
			parseConf: relativeParseConfidence, relOffset: &days,
			granularity: 0, familyOrder: order,
		})
	}

	return out
}

// resolveOverlaps keeps a non-overlapping subset of candidates, preferring
// longer spans, then finer granularity, then family order, then position
func resolveOverlaps(candidates []dateCandidate) []dateCandidate {
	ranked := make([]dateCandidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if la, lb := a.byteEnd-a.byteStart, b.byteEnd-b.byteStart; la != lb {
			return la > lb
		}
		if a.granularity != b.granularity {
			return a.granularity > b.granularity
		}
		if a.familyOrder != b.familyOrder {
			return a.familyOrder < b.familyOrder
		}
		return a.byteStart < b.byteStart
	})

	var kept []dateCandidate
	for _, c := range ranked {
		overlaps := false
		for _, k := range kept {
			if c.byteStart < k.byteEnd && k.byteStart < c.byteEnd {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, c)
		}
	}
	return kept
}

// buildRuneIndex maps every byte offset of text to its rune offset
func buildRuneIndex(text string) []int {
	index := make([]int, len(text)+1)
	runeCount := 0
	for byteOff := range text {
		index[byteOff] = runeCount
		runeCount++
	}
	index[len(text)] = runeCount
	return index
}
