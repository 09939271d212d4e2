package statement

import (
	"encoding/csv"
	"io"
	"strings"
)

const sniffSampleLen = 2000

var candidateDelimiters = []rune{',', ';', '\t', '|'}

// DetectDelimiter scores each candidate over a leading sample and picks the
// one producing the most rows of consistent multi-column shape. Consistency
// is weighted above raw column count, so a delimiter that happens to appear
// inside free text loses to one that splits every row the same way.
func DetectDelimiter(text string) rune {
	sample := text
	if len(sample) > sniffSampleLen {
		cut := strings.LastIndexByte(sample[:sniffSampleLen], '\n')
		if cut > 0 {
			sample = sample[:cut]
		} else {
			sample = sample[:sniffSampleLen]
		}
	}

	best := ','
	bestScore := -1.0
	for _, d := range candidateDelimiters {
		score := shapeScore(sampleRecords(sample, d))
		if score > bestScore {
			bestScore = score
			best = d
		}
	}
	return best
}

func shapeScore(records [][]string) float64 {
	if len(records) == 0 {
		return 0
	}
	counts := map[int]int{}
	for _, rec := range records {
		counts[len(rec)]++
	}
	modeWidth, modeRows := 0, 0
	for width, rows := range counts {
		if rows > modeRows || (rows == modeRows && width > modeWidth) {
			modeWidth, modeRows = width, rows
		}
	}
	if modeWidth < 2 {
		return 0
	}
	widthBonus := float64(modeWidth)
	if widthBonus > 6 {
		widthBonus = 6
	}
	return float64(modeRows)/float64(len(records))*10 + widthBonus
}

func sampleRecords(text string, delim rune) [][]string {
	r := newReader(text, delim)
	var out [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// a ragged trailing line must not sink the sample
			continue
		}
		out = append(out, rec)
	}
	return out
}

// RawRecord is one tokenized line. Err is set when the line could not be
// parsed at all; Fields is nil in that case.
type RawRecord struct {
	Line   int
	Fields []string
	Err    error
}

// SplitRecords tokenizes the whole text with quoted fields honored. Blank
// rows are dropped; unparseable lines come back with Err set so the caller
// can diagnose them individually.
func SplitRecords(text string, delim rune) []RawRecord {
	r := newReader(text, delim)
	var out []RawRecord
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := 0
			if pe, ok := err.(*csv.ParseError); ok {
				line = pe.Line
			}
			out = append(out, RawRecord{Line: line, Err: err})
			continue
		}
		if blankRecord(rec) {
			continue
		}
		line, _ := r.FieldPos(0)
		out = append(out, RawRecord{Line: line, Fields: rec})
	}
	return out
}

func newReader(text string, delim rune) *csv.Reader {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	return r
}

func blankRecord(rec []string) bool {
	for _, cell := range rec {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
