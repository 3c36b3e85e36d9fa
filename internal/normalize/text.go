// Package normalize repairs raw OCR text from scanned CIM exhibits before it
// is shown to the extraction model. OCR output from tabular financial pages
// wraps long row labels across physical lines and loses column delimiters;
// this pass is a best-effort heuristic repair, not a reconstruction.
package normalize

import (
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reHWS        = regexp.MustCompile(`[ \t]{2,}`)
	reSplitMoney = regexp.MustCompile(`(\d)[ \t]*(\$[ \t]*\d)`)
)

// boilerplate lines that carry no financial content: page furniture,
// confidentiality banners, section stamps. Matched anywhere in the text.
var denylist = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bpage\s+\d+(\s+of\s+\d+)?\b`),
	regexp.MustCompile(`(?i)\bstrictly\s+(private\s+(&|and)\s+)?confidential\b`),
	regexp.MustCompile(`(?i)\bconfidential\s+information\s+memorandum\b`),
	regexp.MustCompile(`(?i)\bfor\s+discussion\s+purposes\s+only\b`),
	regexp.MustCompile(`(?i)\bdo\s+not\s+distribute\b`),
	regexp.MustCompile(`(?im)^[ \t]*confidential[ \t]*$`),
}

// Text cleans raw OCR output into a more regular layout. It never fails and
// is stable under reapplication: already-joined labels and already-separated
// figures pass through unchanged.
func Text(raw string) string {
	if raw == "" {
		return raw
	}
	s := reCRLF.ReplaceAllString(raw, "\n")
	s = stripBoilerplate(s)
	s = joinLabelFragments(s)
	s = splitMoneyColumns(s)
	s = collapseSpaces(s)
	return strings.TrimSpace(s)
}

// isDataRow reports whether a line opens a data row: the first non-blank
// character is a digit, a dollar sign, or an opening parenthesis (the CIM
// convention for negative values).
func isDataRow(line string) bool {
	t := strings.TrimSpace(line)
	if t == "" {
		return false
	}
	c := t[0]
	return (c >= '0' && c <= '9') || c == '$' || c == '('
}

// joinLabelFragments drops blank lines and joins consecutive non-data lines
// with a single space, so a row label that OCR wrapped mid-phrase becomes one
// logical line again. A data row flushes the accumulated label.
func joinLabelFragments(s string) string {
	var out []string
	var label []string
	flush := func() {
		if len(label) > 0 {
			out = append(out, strings.Join(label, " "))
			label = label[:0]
		}
	}
	for _, line := range strings.Split(s, "\n") {
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}
		if isDataRow(t) {
			flush()
			out = append(out, t)
			continue
		}
		label = append(label, t)
	}
	flush()
	return strings.Join(out, "\n")
}

// splitMoneyColumns breaks a digit glued to a following dollar figure onto
// its own line. Replacement runs to a fixpoint: regexp matches do not
// overlap, so a single pass misses the next boundary whenever a one-digit
// figure sits between two of them.
func splitMoneyColumns(s string) string {
	for {
		next := reSplitMoney.ReplaceAllString(s, "$1\n$2")
		if next == s {
			return next
		}
		s = next
	}
}

func stripBoilerplate(s string) string {
	for _, re := range denylist {
		s = re.ReplaceAllString(s, "")
	}
	return s
}

// collapseSpaces squeezes runs of horizontal whitespace within a line into a
// single space. Line breaks are kept: they delimit the rows reconstructed
// above.
func collapseSpaces(s string) string {
	s = reHWS.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.Join(lines, "\n")
}
