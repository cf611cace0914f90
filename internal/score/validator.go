package score

import (
	"regexp"
	"strconv"
	"strings"
)

// Reason names why a submission was rejected. The zero value means accepted.
type Reason string

// Rejection reasons reported by Accept.
const (
	ReasonNone         Reason = ""
	ReasonScheme       Reason = "scheme"
	ReasonLoopback     Reason = "loopback"
	ReasonBareHost     Reason = "bare_host"
	ReasonInvalidScore Reason = "invalid_score"
)

var bareHostURL = regexp.MustCompile(`^https?://[a-zA-Z0-9:]+/`)

// Submission is one tracking request after parameter parsing.
type Submission struct {
	URL   string
	Score int64
	// ScoreValid is false when the raw score had no leading digits.
	ScoreValid bool
	Title      string
}

// Verdict is the outcome of Accept.
type Verdict struct {
	Accepted bool
	Reason   Reason
}

// NewSubmission parses the raw request parameters into a Submission.
func NewSubmission(rawURL, rawScore, title string) Submission {
	n, ok := ParseScore(rawScore)
	return Submission{
		URL:        rawURL,
		Score:      n,
		ScoreValid: ok,
		Title:      title,
	}
}

// Accept decides whether a submission may be recorded. Rules run in order and
// the first failing rule wins.
func Accept(sub Submission) Verdict {
	u := sub.URL
	if !strings.Contains(u, "http://") && !strings.Contains(u, "https://") {
		return Verdict{Reason: ReasonScheme}
	}
	if strings.Contains(u, "://127.0.0.1") || strings.Contains(u, "://localhost") {
		return Verdict{Reason: ReasonLoopback}
	}
	if bareHostURL.MatchString(u) {
		return Verdict{Reason: ReasonBareHost}
	}
	// A score with no digits drops the submission silently instead of failing the save.
	if !sub.ScoreValid {
		return Verdict{Reason: ReasonInvalidScore}
	}
	return Verdict{Accepted: true}
}

// ParseScore reads a base-10 integer prefix: surrounding whitespace, an
// optional sign, then the longest run of digits. Trailing garbage is ignored,
// so "7abc" yields 7. It reports false when no digit is present or the value
// overflows int64.
func ParseScore(raw string) (int64, bool) {
	s := strings.TrimSpace(raw)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
