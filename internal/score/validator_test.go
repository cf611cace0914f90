package score

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAcceptRules(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		url    string
		score  string
		want   bool
		reason Reason
	}{
		{name: "plain domain", url: "http://example.com/page", score: "7", want: true},
		{name: "https domain", url: "https://www.example.co.kr/a?b=c", score: "3", want: true},
		{name: "ftp scheme", url: "ftp://example.com/a", score: "1", reason: ReasonScheme},
		{name: "no scheme", url: "example.com/a", score: "1", reason: ReasonScheme},
		{name: "empty url", url: "", score: "1", reason: ReasonScheme},
		{name: "loopback ip", url: "http://127.0.0.1/a", score: "1", reason: ReasonLoopback},
		{name: "localhost", url: "https://localhost:3000/", score: "1", reason: ReasonLoopback},
		{name: "host and port", url: "http://myhost:8080/path", score: "1", reason: ReasonBareHost},
		{name: "bare host", url: "http://intranet/", score: "1", reason: ReasonBareHost},
		{name: "scheme embedded later", url: "view-source:http://example.com/", score: "2", want: true},
		{name: "bad score", url: "http://example.com/page", score: "abc", reason: ReasonInvalidScore},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			v := Accept(NewSubmission(tt.url, tt.score, "title"))
			require.Equal(t, tt.want, v.Accepted)
			require.Equal(t, tt.reason, v.Reason)
		})
	}
}

func TestAcceptChecksURLBeforeScore(t *testing.T) {
	t.Parallel()

	v := Accept(NewSubmission("ftp://example.com/", "nope", ""))
	require.Equal(t, ReasonScheme, v.Reason)
}

func TestParseScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"7", 7, true},
		{" 12 ", 12, true},
		{"-3", -3, true},
		{"+4", 4, true},
		{"7abc", 7, true},
		{"7.9", 7, true},
		{"", 0, false},
		{"abc", 0, false},
		{"-", 0, false},
		{"99999999999999999999", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseScore(tt.in)
		require.Equal(t, tt.ok, ok, "input %q", tt.in)
		require.Equal(t, tt.want, got, "input %q", tt.in)
	}
}
