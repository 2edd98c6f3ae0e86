package codes

import (
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScan_DedupesAndSorts(t *testing.T) {
	got := Scan("JBC19-N7C5 random JBC19-N7C5 other HKJ88-X2Z1")
	assert.Equal(t, []Code{"HKJ88-X2Z1", "JBC19-N7C5"}, got)
}

func TestScan_NoMatches(t *testing.T) {
	got := Scan("nothing here but noise 123 abc-defg")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestScan_EmptyText(t *testing.T) {
	assert.Empty(t, Scan(""))
}

func TestScan_TripleDuplicateCollapses(t *testing.T) {
	text := "JBC19-N7C5\nJBC19-N7C5\nJBC19-N7C5"
	first := Scan(text)
	assert.Equal(t, []Code{"JBC19-N7C5"}, first)

	// Running again over the joined output changes nothing.
	again := Scan(strings.Join(Strings(first), " "))
	assert.Equal(t, first, again)
}

func TestScan_CaseSensitive(t *testing.T) {
	assert.Empty(t, Scan("jbc19-n7c5"))
	assert.Equal(t, []Code{"JBC19-N7C5"}, Scan("jbc19-n7c5 JBC19-N7C5"))
}

func TestScan_VariantSuffix(t *testing.T) {
	assert.Equal(t, []Code{"JBC19-N7C5"}, Scan("card JBC19-N7C5-extra edge"))
}

func TestScan_MultiLineStack(t *testing.T) {
	text := `HW 2024 | ZZZ99-0001
  |  GHH12-K9L0 ~~
AAB01-C2D3 .. GHH12-K9L0`
	got := Scan(text)
	assert.Equal(t, []Code{"AAB01-C2D3", "GHH12-K9L0", "ZZZ99-0001"}, got)
}

func TestScan_AlwaysSorted(t *testing.T) {
	inputs := []string{
		"ZZZZZ-9999 AAAAA-0000 MMMMM-5555",
		"12345-ABCD 00000-ZZZZ ABCDE-1234",
		"",
	}
	for _, in := range inputs {
		got := Strings(Scan(in))
		assert.True(t, sort.StringsAreSorted(got), "unsorted output for %q: %v", in, got)
	}
}

func TestCode_Valid(t *testing.T) {
	tests := []struct {
		code Code
		want bool
	}{
		{"JBC19-N7C5", true},
		{"00000-0000", true},
		{"jbc19-n7c5", false},
		{"JBC19N7C5", false},
		{"JBC1-9N7C5", false},
		{"JBC19-N7C5-X", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.code.Valid(), "Valid(%q)", tt.code)
	}
}

func TestCode_Prefix(t *testing.T) {
	assert.Equal(t, "JBC19", Code("JBC19-N7C5").Prefix())
	assert.Equal(t, "JBC19", Code("JBC19-N7C5-extra").Prefix())
	assert.Equal(t, "NOHYPHEN", Code("NOHYPHEN").Prefix())
}
