package shared

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatMessageForDisplay(t *testing.T) {
	msg := Message{Kind: KindError, Content: "Error CS1002: ; expected", Line: 3, Suggestion: "Add a semicolon"}

	assert.Equal(t, "Error CS1002: ; expected\n  Suggestion: Add a semicolon", FormatMessageForDisplay(msg, false))
	assert.Equal(t, colorRed+"Error CS1002: ; expected"+colorReset+"\n"+colorCyan+"  Suggestion: Add a semicolon"+colorReset,
		FormatMessageForDisplay(msg, true))

	plain := Message{Kind: KindInfo, Content: "Hello"}
	assert.Equal(t, "Hello", FormatMessageForDisplay(plain, true), "program output stays uncoloured")
}

func TestFormatMessageLine(t *testing.T) {
	ts := time.Date(2024, 1, 2, 13, 4, 5, 6_000_000, time.UTC)

	line := FormatMessageLine(Message{Kind: KindWarning, Content: "careful", Timestamp: ts, Line: 7, Suggestion: "slow down"})
	assert.Equal(t, "13:04:05.006 [warning] (line 7) careful | suggestion: slow down", line)

	line = FormatMessageLine(Message{Kind: KindInfo, Content: "x", Timestamp: ts})
	assert.Equal(t, "13:04:05.006 [info] x", line)
}

func TestDim(t *testing.T) {
	assert.Equal(t, "note", Dim("note", false))
	assert.Equal(t, colorGray+"note"+colorReset, Dim("note", true))
}
