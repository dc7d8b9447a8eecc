package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	cmd := ParseCommand("/DONE Messor barbarus")
	assert.Equal(t, CommandDone, cmd.Type)
	assert.Equal(t, "Messor barbarus", cmd.Rest(0))

	cmd = ParseCommand("pop 120 3 Lasius Niger")
	assert.Equal(t, CommandObserve, cmd.Type)
	assert.Equal(t, []string{"120", "3", "Lasius", "Niger"}, cmd.Args)
	assert.Equal(t, "Lasius Niger", cmd.Rest(2))
	assert.Equal(t, "", cmd.Rest(9))

	assert.Equal(t, CommandUnknown, ParseCommand("   ").Type)
	assert.Equal(t, CommandUnknown, ParseCommand("/eggs 12").Type)
}
