package conflict

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyStrategy_Sample(t *testing.T) {
	assert.Equal(t, []string{"incoming"}, ApplyStrategy(AcceptIncoming, sampleConflict))
	assert.Equal(t, []string{"current"}, ApplyStrategy(KeepCurrent, sampleConflict))
	assert.Equal(t, []string{"current", "incoming"}, ApplyStrategy(AcceptBoth, sampleConflict))
	assert.Equal(t, sampleConflict, ApplyStrategy(EditExternally, sampleConflict))
}

func TestApplyStrategy_MultiLineSides(t *testing.T) {
	lines := []string{
		"<<<<<<< a/mm/vmscan.c",
		"c1",
		"",
		"c2",
		"=======",
		"i1",
		"i2",
		">>>>>>> b/mm/vmscan.c",
	}

	assert.Equal(t, []string{"i1", "i2"}, ApplyStrategy(AcceptIncoming, lines))
	assert.Equal(t, []string{"c1", "", "c2"}, ApplyStrategy(KeepCurrent, lines))
	assert.Equal(t, []string{"c1", "", "c2", "i1", "i2"}, ApplyStrategy(AcceptBoth, lines))
}

func TestApplyStrategy_Diff3BaseDropped(t *testing.T) {
	lines := []string{
		"<<<<<<< HEAD",
		"ours",
		"||||||| base",
		"original",
		"=======",
		"theirs",
		">>>>>>> patch",
	}

	assert.Equal(t, []string{"theirs"}, ApplyStrategy(AcceptIncoming, lines))
	assert.Equal(t, []string{"ours"}, ApplyStrategy(KeepCurrent, lines))
	assert.Equal(t, []string{"ours", "theirs"}, ApplyStrategy(AcceptBoth, lines))
}

func TestApplyStrategy_DividerLineInIncoming(t *testing.T) {
	lines := []string{
		"<<<<<<< a/Documentation/index.rst",
		"Title",
		"=======",
		"Heading",
		"=======",
		"body",
		">>>>>>> b/Documentation/index.rst",
	}

	assert.Equal(t, []string{"Heading", "=======", "body"}, ApplyStrategy(AcceptIncoming, lines))
	assert.Equal(t, []string{"Title"}, ApplyStrategy(KeepCurrent, lines))
	assert.Equal(t, []string{"Title", "Heading", "=======", "body"}, ApplyStrategy(AcceptBoth, lines))
}

func TestApplyStrategy_DegenerateRange(t *testing.T) {
	lines := []string{"<<<<<<< lonely"}
	for _, s := range []Strategy{AcceptIncoming, KeepCurrent, AcceptBoth} {
		assert.Empty(t, ApplyStrategy(s, lines), s.String())
	}
}

func TestApplyStrategy_EmptySide(t *testing.T) {
	lines := []string{"<<<<<<< A", "=======", "added", ">>>>>>> B"}
	assert.Empty(t, ApplyStrategy(KeepCurrent, lines))
	assert.Equal(t, []string{"added"}, ApplyStrategy(AcceptIncoming, lines))
}

func TestStrategy_Menu(t *testing.T) {
	assert.Equal(t, []Strategy{AcceptIncoming, KeepCurrent, AcceptBoth, EditExternally}, Strategies())
	assert.Equal(t, "Open in Editor", EditExternally.String())
	assert.True(t, AcceptBoth.Rewrites())
	assert.False(t, EditExternally.Rewrites())
	assert.Equal(t, "Strategy(7)", Strategy(7).String())
}
