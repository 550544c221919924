package diag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTest = errors.New("test kind")

func TestLocationString(t *testing.T) {
	assert.Equal(t, "plan.yaml:12", Location{File: "plan.yaml", Line: 12}.String())
	assert.Equal(t, "plan.yaml:?", Location{File: "plan.yaml"}.String())
	assert.Equal(t, "?:3", Location{Line: 3}.String())
	assert.False(t, NoLocation.Known())
}

func TestErrorUnwrap(t *testing.T) {
	err := Errorf(Location{File: "a.yaml", Line: 4}, errTest, "goal %q is bad", "X")

	assert.EqualError(t, err, `a.yaml:4: goal "X" is bad`)
	assert.True(t, errors.Is(err, errTest))

	var de *Error
	require.True(t, errors.As(error(err), &de))
	assert.Equal(t, 4, de.Loc.Line)
}

func TestErrorWithoutLocation(t *testing.T) {
	err := Errorf(NoLocation, errTest, "plain")
	assert.EqualError(t, err, "plain")
}

func TestWarnings(t *testing.T) {
	var w Warnings
	w.Warnf(Location{File: "p", Line: 1}, "first %d", 1)
	w.Warnf(NoLocation, "second")

	require.Equal(t, 2, w.Len())
	list := w.List()
	assert.Equal(t, "p:1: first 1", list[0].String())
	assert.Equal(t, "second", list[1].String())
	assert.Equal(t, "p:1: first 1\nsecond\n", w.String())

	var other Warnings
	other.Warnf(NoLocation, "third")
	w.Merge(&other)
	assert.Equal(t, 3, w.Len())
}

func TestNilWarningsDiscard(t *testing.T) {
	var w *Warnings
	w.Warnf(NoLocation, "ignored")
	assert.Equal(t, 0, w.Len())
	assert.Nil(t, w.List())
}
