package counters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyAddsAndRemoves(t *testing.T) {
	cs := New()

	cs = cs.Apply("charge", 1)
	assert.Equal(t, 1, cs["charge"])

	cs = cs.Apply("charge", -1)
	_, present := cs["charge"]
	assert.False(t, present, "a counter at zero must be removed, not stored as 0")
}

func TestApplyClampsAtZero(t *testing.T) {
	cs := New().Apply("+1/+1", 2)

	cs = cs.Apply("+1/+1", -5)
	assert.Empty(t, cs)
	assert.Equal(t, 0, cs["+1/+1"])
}

func TestApplyDoesNotMutateReceiver(t *testing.T) {
	original := Counters{"loyalty": 3}

	next := original.Apply("loyalty", 2)

	assert.Equal(t, 3, original["loyalty"])
	assert.Equal(t, 5, next["loyalty"])
}

func TestApplyNegativeOnMissingKey(t *testing.T) {
	var cs Counters

	next := cs.Apply("poison", -1)
	assert.NotNil(t, next)
	assert.NotContains(t, next, "poison")
}

func TestCopyDropsNonPositive(t *testing.T) {
	cs := Counters{"age": 2, "doom": 0, "fate": -1}

	assert.Equal(t, Counters{"age": 2}, cs.Copy())
}

func TestToViewIsSorted(t *testing.T) {
	cs := Counters{"time": 1, "charge": 4, "+1/+1": 2}

	views := cs.ToView()
	assert.Equal(t, []CounterView{
		{Name: "+1/+1", Count: 2},
		{Name: "charge", Count: 4},
		{Name: "time", Count: 1},
	}, views)
}
