package clock_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/julien-sobczak/the-lessonwriter/pkg/clock"
	"github.com/stretchr/testify/assert"
)

func TestDefaultClock(t *testing.T) {
	t1 := time.Now()
	assert.WithinDuration(t, t1, clock.Now(), 1*time.Second)
	time.Sleep(20 * time.Millisecond)
	// time is not frozen by default
	assert.NotEqual(t, t1, clock.Now())
}

func TestTestClock(t *testing.T) {
	clock.Freeze()
	defer clock.Unfreeze()
	t1 := clock.Now()
	time.Sleep(20 * time.Millisecond)
	// time is always the same
	assert.Equal(t, t1, clock.Now())
}

func TestFastForward(t *testing.T) {
	point := time.Date(2023, 01, 01, 14, 00, 00, 00, time.UTC)
	c := clock.FreezeAt(point)
	defer clock.Unfreeze()

	c.FastForward(10 * time.Second)
	assert.Equal(t, point.Add(10*time.Second), clock.Now())
	assert.Equal(t, 10*time.Second, clock.Since(point))
}

func TestSwitchClock(t *testing.T) {
	// Time passes
	assert.WithinDuration(t, time.Now(), clock.Now(), 1*time.Second)

	// Time is frozen
	point := time.Date(2023, 01, 01, 14, 00, 00, 00, time.UTC)
	clock.FreezeAt(point)
	assert.Equal(t, point, clock.Now())

	// Time is unfrozen
	clock.Unfreeze()
	assert.WithinDuration(t, time.Now(), clock.Now(), 1*time.Second)
}

func ExampleFreezeAt() {
	point := time.Date(2023, 01, 01, 14, 00, 00, 00, time.UTC)
	clock.FreezeAt(point)
	defer clock.Unfreeze()

	fmt.Println(clock.Now())
	// Output: 2023-01-01 14:00:00 +0000 UTC
}
