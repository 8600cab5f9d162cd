package checkout

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
)

func TestCompensatorRollsBackInReverse(t *testing.T) {
	var got []string
	comp := &compensator{}
	for _, name := range []string{"a", "b", "c"} {
		comp.add(name, func(context.Context) error {
			got = append(got, name)
			return nil
		})
	}

	comp.rollback(context.Background())
	assert.Equal(t, []string{"c", "b", "a"}, got)
}

func TestCompensatorContinuesPastFailures(t *testing.T) {
	var got []string
	comp := &compensator{}
	comp.add("first", func(context.Context) error {
		got = append(got, "first")
		return nil
	})
	comp.add("broken", func(context.Context) error {
		return errors.New("undo failed")
	})
	comp.add("last", func(context.Context) error {
		got = append(got, "last")
		return nil
	})

	comp.rollback(context.Background())
	assert.Equal(t, []string{"last", "first"}, got)
}

func TestCompensatorRollbackIsOneShot(t *testing.T) {
	calls := 0
	comp := &compensator{}
	comp.add("only", func(context.Context) error {
		calls++
		return nil
	})

	comp.rollback(context.Background())
	comp.rollback(context.Background())
	assert.Equal(t, 1, calls)
}
