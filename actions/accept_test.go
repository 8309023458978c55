package actions

import (
	"context"
	"testing"

	"github.com/arolang/aro/eventbus"
	"github.com/arolang/aro/ports"
	"github.com/arolang/aro/program"
	"github.com/arolang/aro/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcceptAppliesValidTransition(t *testing.T) {
	bus := eventbus.New()
	received := make(chan ports.Event, 1)
	bus.Subscribe("state.transition", func(ctx context.Context, ev ports.Event) error {
		received <- ev
		return nil
	})

	stmt := program.StatementDescriptor{
		Verb:   "accept",
		Result: program.ResultDescriptor{Base: "pending_to_shipped"},
		Object: program.ObjectDescriptor{Preposition: program.PrepOn, Base: "order"},
	}
	order := value.FromEntity(value.Entity{Fields: map[string]value.Value{
		"id": value.String("7"), "status": value.String("pending"),
	}})
	actx := newActionContext(order, true, stmt)
	actx.Deps.Events = bus
	require.NoError(t, actx.RuntimeCtx.Bind("order", order))

	v, err := (AcceptAction{}).Execute(actx)
	require.NoError(t, err)
	assert.Equal(t, "shipped", v.Entity.Fields["status"].Str)

	select {
	case ev := <-received:
		assert.Equal(t, "order", ev.Payload["objectName"].Str)
	default:
		t.Fatal("expected state.transition event")
	}
}

func TestAcceptRejectsWrongCurrentState(t *testing.T) {
	stmt := program.StatementDescriptor{
		Verb:   "accept",
		Result: program.ResultDescriptor{Base: "pending_to_shipped"},
		Object: program.ObjectDescriptor{Preposition: program.PrepOn, Base: "order"},
	}
	order := value.FromEntity(value.Entity{Fields: map[string]value.Value{
		"id": value.String("7"), "status": value.String("shipped"),
	}})
	actx := newActionContext(order, true, stmt)
	require.NoError(t, actx.RuntimeCtx.Bind("order", order))

	_, err := (AcceptAction{}).Execute(actx)
	assert.Error(t, err)
}

func TestAcceptUndefinedEntityErrors(t *testing.T) {
	stmt := program.StatementDescriptor{
		Verb:   "accept",
		Result: program.ResultDescriptor{Base: "pending_to_shipped"},
		Object: program.ObjectDescriptor{Preposition: program.PrepOn, Base: "missing"},
	}
	actx := newActionContext(value.Null, false, stmt)

	_, err := (AcceptAction{}).Execute(actx)
	assert.Error(t, err)
}
