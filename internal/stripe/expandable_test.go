package stripe

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandableFromString(t *testing.T) {
	var e Expandable[Customer]
	require.NoError(t, json.Unmarshal([]byte(`"cus_1"`), &e))
	assert.Equal(t, "cus_1", e.ID)
	assert.Nil(t, e.Obj)
	assert.False(t, e.IsZero())
}

func TestExpandableFromObject(t *testing.T) {
	var e Expandable[Customer]
	require.NoError(t, json.Unmarshal([]byte(`{"id":"cus_1","object":"customer","email":"a@b.c"}`), &e))
	assert.Equal(t, "cus_1", e.ID)
	require.NotNil(t, e.Obj)
	require.NotNil(t, e.Obj.Email)
	assert.Equal(t, "a@b.c", *e.Obj.Email)
}

func TestExpandableNull(t *testing.T) {
	var e Expandable[Customer]
	require.NoError(t, json.Unmarshal([]byte(`null`), &e))
	assert.True(t, e.IsZero())
}

func TestExpandableRejectsOtherShapes(t *testing.T) {
	var e Expandable[Customer]
	err := json.Unmarshal([]byte(`42`), &e)
	assert.ErrorContains(t, err, "unexpected shape")
}

func TestExpandableRoundTrip(t *testing.T) {
	for _, in := range []string{`"cus_1"`, `null`} {
		var e Expandable[Customer]
		require.NoError(t, json.Unmarshal([]byte(in), &e))
		out, err := json.Marshal(e)
		require.NoError(t, err)
		assert.JSONEq(t, in, string(out))
	}
}

func TestEventObjectHelpers(t *testing.T) {
	ev := Event{ID: "evt_1", Type: "customer.updated"}
	ev.Data.Object = json.RawMessage(`{"object":"customer","id":"cus_1"}`)

	objType, err := ev.ObjectType()
	require.NoError(t, err)
	assert.Equal(t, "customer", objType)

	objID, err := ev.ObjectID()
	require.NoError(t, err)
	assert.Equal(t, "cus_1", objID)
}

func TestEventObjectHelpersRejectEmpty(t *testing.T) {
	ev := Event{ID: "evt_1", Type: "customer.updated"}
	ev.Data.Object = json.RawMessage(`{}`)

	_, err := ev.ObjectType()
	assert.ErrorContains(t, err, "no object discriminator")
	_, err = ev.ObjectID()
	assert.ErrorContains(t, err, "no id")
}

func TestEventIsDelete(t *testing.T) {
	assert.True(t, (&Event{Type: "customer.deleted"}).IsDelete())
	assert.True(t, (&Event{Type: "customer.source.deleted"}).IsDelete())
	assert.False(t, (&Event{Type: "payment_method.detached"}).IsDelete())
	assert.False(t, (&Event{Type: "customer.updated"}).IsDelete())
}
