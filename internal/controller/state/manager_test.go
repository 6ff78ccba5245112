package state

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Freeeeeet/studio_scheduler/internal/controller/callbacks/callbacktypes"
)

func TestManager_Dialog(t *testing.T) {
	sm := NewManager()
	const tg = int64(42)

	assert.Equal(t, StateNone, sm.GetState(tg))

	sm.SetState(tg, StateRejectReason)
	sm.SetData(tg, KeyRequestID, int64(7))
	assert.Equal(t, StateRejectReason, sm.GetState(tg))

	id, ok := sm.GetInt64(tg, KeyRequestID)
	assert.True(t, ok)
	assert.Equal(t, int64(7), id)

	all := sm.GetAllData(tg)
	all[KeyRequestID] = int64(8)
	id, _ = sm.GetInt64(tg, KeyRequestID)
	assert.Equal(t, int64(7), id)

	sm.SetState(tg, StateNone)
	_, ok = sm.GetData(tg, KeyRequestID)
	assert.False(t, ok)
}

func TestManager_WrongType(t *testing.T) {
	sm := NewManager()
	sm.SetData(1, KeyRequestID, "7")

	_, ok := sm.GetInt64(1, KeyRequestID)
	assert.False(t, ok)
	assert.Equal(t, StateNone, sm.GetState(1))

	sm.ClearState(1)
	assert.Nil(t, sm.GetAllData(1))
}

func TestAdapter_SharesDialogWithCallbacks(t *testing.T) {
	sm := NewManager()
	a := NewAdapter(sm)
	const tg = int64(7)

	a.SetState(tg, callbacktypes.StateAbsenceReason)
	a.SetData(tg, callbacktypes.KeyEnrollmentID, int64(3))
	a.SetData(tg, callbacktypes.KeyDate, "2024-06-02")

	assert.Equal(t, StateAbsenceReason, sm.GetState(tg))
	id, ok := sm.GetInt64(tg, KeyEnrollmentID)
	assert.True(t, ok)
	assert.Equal(t, int64(3), id)
	date, ok := sm.GetData(tg, KeyDate)
	assert.True(t, ok)
	assert.Equal(t, "2024-06-02", date)

	assert.Equal(t, string(StateRejectReason), string(callbacktypes.StateRejectReason))
	assert.Equal(t, KeyRequestID, callbacktypes.KeyRequestID)

	a.ClearState(tg)
	assert.Equal(t, callbacktypes.UserState(""), a.GetState(tg))
}
