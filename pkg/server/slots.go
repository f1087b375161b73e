package server

import (
	"sync"

	"github.com/matzehuels/zplkit/pkg/errors"
	"github.com/matzehuels/zplkit/pkg/preview"
)

const defaultMaxSessions = 1024

// slotTable maps session ids to preview slots.
type slotTable struct {
	mu    sync.Mutex
	max   int
	slots map[string]*preview.Slot
}

func newSlotTable(max int) *slotTable {
	return &slotTable{max: max, slots: make(map[string]*preview.Slot)}
}

// get returns the slot for id, creating it with r. When the table is full,
// idle slots are dropped first; if every slot is busy, get fails with
// SERVER_BUSY.
func (t *slotTable) get(id string, r preview.Renderer) (*preview.Slot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if slot, ok := t.slots[id]; ok {
		return slot, nil
	}
	if len(t.slots) >= t.max {
		for k, slot := range t.slots {
			if !slot.Busy() {
				delete(t.slots, k)
			}
		}
		if len(t.slots) >= t.max {
			return nil, errors.New(errors.ErrCodeBusy, "too many preview sessions in flight")
		}
	}
	slot := preview.NewSlot(r)
	t.slots[id] = slot
	return slot, nil
}

func (t *slotTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots)
}
