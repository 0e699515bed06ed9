package world

import "fmt"

// DropEntity is a stack left on the hall floor. Drops from a cancelled or
// completed trade carry the owner tag; only the owner may pick them up
// before the TTL runs out.
type DropEntity struct {
	ID          string
	Owner       string
	Item        string
	Count       int
	CreatedTick uint64
	ExpiresTick uint64
}

func (w *World) spawnDrop(ownerID string, item string, count int) *DropEntity {
	if item == "" || count <= 0 {
		return nil
	}
	nowTick := w.tick.Load()

	// Merge into an existing stack with the same owner tag.
	for _, d := range w.drops {
		if d.Owner == ownerID && d.Item == item {
			d.Count += count
			return d
		}
	}

	id := fmt.Sprintf("IT%06d", w.nextDropNum.Add(1))
	d := &DropEntity{
		ID:          id,
		Owner:       ownerID,
		Item:        item,
		Count:       count,
		CreatedTick: nowTick,
		ExpiresTick: nowTick + uint64(w.cfg.DropTTLTicks),
	}
	w.drops[id] = d
	w.auditEvent(nowTick, ownerID, "DROP_SPAWN", "", item)
	return d
}

// canAccept reports whether the inventory can take another stack of item.
// Merging into an existing stack is always allowed; a new kind needs a
// free slot under MaxInventoryStacks.
func (w *World) canAccept(p *Player, item string) bool {
	if p == nil {
		return false
	}
	if p.Inventory[item] > 0 {
		return true
	}
	kinds := 0
	for _, c := range p.Inventory {
		if c > 0 {
			kinds++
		}
	}
	return kinds < w.cfg.MaxInventoryStacks
}
