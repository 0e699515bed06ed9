package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sort"
)

// stateDigest hashes the simulation-relevant state in a deterministic order.
// Resume tokens and client wiring are excluded on purpose.
func (w *World) stateDigest(nowTick uint64) string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, nowTick)
	w.digestPlayers(h, &tmp)
	w.digestSessions(h, &tmp)
	w.digestDrops(h, &tmp)

	return hex.EncodeToString(h.Sum(nil))
}

func (w *World) digestPlayers(h hashWriter, tmp *[8]byte) {
	ids := make([]string, 0, len(w.players))
	for id := range w.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	digestWriteU64(h, tmp, uint64(len(ids)))
	for _, id := range ids {
		p := w.players[id]
		digestWriteString(h, tmp, p.ID)
		digestWriteString(h, tmp, p.Name)
		writeItemMap(h, tmp, p.Inventory)
		if br, ok := w.ledger.(balanceReader); ok && br != nil {
			digestWriteI64(h, tmp, br.Balance(p.ID))
		}
	}
}

func (w *World) digestSessions(h hashWriter, tmp *[8]byte) {
	snap := w.sessions.Snapshot()
	digestWriteU64(h, tmp, uint64(len(snap)))
	for _, s := range snap {
		digestWriteString(h, tmp, s.ID)
		digestWriteString(h, tmp, s.Initiator)
		digestWriteString(h, tmp, s.Counterparty)
		digestWriteString(h, tmp, string(s.Phase))
		digestWriteU64(h, tmp, uint64(s.CountdownRemaining))
		digestWriteU64(h, tmp, uint64(s.AgeSweeps))
		for _, party := range []string{s.Initiator, s.Counterparty} {
			if party == "" {
				continue
			}
			for _, st := range s.Offer(party) {
				digestWriteString(h, tmp, st.Item)
				digestWriteU64(h, tmp, uint64(st.Count))
			}
			digestWriteI64(h, tmp, s.Escrow(party))
			h.Write([]byte{boolByte(s.Ready(party))})
		}
	}
}

func (w *World) digestDrops(h hashWriter, tmp *[8]byte) {
	ids := make([]string, 0, len(w.drops))
	for id := range w.drops {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	digestWriteU64(h, tmp, uint64(len(ids)))
	for _, id := range ids {
		d := w.drops[id]
		digestWriteString(h, tmp, d.ID)
		digestWriteString(h, tmp, d.Owner)
		digestWriteString(h, tmp, d.Item)
		digestWriteU64(h, tmp, uint64(d.Count))
		digestWriteU64(h, tmp, d.ExpiresTick)
	}
}

type hashWriter interface {
	Write(p []byte) (n int, err error)
}

func digestWriteU64(h hashWriter, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}

func digestWriteI64(h hashWriter, tmp *[8]byte, v int64) {
	digestWriteU64(h, tmp, uint64(v))
}

func digestWriteString(h hashWriter, tmp *[8]byte, s string) {
	digestWriteU64(h, tmp, uint64(len(s)))
	h.Write([]byte(s))
}

func writeItemMap(h hashWriter, tmp *[8]byte, m map[string]int) {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if v == 0 {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	digestWriteU64(h, tmp, uint64(len(keys)))
	for _, k := range keys {
		digestWriteString(h, tmp, k)
		digestWriteI64(h, tmp, int64(m[k]))
	}
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
