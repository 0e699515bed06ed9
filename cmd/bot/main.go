// Command bot is a scripted trading client. Run two of them against one
// server: the first posts an open trade request, the second answers it,
// and the pair walks the session through stage, escrow, ready and the
// commit countdown.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"

	"tradehall.gg/internal/protocol"
)

func main() {
	var (
		url    = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name   = flag.String("name", "bot", "player name")
		target = flag.String("target", "", "player id to trade with (empty: post an open request)")
		item   = flag.String("item", "EMERALD", "item to stage once negotiating")
		count  = flag.Int("count", 1, "count of item to stage")
		escrow = flag.Int64("escrow", 0, "currency to escrow once negotiating")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		PlayerName:      *name,
		Capabilities: protocol.HelloCapabilities{
			MaxQueue: 8,
		},
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	b := &bot{
		conn:   conn,
		log:    logger,
		target: *target,
		item:   *item,
		count:  *count,
		escrow: *escrow,
	}

	for {
		select {
		case <-stop:
			return
		default:
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME player_id=%s hall=%s tick_rate=%d", w.PlayerID, w.HallParams.HallID, w.HallParams.TickRateHz)

		case protocol.TypeObs:
			var obs protocol.ObsMsg
			if err := json.Unmarshal(msg, &obs); err != nil {
				continue
			}
			b.handleObs(&obs)
		}
	}
}

type bot struct {
	conn   *websocket.Conn
	log    *log.Logger
	target string
	item   string
	count  int
	escrow int64

	requested bool
	accepted  bool
	staged    bool
	escrowed  bool
	ready     bool
}

func (b *bot) handleObs(obs *protocol.ObsMsg) {
	for _, e := range obs.Events {
		if e["type"] == "TRADE_MSG" {
			b.log.Printf("trade msg: key=%v %v", e["key"], e)
		}
	}

	if obs.Trade == nil {
		if b.requested {
			return
		}
		b.requested = true
		b.send(obs, protocol.InstantReq{
			ID:   fmt.Sprintf("I_req_%d", obs.Tick),
			Type: "TRADE_REQUEST",
			To:   b.target,
		})
		return
	}

	switch obs.Trade.Phase {
	case "AWAITING_ACCEPTANCE":
		// Only the counterparty may accept; the initiator just waits for
		// the resulting phase change.
		if b.requested || b.accepted {
			return
		}
		b.accepted = true
		b.send(obs, protocol.InstantReq{
			ID:   fmt.Sprintf("I_acc_%d", obs.Tick),
			Type: "TRADE_ACCEPT",
		})

	case "NEGOTIATING":
		if !b.staged && b.count > 0 && b.item != "" {
			b.staged = true
			b.send(obs, protocol.InstantReq{
				ID:    fmt.Sprintf("I_stage_%d", obs.Tick),
				Type:  "TRADE_STAGE",
				Item:  b.item,
				Count: b.count,
			})
			return
		}
		if !b.escrowed && b.escrow > 0 {
			b.escrowed = true
			b.send(obs, protocol.InstantReq{
				ID:     fmt.Sprintf("I_esc_%d", obs.Tick),
				Type:   "TRADE_ESCROW",
				Amount: b.escrow,
			})
			return
		}
		if !obs.Trade.YouReady {
			b.ready = true
			b.send(obs, protocol.InstantReq{
				ID:    fmt.Sprintf("I_rdy_%d", obs.Tick),
				Type:  "TRADE_READY",
				Ready: true,
			})
		}

	case "COMMITTING":
		// Nothing to do: the countdown settles the trade.
	}
}

func (b *bot) send(obs *protocol.ObsMsg, instants ...protocol.InstantReq) {
	act := protocol.ActMsg{
		Type:            protocol.TypeAct,
		ProtocolVersion: protocol.Version,
		Tick:            obs.Tick,
		PlayerID:        obs.PlayerID,
		Instants:        instants,
	}
	_ = b.conn.WriteJSON(act)
}
