package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"tradehall.gg/internal/persistence/ledgerdb"
	persistlog "tradehall.gg/internal/persistence/log"
	"tradehall.gg/internal/sim/tuning"
	"tradehall.gg/internal/sim/world"
	"tradehall.gg/internal/sim/world/feature/economy"
	"tradehall.gg/internal/sim/world/feature/trade"
	"tradehall.gg/internal/transport/ws"
)

func main() {
	var (
		addr       = flag.String("addr", ":8080", "http listen address")
		hallID     = flag.String("hall", "hall_1", "hall id")
		configDir  = flag.String("configs", "./configs", "config directory")
		dataDir    = flag.String("data", "./data", "runtime data directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		disableDB  = flag.Bool("disable_db", false, "keep balances in memory instead of sqlite")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	hallDir := filepath.Join(*dataDir, "halls", *hallID)
	_ = os.MkdirAll(hallDir, 0o755)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", tp)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	var ledger trade.Ledger
	if *disableDB {
		ledger = economy.NewMemoryLedger(tune.CurrencyName)
		logger.Printf("ledger: in-memory (disable_db)")
	} else {
		db, err := ledgerdb.Open(filepath.Join(hallDir, "ledger.db"), tune.CurrencyName, tune.StartingBalance)
		if err != nil {
			logger.Fatalf("open ledger db: %v", err)
		}
		defer db.Close()
		ledger = db
	}

	w := world.New(world.WorldConfig{
		ID:                    *hallID,
		TickRateHz:            tune.TickRateHz,
		ExpirySweepEveryTicks: tune.ExpirySweepEveryTicks,
		ExpiryCancelSweeps:    tune.ExpiryCancelSweeps,
		CountdownEveryTicks:   tune.CountdownEveryTicks,
		CommitCountdownSteps:  tune.CommitCountdownSteps,
		DropTTLTicks:          tune.DropTTLTicks,
		MaxInventoryStacks:    tune.MaxInventoryStacks,
		CurrencyName:          tune.CurrencyName,
		StartingBalance:       tune.StartingBalance,
		RateLimits: world.RateLimitConfig{
			TradeRequestWindowTicks: uint64(tune.RateLimits.TradeRequestWindowTicks),
			TradeRequestMax:         tune.RateLimits.TradeRequestMax,
			TradeRemindWindowTicks:  uint64(tune.RateLimits.TradeRemindWindowTicks),
			TradeRemindMax:          tune.RateLimits.TradeRemindMax,
		},
	}, ledger)

	ctx, cancel := signalContext()
	defer cancel()

	tickLog := persistlog.NewTickLogger(hallDir)
	auditLog := persistlog.NewAuditLogger(hallDir)
	defer tickLog.Close()
	defer auditLog.Close()
	w.SetTickLogger(tickLog)
	w.SetAuditLogger(auditLog)

	go func() {
		if err := w.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("world stopped: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		m := w.Metrics()
		tick := w.CurrentTick()
		if m.Tick != 0 {
			tick = m.Tick
		}

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP tradehall_tick Current hall tick.\n")
		fmt.Fprintf(rw, "# TYPE tradehall_tick gauge\n")
		fmt.Fprintf(rw, "tradehall_tick{hall=%q} %d\n", *hallID, tick)

		fmt.Fprintf(rw, "# HELP tradehall_players Current number of players in the hall.\n")
		fmt.Fprintf(rw, "# TYPE tradehall_players gauge\n")
		fmt.Fprintf(rw, "tradehall_players{hall=%q} %d\n", *hallID, m.Players)

		fmt.Fprintf(rw, "# HELP tradehall_clients Current number of connected clients.\n")
		fmt.Fprintf(rw, "# TYPE tradehall_clients gauge\n")
		fmt.Fprintf(rw, "tradehall_clients{hall=%q} %d\n", *hallID, m.Clients)

		fmt.Fprintf(rw, "# HELP tradehall_active_sessions Current number of live trade sessions.\n")
		fmt.Fprintf(rw, "# TYPE tradehall_active_sessions gauge\n")
		fmt.Fprintf(rw, "tradehall_active_sessions{hall=%q} %d\n", *hallID, m.ActiveSessions)

		fmt.Fprintf(rw, "# HELP tradehall_drops Current number of floor drops.\n")
		fmt.Fprintf(rw, "# TYPE tradehall_drops gauge\n")
		fmt.Fprintf(rw, "tradehall_drops{hall=%q} %d\n", *hallID, m.Drops)

		fmt.Fprintf(rw, "# HELP tradehall_queue_depth Channel backlog depth.\n")
		fmt.Fprintf(rw, "# TYPE tradehall_queue_depth gauge\n")
		fmt.Fprintf(rw, "tradehall_queue_depth{hall=%q,queue=%q} %d\n", *hallID, "inbox", m.QueueDepths.Inbox)
		fmt.Fprintf(rw, "tradehall_queue_depth{hall=%q,queue=%q} %d\n", *hallID, "join", m.QueueDepths.Join)
		fmt.Fprintf(rw, "tradehall_queue_depth{hall=%q,queue=%q} %d\n", *hallID, "leave", m.QueueDepths.Leave)
		fmt.Fprintf(rw, "tradehall_queue_depth{hall=%q,queue=%q} %d\n", *hallID, "attach", m.QueueDepths.Attach)

		fmt.Fprintf(rw, "# HELP tradehall_step_ms Last tick step duration in milliseconds.\n")
		fmt.Fprintf(rw, "# TYPE tradehall_step_ms gauge\n")
		fmt.Fprintf(rw, "tradehall_step_ms{hall=%q} %.3f\n", *hallID, m.StepMS)

		fmt.Fprintf(rw, "# HELP tradehall_stats_window Rolling window trade stats.\n")
		fmt.Fprintf(rw, "# TYPE tradehall_stats_window gauge\n")
		fmt.Fprintf(rw, "tradehall_stats_window{hall=%q,metric=%q} %d\n", *hallID, "requested", m.StatsWindow.Requested)
		fmt.Fprintf(rw, "tradehall_stats_window{hall=%q,metric=%q} %d\n", *hallID, "completed", m.StatsWindow.Completed)
		fmt.Fprintf(rw, "tradehall_stats_window{hall=%q,metric=%q} %d\n", *hallID, "cancelled", m.StatsWindow.Cancelled)
		fmt.Fprintf(rw, "tradehall_stats_window{hall=%q,metric=%q} %d\n", *hallID, "denied", m.StatsWindow.Denied)
		fmt.Fprintf(rw, "tradehall_stats_window{hall=%q,metric=%q} %d\n", *hallID, "expired", m.StatsWindow.Expired)

		fmt.Fprintf(rw, "# HELP tradehall_stats_window_ticks Rolling window size in ticks.\n")
		fmt.Fprintf(rw, "# TYPE tradehall_stats_window_ticks gauge\n")
		fmt.Fprintf(rw, "tradehall_stats_window_ticks{hall=%q} %d\n", *hallID, m.StatsWindowTicks)
	})
	mux.HandleFunc("/v1/ws", ws.NewServer(w, logger).Handler())

	srv := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", *addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
