package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kingrea/todoboard/internal/agui"
	"github.com/kingrea/todoboard/internal/config"
	"github.com/kingrea/todoboard/internal/eventbridge"
	"github.com/kingrea/todoboard/internal/logbook"
	"github.com/kingrea/todoboard/internal/logging"
	"github.com/kingrea/todoboard/internal/statechan"
	"github.com/kingrea/todoboard/internal/store"
	"github.com/kingrea/todoboard/internal/todo"
)

const shutdownTimeout = 5 * time.Second

type runtimeOptions struct {
	dir           string
	connect       string
	startBridge   bool
	requireBridge bool
}

// runtime is everything a board process runs besides the TUI: the shared
// channel, the snapshot store and its persister, and the state bridge.
type runtime struct {
	cfg      *config.Config
	logger   *logging.Logger
	logbook  *logbook.Logbook
	channel  statechan.Watchable
	local    *statechan.Local
	remote   *statechan.Remote
	store    *store.Store
	settings eventbridge.Settings
	bridge   *eventbridge.Server
	router   *eventbridge.Router

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func startRuntime(parent context.Context, opts runtimeOptions) (*runtime, error) {
	if err := config.InitBoardDir(opts.dir); err != nil {
		return nil, fmt.Errorf("initializing %s: %w", config.BoardDir, err)
	}
	cfg, err := config.NewConfig(opts.dir)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(opts.dir)
	if err != nil {
		return nil, err
	}
	lb, err := logbook.New(cfg.ActivityLogPath())
	if err != nil {
		logger.Close()
		return nil, err
	}
	ctx, cancel := context.WithCancel(parent)
	rt := &runtime{
		cfg:      cfg,
		logger:   logger,
		logbook:  lb,
		settings: eventbridge.SettingsFromConfig(cfg),
		cancel:   cancel,
	}

	connect := strings.TrimSpace(opts.connect)
	if connect == "" {
		connect = cfg.Project.Bridge.Connect
	}
	if connect != "" {
		rt.startRemote(ctx, connect)
		return rt, nil
	}

	if err := rt.startLocal(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	if opts.startBridge && rt.settings.Enabled {
		if err := rt.startBridge(ctx); err != nil {
			if opts.requireBridge {
				rt.Close()
				return nil, err
			}
			logger.Printf("bridge disabled: %v", err)
			lb.Warn("State bridge not started: %v", err)
		}
	} else if opts.requireBridge {
		rt.Close()
		return nil, errors.New("the state bridge is disabled in config (bridge.enabled: false)")
	}
	return rt, nil
}

func (rt *runtime) startRemote(ctx context.Context, url string) {
	rt.remote = statechan.NewRemote(url, todo.State{Todos: []todo.Item{}}, statechan.WithRemoteLogger(rt.logger))
	rt.channel = rt.remote
	rt.logbook.Info("Connecting to board at %s", url)
	rt.wg.Add(1)
	go func() {
		defer rt.wg.Done()
		_ = rt.remote.Run(ctx)
	}()
}

// startLocal seeds the local channel from the latest stored snapshot, or
// the default board, and persists every later write.
func (rt *runtime) startLocal(ctx context.Context) error {
	seed := todo.DefaultState()
	if rt.cfg.StoreEnabled() {
		st, err := store.Open(ctx, rt.cfg.StorePath())
		if err != nil {
			return err
		}
		rt.store = st
		state, rev, found, err := st.Latest(ctx)
		switch {
		case err != nil:
			rt.logger.Printf("store: latest snapshot: %v", err)
		case found:
			seed = state
			rt.logger.Printf("store: restored revision %d (%d todos)", rev, state.Len())
		default:
			if _, err := st.Save(ctx, seed); err != nil {
				rt.logger.Printf("store: seed default board: %v", err)
			}
		}
	}
	rt.local = statechan.NewLocal(seed)
	rt.channel = rt.local
	if rt.store != nil {
		keep := rt.cfg.Project.Store.Keep
		rt.wg.Add(1)
		go func() {
			defer rt.wg.Done()
			_ = store.Persist(ctx, rt.local, rt.store, keep, rt.logger)
		}()
	}
	return nil
}

func (rt *runtime) startBridge(ctx context.Context) error {
	rt.router = eventbridge.NewRouter(eventbridge.RouterWithLogger(rt.logger))
	processor := eventbridge.NewStateProcessor(rt.local,
		eventbridge.ProcessorWithNext(rt.router),
		eventbridge.ProcessorWithLogger(rt.logger),
	)
	rt.bridge = eventbridge.NewServer(rt.settings,
		eventbridge.WithProcessor(processor),
		eventbridge.WithState(rt.local),
		eventbridge.WithLogger(rt.logger),
	)
	if err := rt.bridge.Start(ctx); err != nil {
		rt.bridge = nil
		return err
	}
	sub := rt.router.Subscribe()
	rt.wg.Add(1)
	go func() {
		defer rt.wg.Done()
		defer sub.Close()
		rt.recordAgentEvents(ctx, sub)
	}()
	return nil
}

// recordAgentEvents writes bridge traffic from any agent into the activity
// log the TUI renders.
func (rt *runtime) recordAgentEvents(ctx context.Context, sub eventbridge.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-sub.Events:
			if !ok {
				return
			}
			who := evt.Agent
			if who == "" {
				who = "thread " + evt.ThreadID
			}
			switch evt.Type {
			case string(agui.EventTextMessageContent), string(agui.EventToolCallArgs):
				continue
			case string(agui.EventRunError):
				rt.logbook.Error("Agent %s: run error", who)
			default:
				rt.logbook.Info("Agent %s: %s", who, strings.ToLower(evt.Type))
			}
		}
	}
}

func (rt *runtime) status() string {
	switch {
	case rt.remote != nil:
		return "Replicating a remote board"
	case rt.bridge != nil:
		return "Bridge on " + rt.bridge.BaseURL()
	}
	return ""
}

// Close stops background work, drains the bridge and closes the store.
func (rt *runtime) Close() {
	rt.once.Do(func() {
		if rt.bridge != nil {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			if err := rt.bridge.Shutdown(ctx); err != nil {
				rt.logger.Printf("bridge shutdown: %v", err)
			}
			cancel()
		}
		rt.cancel()
		rt.wg.Wait()
		if rt.store != nil {
			if err := rt.store.Close(); err != nil {
				rt.logger.Printf("store close: %v", err)
			}
		}
		rt.logger.Close()
	})
}
