package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/wfunc/duelstats/arena"
	"github.com/wfunc/duelstats/broadcast"
	"github.com/wfunc/duelstats/config"
	"github.com/wfunc/duelstats/fight"
	"github.com/wfunc/duelstats/logger"
	"github.com/wfunc/duelstats/monitor"
	"github.com/wfunc/duelstats/network"
	"github.com/wfunc/duelstats/persistence"
	"github.com/wfunc/duelstats/rpc"
	"github.com/wfunc/duelstats/services"
	"github.com/wfunc/duelstats/session"
	"github.com/wfunc/duelstats/timer"
)

const (
	heartbeatInterval = 30 * time.Second
	// endedRetention keeps a finished fight watchable for a while before it is dropped.
	endedRetention = time.Minute
)

var (
	ErrNotFeeding      = errors.New("session has not created a fight")
	ErrReadOnlySession = errors.New("watching sessions cannot send fight events")
	ErrMissingNames    = errors.New("player_name and opponent_name are required")
	ErrUnknownFight    = errors.New("unknown fight")
)

type FightServer struct {
	cfg            *config.Config
	httpServer     *http.Server
	upgrader       websocket.Upgrader
	arenaManager   *arena.Manager
	sessionManager *session.Manager
	fightService   *services.FightService
	broadcaster    broadcast.Broadcaster
	monitor        *monitor.Monitor
	timers         *timer.Manager
	rpcServer      *rpc.Server
	healthServer   *rpc.HealthServer
	metricsServer  *http.Server
	shutdownOnce   sync.Once
	shutdownChan   chan struct{}
}

func NewFightServer(cfg *config.Config, db persistence.Database) (*FightServer, error) {
	s := &FightServer{
		cfg:            cfg,
		arenaManager:   arena.NewManager(),
		sessionManager: session.NewManager(),
		fightService:   services.NewFightService(db, cfg.Fight.HistoryLimit),
		monitor:        monitor.NewMonitor("duelstats"),
		timers:         timer.NewManager(100 * time.Millisecond),
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // overlays connect from any origin
			},
		},
	}
	s.broadcaster = broadcast.NewFightBroadcaster(s.sessionManager)

	rpcServer, err := rpc.NewServer(cfg.Server.RPCAddress, rpc.NewFightService(s.fightService))
	if err != nil {
		return nil, err
	}
	s.rpcServer = rpcServer

	healthServer, err := rpc.NewHealthServer(cfg.Server.GRPCAddress)
	if err != nil {
		rpcServer.Stop()
		return nil, err
	}
	s.healthServer = healthServer

	s.httpServer = &http.Server{Addr: cfg.Server.HTTPAddress, Handler: s.Handler()}
	return s, nil
}

// Handler serves the websocket endpoint and a JSON view of active fights.
func (s *FightServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/fights", s.handleListFights)
	return mux
}

func (s *FightServer) Start() error {
	go s.rpcServer.Start()
	go s.healthServer.Start()
	s.metricsServer = s.monitor.StartServer(s.cfg.Server.MetricsAddress)
	s.healthServer.SetServing(true)

	logger.Log.Infof("Fight server listening on %s", s.cfg.Server.HTTPAddress)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting work, applies queued events and closes every listener.
func (s *FightServer) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)
		s.healthServer.SetServing(false)
		err = s.httpServer.Shutdown(ctx)
		if s.metricsServer != nil {
			s.metricsServer.Shutdown(ctx)
		}
		s.rpcServer.Stop()
		s.healthServer.Stop()
		s.arenaManager.CloseAll()
		s.timers.Stop()
	})
	return err
}

func (s *FightServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

type activeFight struct {
	FightID string      `json:"fight_id"`
	State   string      `json:"state"`
	Stats   fight.Stats `json:"stats"`
}

func (s *FightServer) handleListFights(w http.ResponseWriter, r *http.Request) {
	arenas := s.arenaManager.List()
	list := make([]activeFight, 0, len(arenas))
	for _, a := range arenas {
		list = append(list, activeFight{FightID: a.ID, State: a.StateID(), Stats: a.Stats()})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(list); err != nil {
		logger.Log.Warnf("Failed to write fight list: %v", err)
	}
}

func (s *FightServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	wsConn.SetHeartbeat(heartbeatInterval)
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	s.monitor.IncOnlineSessions()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.sessionManager.Remove(sess.GetID())
		s.monitor.DecOnlineSessions()
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			if err := s.handlePacket(sess, packet); err != nil {
				logger.Log.Debugf("Session %s message %d: %v", sess.GetID(), packet.MsgID, err)
				network.SendJSON(sess, network.MsgTypeError, network.ErrorMessage{Error: err.Error()})
			}
		}
	}
}

func (s *FightServer) handlePacket(sess *session.Session, packet *network.Packet) error {
	sess.Touch()

	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		return nil
	case network.MsgTypeCreateFight:
		return s.handleCreateFight(sess, packet)
	case network.MsgTypeWatchFight:
		return s.handleWatchFight(sess, packet)
	case network.MsgTypeLeaveFight:
		sess.SetFightID("")
		return nil
	case network.MsgTypeAttack, network.MsgTypeDeath, network.MsgTypeEndFight, network.MsgTypeBulkCorrection:
		return s.handleFightEvent(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
		return nil
	}
}

func (s *FightServer) handleCreateFight(sess *session.Session, packet *network.Packet) error {
	var req network.CreateFightRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return err
	}
	if req.PlayerName == "" || req.OpponentName == "" {
		return ErrMissingNames
	}

	fightID := uuid.New().String()
	s.arenaManager.CreateArena(fightID, req.PlayerName, req.OpponentName, arena.Options{
		Broadcaster: s.broadcaster,
		Recorder:    s.monitor,
		OnEnded:     s.onFightEnded,
		Timers:      s.timers,
		IdleTimeout: s.cfg.Fight.IdleTimeout,
	})
	s.monitor.SetActiveFights(s.arenaManager.Count())

	sess.Feed(fightID, req.PlayerName)
	logger.Log.Infof("Session %s created fight %s: %s vs %s", sess.GetID(), fightID, req.PlayerName, req.OpponentName)

	return network.SendJSON(sess, network.MsgTypeFightCreated, network.CreateFightResponse{FightID: fightID})
}

func (s *FightServer) handleWatchFight(sess *session.Session, packet *network.Packet) error {
	var req network.WatchFightRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		return err
	}
	a, exists := s.arenaManager.GetArena(req.FightID)
	if !exists {
		return ErrUnknownFight
	}

	sess.SetFightID(a.ID)
	return network.SendJSON(sess, network.MsgTypeStatsUpdate, a.Stats())
}

// handleFightEvent accepts events only from the session that created the fight.
func (s *FightServer) handleFightEvent(sess *session.Session, packet *network.Packet) error {
	fightID := sess.FeedingFightID()
	if fightID == "" {
		if sess.FightID() != "" {
			return ErrReadOnlySession
		}
		return ErrNotFeeding
	}
	a, exists := s.arenaManager.GetArena(fightID)
	if !exists {
		return ErrUnknownFight
	}

	switch packet.MsgID {
	case network.MsgTypeAttack:
		var ev network.AttackEvent
		if err := json.Unmarshal(packet.Data, &ev); err != nil {
			return err
		}
		return a.Attack(ev.ActorName, ev.Success)
	case network.MsgTypeDeath:
		var ev network.DeathEvent
		if err := json.Unmarshal(packet.Data, &ev); err != nil {
			return err
		}
		return a.Death(ev.ActorName)
	case network.MsgTypeBulkCorrection:
		var ev network.BulkCorrection
		if err := json.Unmarshal(packet.Data, &ev); err != nil {
			return err
		}
		return a.BulkCorrection(ev.SuccessCount, ev.TotalCount)
	default:
		return a.EndFight()
	}
}

// onFightEnded runs on the arena goroutine. Combatant sessions that stopped
// watching still hear how their fight ended.
func (s *FightServer) onFightEnded(fightID string, stats fight.Stats) {
	s.fightService.OnFightEnded(fightID, stats)

	if data, err := json.Marshal(stats); err != nil {
		logger.Log.Errorf("Error marshalling stats for fight %s: %v", fightID, err)
	} else {
		names := []string{stats.Player.Name, stats.Opponent.Name}
		s.broadcaster.BroadcastToPlayers(fightID, names, network.MsgTypeFightEnded, data)
	}

	s.timers.AddTimer(endedRetention, 0, func() {
		s.arenaManager.RemoveArena(fightID)
		s.monitor.SetActiveFights(s.arenaManager.Count())
	})
}
