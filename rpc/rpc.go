package rpc

import (
	"context"
	"errors"
	"net"
	"net/rpc"
	"time"

	"github.com/wfunc/duelstats/logger"
	"github.com/wfunc/duelstats/models"
	"github.com/wfunc/duelstats/services"
)

const callTimeout = 5 * time.Second

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
	rpc      *rpc.Server
}

// NewServer listens on addr and serves the given receivers.
func NewServer(addr string, receivers ...interface{}) (*Server, error) {
	srv := rpc.NewServer()
	for _, r := range receivers {
		if err := srv.Register(r); err != nil {
			return nil, err
		}
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
		rpc:      srv,
	}, nil
}

// Addr is the bound listener address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Start accepts connections until Stop is called.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go s.rpc.ServeConn(conn)
	}
}

func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// FightService exposes fight history over net/rpc.
type FightService struct {
	fights *services.FightService
}

func NewFightService(fs *services.FightService) *FightService {
	return &FightService{fights: fs}
}

type ListFightsArgs struct {
	PlayerName string
	Limit      int
}

type ListFightsReply struct {
	Fights []models.FightResult
}

func (fs *FightService) ListFights(args *ListFightsArgs, reply *ListFightsReply) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	fights, err := fs.fights.ListFights(ctx, args.PlayerName, args.Limit)
	if err != nil {
		return err
	}
	reply.Fights = fights
	return nil
}

type GetPlayerSummaryArgs struct {
	PlayerName string
}

type GetPlayerSummaryReply struct {
	Summary models.PlayerSummary
}

func (fs *FightService) GetPlayerSummary(args *GetPlayerSummaryArgs, reply *GetPlayerSummaryReply) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	summary, err := fs.fights.GetPlayerSummary(ctx, args.PlayerName)
	if err != nil {
		return err
	}
	reply.Summary = summary
	return nil
}
