// Command client feeds fight events to the server from stdin and prints the stats it gets back.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wfunc/duelstats/fight"
	"github.com/wfunc/duelstats/logger"
	"github.com/wfunc/duelstats/network"
)

type wsSender struct {
	conn *websocket.Conn
}

func (s wsSender) Send(msgID uint16, data []byte) error {
	packet, err := network.Encode(msgID, data)
	if err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.BinaryMessage, packet)
}

// parseCommand turns one input line into a message.
//
//	hit <name> | miss <name> | die <name> | bulk <success> <total> | end | watch <fight id>
func parseCommand(line string) (uint16, interface{}, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return 0, nil, fmt.Errorf("empty command")
	}

	switch fields[0] {
	case "hit", "miss":
		if len(fields) != 2 {
			return 0, nil, fmt.Errorf("usage: %s <name>", fields[0])
		}
		return network.MsgTypeAttack, network.AttackEvent{ActorName: fields[1], Success: fields[0] == "hit"}, nil
	case "die":
		if len(fields) != 2 {
			return 0, nil, fmt.Errorf("usage: die <name>")
		}
		return network.MsgTypeDeath, network.DeathEvent{ActorName: fields[1]}, nil
	case "bulk":
		if len(fields) != 3 {
			return 0, nil, fmt.Errorf("usage: bulk <success> <total>")
		}
		success, err := strconv.Atoi(fields[1])
		if err != nil {
			return 0, nil, fmt.Errorf("bad success count: %w", err)
		}
		total, err := strconv.Atoi(fields[2])
		if err != nil {
			return 0, nil, fmt.Errorf("bad total count: %w", err)
		}
		return network.MsgTypeBulkCorrection, network.BulkCorrection{SuccessCount: success, TotalCount: total}, nil
	case "end":
		return network.MsgTypeEndFight, struct{}{}, nil
	case "watch":
		if len(fields) != 2 {
			return 0, nil, fmt.Errorf("usage: watch <fight id>")
		}
		return network.MsgTypeWatchFight, network.WatchFightRequest{FightID: fields[1]}, nil
	default:
		return 0, nil, fmt.Errorf("unknown command %q", fields[0])
	}
}

func printPacket(packet *network.Packet) {
	switch packet.MsgID {
	case network.MsgTypeStatsUpdate, network.MsgTypeFightEnded:
		var stats fight.Stats
		if err := json.Unmarshal(packet.Data, &stats); err != nil {
			logger.Log.Warnf("Bad stats payload: %v", err)
			return
		}
		label := "stats"
		if packet.MsgID == network.MsgTypeFightEnded {
			label = "ended (" + stats.Outcome() + ")"
		}
		fmt.Printf("%s: %s %s | %s %s\n", label,
			stats.Player.Name, stats.Player.StatsText, stats.Opponent.Name, stats.Opponent.StatsText)
	default:
		fmt.Printf("<- %d: %s\n", packet.MsgID, packet.Data)
	}
}

func main() {
	addr := flag.String("addr", "localhost:8080", "server address")
	player := flag.String("player", "", "player name; creates a new fight when set with -opponent")
	opponent := flag.String("opponent", "", "opponent name")
	flag.Parse()

	logger.InitDevelopment()
	defer logger.Sync()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	logger.Log.Infof("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		logger.Log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()
	sender := wsSender{conn: c}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				logger.Log.Infof("Read error: %v", err)
				return
			}
			packet, err := network.Decode(message)
			if err != nil {
				logger.Log.Warnf("Received invalid packet of size %d", len(message))
				continue
			}
			printPacket(packet)
		}
	}()

	if *player != "" && *opponent != "" {
		req := network.CreateFightRequest{PlayerName: *player, OpponentName: *opponent}
		if err := network.SendJSON(sender, network.MsgTypeCreateFight, req); err != nil {
			logger.Log.Fatalf("Write error: %v", err)
		}
	}

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	for {
		select {
		case <-done:
			return
		case <-interrupt:
			logger.Log.Info("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				logger.Log.Warnf("Write close error: %v", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			msgID, msg, err := parseCommand(line)
			if err != nil {
				fmt.Println(err)
				continue
			}
			if err := network.SendJSON(sender, msgID, msg); err != nil {
				logger.Log.Errorf("Write error: %v", err)
				return
			}
		}
	}
}
