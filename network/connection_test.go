package network

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

// echoServer reads one packet and sends it straight back.
func echoServer(t *testing.T) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		c := NewWSConnection(conn)
		defer c.Close()

		packet, err := c.ReadPacket()
		if err != nil {
			return
		}
		c.Send(packet.MsgID, packet.Data)
	}))
}

func TestWSConnection_RoundTrip(t *testing.T) {
	srv := echoServer(t)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	c := NewWSConnection(conn)
	defer c.Close()

	payload := []byte(`{"actor_name":"A","success":true}`)
	if err := c.Send(MsgTypeAttack, payload); err != nil {
		t.Fatalf("send: %v", err)
	}

	packet, err := c.ReadPacket()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if packet.MsgID != MsgTypeAttack {
		t.Errorf("Expected msg ID %d, got %d", MsgTypeAttack, packet.MsgID)
	}
	if int(packet.Length) != len(payload) || string(packet.Data) != string(payload) {
		t.Errorf("Expected payload %s, got %s", payload, packet.Data)
	}
}

func TestWSConnection_ShortPacket(t *testing.T) {
	upgrader := websocket.Upgrader{}
	result := make(chan error, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			result <- err
			return
		}
		c := NewWSConnection(conn)
		defer c.Close()
		_, err = c.ReadPacket()
		result <- err
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := conn.WriteMessage(websocket.BinaryMessage, []byte{0, 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := <-result; err == nil {
		t.Error("Expected an error for a packet shorter than the header")
	}
}

func TestEncodeDecode(t *testing.T) {
	frame, err := Encode(MsgTypeStatsUpdate, []byte("hello"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(frame) != 9 {
		t.Fatalf("Expected frame length 9, got %d", len(frame))
	}

	packet, err := Decode(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if packet.MsgID != MsgTypeStatsUpdate || string(packet.Data) != "hello" {
		t.Errorf("Unexpected packet: %+v", packet)
	}

	if _, err := Decode(frame[:6]); err == nil {
		t.Error("Expected an error for a truncated payload")
	}
}

func TestEncode_TooLarge(t *testing.T) {
	if _, err := Encode(MsgTypeStatsUpdate, make([]byte, 70000)); err != ErrPayloadTooLarge {
		t.Errorf("Expected ErrPayloadTooLarge, got %v", err)
	}
}
