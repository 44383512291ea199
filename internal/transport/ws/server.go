package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"planetz.game/internal/protocol"
	"planetz.game/internal/sim/ship"
)

// Server bridges websocket clients to the ship loop. One connection is one
// session: frames flow out on the ship-owned channel, inputs flow in through
// the inbox.
type Server struct {
	ship *ship.Ship
	log  *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(s *ship.Ship, logger *log.Logger) *Server {
	return &Server{
		ship: s,
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, out := s.handshake(conn)
		if sessionID == "" {
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// direct carries per-session replies (errors, event batches) so the
		// writer goroutine stays the only conn writer.
		direct := make(chan []byte, 16)

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				case b := <-direct:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				sendDirect(direct, errorMsg(protocol.ErrProtoBadRequest, "malformed JSON"))
				continue
			}
			switch base.Type {
			case protocol.TypeInput:
				var in protocol.InputMsg
				if err := json.Unmarshal(msg, &in); err != nil {
					sendDirect(direct, errorMsg(protocol.ErrProtoBadRequest, "malformed INPUT"))
					continue
				}
				if in.ProtocolVersion != protocol.Version {
					sendDirect(direct, errorMsg(protocol.ErrProtoBadRequest, "bad protocol_version"))
					continue
				}
				s.ship.Inbox() <- ship.InputEnvelope{SessionID: sessionID, Input: in}

			case protocol.TypeEventBatchReq:
				var req protocol.EventBatchReqMsg
				if err := json.Unmarshal(msg, &req); err != nil {
					sendDirect(direct, errorMsg(protocol.ErrProtoBadRequest, "malformed EVENT_BATCH_REQ"))
					continue
				}
				go s.serveEventBatch(ctx, direct, req)

			default:
				sendDirect(direct, errorMsg(protocol.ErrProtoBadRequest, "unexpected message type"))
			}
		}

		// Cleanup.
		s.ship.Leave() <- sessionID
	}
}

// serveEventBatch runs off the reader goroutine so a slow loop round-trip
// never stalls input delivery.
func (s *Server) serveEventBatch(ctx context.Context, direct chan []byte, req protocol.EventBatchReqMsg) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	res, err := s.ship.RequestEventsAfter(ctx, req.SinceCursor, req.Limit)
	if err != nil {
		sendDirect(direct, errorMsg(protocol.ErrInternal, "event journal unavailable"))
		return
	}
	batch := protocol.EventBatchMsg{
		Type:            protocol.TypeEventBatch,
		ProtocolVersion: protocol.Version,
		ReqID:           req.ReqID,
		Events:          make([]protocol.EventBatchItem, 0, len(res.Items)),
		NextCursor:      res.NextCursor,
		SectorID:        res.Sector,
	}
	for _, it := range res.Items {
		batch.Events = append(batch.Events, protocol.EventBatchItem{Cursor: it.Cursor, Event: it.Event})
	}
	b, err := json.Marshal(batch)
	if err != nil {
		return
	}
	sendDirect(direct, b)
}

func (s *Server) handshake(conn *websocket.Conn) (sessionID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", nil
	}

	sessionID = uuid.NewString()
	out = make(chan []byte, 16)

	respCh := make(chan ship.JoinResponse, 1)
	s.ship.Join() <- ship.JoinRequest{
		SessionID: sessionID,
		Out:       out,
		Resp:      respCh,
	}
	resp := <-respCh

	if err := writeJSON(conn, resp.Welcome); err != nil {
		return "", nil
	}
	return sessionID, out
}

func sendDirect(direct chan []byte, b []byte) {
	select {
	case direct <- b:
	default:
		// Session is backlogged; the reply is droppable.
	}
}

func errorMsg(code, detail string) []byte {
	b, _ := json.Marshal(protocol.ErrorMsg{
		Type:            protocol.TypeError,
		ProtocolVersion: protocol.Version,
		Code:            code,
		Message:         detail,
	})
	return b
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
