package e2e

import (
	"dm-relay/domain/event"
	relay "dm-relay/websocket"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"
)

type BaseSocketSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseSocketSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.RelayURL == "" {
		s.T().Skip("E2E_RELAY_URL not set")
	}
}

// Peer is one websocket connection to the relay under test.
type Peer struct {
	suite *BaseSocketSuite
	name  string
	conn  *websocket.Conn
}

// Connect dials the relay and prints a colorized header for the connection step in logs.
func (s *BaseSocketSuite) Connect(name string) *Peer {
	header := fmt.Sprintf("  ====== %s connects ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)

	conn, _, err := websocket.DefaultDialer.Dial(s.Config.RelayURL, nil)
	s.Require().NoError(err, "Failed to connect to relay at "+s.Config.RelayURL)
	s.T().Cleanup(func() { _ = conn.Close() })
	return &Peer{suite: s, name: name, conn: conn}
}

func (p *Peer) Send(name event.Name, payload any, ack *int64) {
	frame, err := relay.Encode(name, payload, ack)
	p.suite.Require().NoError(err)
	p.log("->", frame)
	p.suite.Require().NoError(p.conn.WriteMessage(websocket.TextMessage, frame))
}

// Expect skips unrelated frames until name arrives, then decodes its data into out.
func (p *Peer) Expect(name event.Name, out any) relay.Frame {
	deadline := time.Now().Add(5 * time.Second)
	for {
		p.suite.Require().NoError(p.conn.SetReadDeadline(deadline))
		_, raw, err := p.conn.ReadMessage()
		p.suite.Require().NoError(err, "%s never received %s", p.name, name)
		p.log("<-", raw)

		var frame relay.Frame
		p.suite.Require().NoError(json.Unmarshal(raw, &frame))
		if frame.Event != name {
			continue
		}
		if out != nil {
			p.suite.Require().NoError(json.Unmarshal(frame.Data, out))
		}
		return frame
	}
}

func (p *Peer) Close() {
	_ = p.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = p.conn.Close()
}

func (p *Peer) log(direction string, frame []byte) {
	if !p.suite.Config.DebugJSON {
		return
	}
	line := fmt.Sprintf("%s %s %s", p.name, direction, string(frame))
	if p.suite.Config.Colours {
		line = color.FgCyan.Render(line)
	}
	p.suite.T().Log(line)
}
