// Command client is a terminal client for the relay, handy to try two users against a local server.
package main

import (
	"bufio"
	"dm-relay/domain"
	"dm-relay/domain/event"
	relay "dm-relay/websocket"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/kelseyhightower/envconfig"
	"github.com/olekukonko/tablewriter"
)

type Config struct {
	ServerURL string `envconfig:"DM_SERVER_URL" default:"ws://localhost:4000/socket"`
	Username  string `envconfig:"DM_USERNAME" required:"true"`
	// DM_COLOURS enables colorized output
	Colours bool `envconfig:"DM_COLOURS" default:"true"`
}

type session struct {
	config  Config
	conn    *websocket.Conn
	nextAck atomic.Int64

	mu      sync.Mutex
	online  map[string]domain.User
	pending map[int64]string
}

func main() {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	conn, _, err := websocket.DefaultDialer.Dial(config.ServerURL, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to %s: %v\n", config.ServerURL, err)
		os.Exit(1)
	}
	defer conn.Close()

	s := &session{
		config:  config,
		conn:    conn,
		online:  make(map[string]domain.User),
		pending: make(map[int64]string),
	}
	if err = s.send(event.Register, config.Username, nil); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to register: %v\n", err)
		os.Exit(1)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.readLoop()
	}()

	s.printHelp()
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if quit := s.handleInput(strings.TrimSpace(scanner.Text())); quit {
			break
		}
	}
	_ = s.send(event.Disconnect, nil, nil)
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	<-done
}

// handleInput returns true when the user asked to quit.
func (s *session) handleInput(line string) bool {
	if line == "" {
		return false
	}
	fields := strings.Fields(line)
	me := s.config.Username
	var err error

	switch fields[0] {
	case "/msg":
		to, text, ok := parseMessage(fields)
		if !ok {
			s.warn("usage: /msg <user> <text>")
			return false
		}
		err = s.send(event.PrivateMessage, event.PrivateMessagePayload{To: to, From: me, Message: text}, nil)
	case "/history":
		if len(fields) != 2 {
			s.warn("usage: /history <user>")
			return false
		}
		ack := s.nextAck.Add(1)
		s.mu.Lock()
		s.pending[ack] = fields[1]
		s.mu.Unlock()
		err = s.send(event.GetChatHistory, event.ChatHistoryPayload{WithUser: fields[1], CurrentUser: me}, &ack)
	case "/read":
		if len(fields) != 2 {
			s.warn("usage: /read <user>")
			return false
		}
		err = s.send(event.MarkAsRead, event.MarkAsReadPayload{Sender: fields[1], Receiver: me}, nil)
	case "/typing":
		if len(fields) < 2 {
			s.warn("usage: /typing <user> [off]")
			return false
		}
		name := event.Typing
		if len(fields) == 3 && fields[2] == "off" {
			name = event.StopTyping
		}
		err = s.send(name, event.TypingPayload{To: fields[1], From: me}, nil)
	case "/users":
		s.printUsers()
	case "/quit":
		return true
	default:
		s.printHelp()
	}

	if err != nil {
		s.warn(fmt.Sprintf("send failed: %v", err))
	}
	return false
}

// parseMessage splits the fields of a /msg line into the recipient and the text.
// Runs of blanks inside the text collapse to one space.
func parseMessage(fields []string) (to, text string, ok bool) {
	if len(fields) < 3 {
		return "", "", false
	}
	return fields[1], strings.Join(fields[2:], " "), true
}

func (s *session) send(name event.Name, payload any, ack *int64) error {
	frame, err := relay.Encode(name, payload, ack)
	if err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, frame)
}

func (s *session) readLoop() {
	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.warn(fmt.Sprintf("connection lost: %v", err))
			}
			return
		}
		var frame relay.Frame
		if err = json.Unmarshal(message, &frame); err != nil {
			continue
		}
		s.handleFrame(frame)
	}
}

func (s *session) handleFrame(frame relay.Frame) {
	switch frame.Event {
	case event.RegistrationError:
		var reason string
		_ = json.Unmarshal(frame.Data, &reason)
		s.warn("registration failed: " + reason)

	case event.RegistrationSuccess:
		var payload event.RegistrationSucceeded
		if err := json.Unmarshal(frame.Data, &payload); err != nil {
			return
		}
		s.mu.Lock()
		for _, user := range payload.OtherUsers {
			s.online[user.Username] = user
		}
		s.mu.Unlock()
		s.info(fmt.Sprintf("registered as %s, %d user(s) online", payload.CurrentUser, len(payload.OtherUsers)))
		for partner, count := range payload.UnreadCounts {
			if count > 0 {
				s.info(fmt.Sprintf("%d unread message(s) from %s", count, partner))
			}
		}

	case event.UserConnected:
		var user domain.User
		if err := json.Unmarshal(frame.Data, &user); err != nil {
			return
		}
		s.mu.Lock()
		s.online[user.Username] = user
		s.mu.Unlock()
		s.info(user.Username + " joined")

	case event.UserDisconnected:
		var username string
		_ = json.Unmarshal(frame.Data, &username)
		s.mu.Lock()
		delete(s.online, username)
		s.mu.Unlock()
		s.info(username + " left")

	case event.NewMessage:
		var incoming event.IncomingMessage
		if err := json.Unmarshal(frame.Data, &incoming); err != nil {
			return
		}
		s.message(fmt.Sprintf("[%s] %s (%d unread)", incoming.From, incoming.Content, incoming.UnreadCount))

	case event.MessageSent:
		var message domain.Message
		if err := json.Unmarshal(frame.Data, &message); err != nil {
			return
		}
		s.info(fmt.Sprintf("sent to %s", message.To))

	case event.MessagesRead:
		var payload event.MessagesReadBy
		_ = json.Unmarshal(frame.Data, &payload)
		s.info(payload.By + " read your messages")

	case event.UserTyping, event.UserStoppedTyping:
		var username string
		_ = json.Unmarshal(frame.Data, &username)
		if frame.Event == event.UserTyping {
			s.info(username + " is typing...")
		} else {
			s.info(username + " stopped typing")
		}

	case event.Ack:
		if frame.Ack == nil {
			return
		}
		s.mu.Lock()
		partner := s.pending[*frame.Ack]
		delete(s.pending, *frame.Ack)
		s.mu.Unlock()
		var history []domain.Message
		if err := json.Unmarshal(frame.Data, &history); err != nil {
			return
		}
		s.printHistory(partner, history)
	}
}

func (s *session) printHistory(partner string, history []domain.Message) {
	s.info(fmt.Sprintf("history with %s", partner))
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Time", "From", "Message", "Read"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, m := range history {
		table.Append([]string{m.Timestamp.Local().Format("15:04:05"), m.From, m.Content, fmt.Sprint(m.Read)})
	}
	table.Render()
}

func (s *session) printUsers() {
	s.mu.Lock()
	users := make([]domain.User, 0, len(s.online))
	for _, user := range s.online {
		users = append(users, user)
	}
	s.mu.Unlock()
	sort.Slice(users, func(i, j int) bool { return users[i].ConnectedAt.Before(users[j].ConnectedAt) })

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Username", "Connected at"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	for _, user := range users {
		table.Append([]string{user.Username, user.ConnectedAt.Local().Format("15:04:05")})
	}
	table.Render()
}

func (s *session) printHelp() {
	s.info("commands: /msg <user> <text>, /history <user>, /read <user>, /typing <user> [off], /users, /quit")
}

func (s *session) info(text string) {
	s.print(color.FgCyan, text)
}

func (s *session) message(text string) {
	s.print(color.FgGreen, text)
}

func (s *session) warn(text string) {
	s.print(color.FgYellow, text)
}

func (s *session) print(colour color.Color, text string) {
	if s.config.Colours {
		text = colour.Render(text)
	}
	fmt.Println(text)
}
