package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/satriahrh/mentalhs/server/domain"
	"github.com/satriahrh/mentalhs/server/internal/api"
	wsproto "github.com/satriahrh/mentalhs/server/internal/websocket"
)

var (
	serverURL   string
	personality string
	offline     bool
	verbose     bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "chatclient",
	Short: "Terminal chat client for the mentalhs server",
	Long: `Starts a session, connects to the WebSocket endpoint and sends every
line typed on stdin as a chat message. Replies, detected emotions and
notices are printed as they arrive.

Example:
  chatclient --server http://localhost:8080 --personality coach`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewDevelopmentConfig()
		if !verbose {
			config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runChat,
}

func init() {
	rootCmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "server base URL")
	rootCmd.Flags().StringVar(&personality, "personality", "supportive", "supportive, therapist or coach")
	rootCmd.Flags().BoolVar(&offline, "offline", false, "force offline mode for the session")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runChat(cmd *cobra.Command, args []string) error {
	base, err := url.Parse(serverURL)
	if err != nil {
		return fmt.Errorf("invalid server URL: %w", err)
	}

	session, err := createSession(base)
	if err != nil {
		return err
	}
	id := session.Session.ID.Hex()
	printNotices(session.Notices)

	if offline {
		if err := setOffline(base, id, session.Token); err != nil {
			return err
		}
	}

	conn, err := dial(base, session.Token)
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Session %s (%s)\n", id, session.Session.Personality)
	for _, m := range session.Session.Messages {
		fmt.Printf("assistant> %s\n", m.Content)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		readLoop(conn)
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		msg := wsproto.SendMessageMessage{
			BaseMessage: wsproto.BaseMessage{
				Type:      wsproto.MessageTypeSendMessage,
				Timestamp: time.Now().Format(time.RFC3339),
			},
			Content: line,
		}
		if err := conn.WriteJSON(msg); err != nil {
			return fmt.Errorf("failed to send message: %w", err)
		}
	}

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	select {
	case <-done:
	case <-time.After(time.Second):
	}
	return scanner.Err()
}

func createSession(base *url.URL) (*api.CreateSessionResponse, error) {
	body, _ := json.Marshal(api.CreateSessionRequest{Personality: personality})
	resp, err := http.Post(base.JoinPath("/api/v1/sessions").String(), "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("create session failed with status %d", resp.StatusCode)
	}

	var session api.CreateSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	logger.Debug("Session created", zap.String("session_id", session.Session.ID.Hex()))
	return &session, nil
}

func setOffline(base *url.URL, id, token string) error {
	body, _ := json.Marshal(api.OfflineModeRequest{OfflineMode: true})
	req, err := http.NewRequest(http.MethodPut, base.JoinPath("/api/v1/sessions", id, "offline").String(), bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to set offline mode: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("set offline mode failed with status %d", resp.StatusCode)
	}
	return nil
}

func dial(base *url.URL, token string) (*websocket.Conn, error) {
	wsURL := *base
	wsURL.Scheme = "ws"
	if base.Scheme == "https" {
		wsURL.Scheme = "wss"
	}
	wsURL.Path = "/ws"
	q := wsURL.Query()
	q.Set("token", token)
	wsURL.RawQuery = q.Encode()

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket connection failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket connection failed: %w", err)
	}
	return conn, nil
}

func readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				logger.Debug("Read loop ended", zap.Error(err))
			}
			return
		}

		msgType, err := jsonparser.GetString(data, "type")
		if err != nil {
			logger.Warn("Message without type", zap.ByteString("data", data))
			continue
		}

		switch wsproto.MessageType(msgType) {
		case wsproto.MessageTypeTurnResult:
			var msg wsproto.TurnResultMessage
			if err := json.Unmarshal(data, &msg); err != nil || msg.Turn == nil {
				logger.Warn("Malformed turn result", zap.Error(err))
				continue
			}
			turn := msg.Turn
			fmt.Printf("[%s] assistant> %s\n", turn.Emotion, turn.AssistantMessage.Content)
			if turn.CrisisResources != nil {
				fmt.Printf("!! %s: %s\n", turn.CrisisResources.Title, turn.CrisisResources.Introduction)
				for _, h := range turn.CrisisResources.Hotlines {
					fmt.Printf("   %s: %s\n", h.Name, h.Contact)
				}
			}
			printNotices(turn.Notices)
		case wsproto.MessageTypeEmotionDetected:
			var msg wsproto.EmotionDetectedMessage
			if err := json.Unmarshal(data, &msg); err == nil {
				fmt.Printf("* emotion detected: %s\n", msg.Emotion)
			}
		case wsproto.MessageTypeNotice:
			var msg wsproto.NoticeMessage
			if err := json.Unmarshal(data, &msg); err == nil {
				printNotices([]domain.Notice{msg.Notice})
			}
		case wsproto.MessageTypeError:
			var msg wsproto.ErrorMessage
			if err := json.Unmarshal(data, &msg); err == nil {
				fmt.Printf("error (%s): %s\n", msg.Code, msg.Message)
			}
		default:
			logger.Debug("Ignoring message", zap.String("type", msgType))
		}
	}
}

func printNotices(notices []domain.Notice) {
	for _, n := range notices {
		fmt.Printf("* %s: %s\n", n.Title, n.Description)
	}
}
