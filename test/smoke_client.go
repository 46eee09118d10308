// Command smoke_client exercises a running server by hand: health check, one REST chat
// turn, an optional volunteer login, then an interactive WebSocket chat.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

var (
	baseURL  = flag.String("base", "http://localhost:8080", "server base URL")
	email    = flag.String("email", "", "volunteer email; logs in and joins the help request feed when set")
	password = flag.String("password", "", "volunteer password")
	message  = flag.String("message", "How can I volunteer?", "message sent through the REST chat endpoint")
)

type TokenResponse struct {
	Token string `json:"token"`
	Type  string `json:"type"`
}

type ChatReply struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

var client = &http.Client{Timeout: 60 * time.Second}

func main() {
	flag.Parse()
	fmt.Println("🚀 Starting smoke test against", *baseURL)

	if err := healthCheck(); err != nil {
		log.Fatalf("Health check failed: %v", err)
	}
	fmt.Println("✅ Server is healthy")

	reply, err := chat(*message)
	if err != nil {
		log.Fatalf("Chat failed: %v", err)
	}
	fmt.Printf("💬 [%s] %s\n", reply.Source, reply.Text)

	token := ""
	if *email != "" {
		token, err = login(*email, *password)
		if err != nil {
			log.Fatalf("Failed to log in: %v", err)
		}
		fmt.Printf("✅ JWT token obtained: %s...\n", token[:min(20, len(token))])
	}

	if err := repl(token); err != nil {
		log.Fatalf("WebSocket session failed: %v", err)
	}
}

func healthCheck() error {
	resp, err := client.Get(*baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}

func postJSON(path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	resp, err := client.Post(*baseURL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to send request: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(respBody))
	}
	return json.Unmarshal(respBody, out)
}

func chat(text string) (ChatReply, error) {
	var reply ChatReply
	err := postJSON("/api/v1/chat", map[string]string{"message": text}, &reply)
	return reply, err
}

func login(email, password string) (string, error) {
	var resp TokenResponse
	err := postJSON("/api/v1/volunteers/login", map[string]string{"email": email, "password": password}, &resp)
	return resp.Token, err
}

func repl(token string) error {
	wsURL, err := url.Parse(*baseURL)
	if err != nil {
		return err
	}
	wsURL.Scheme = strings.Replace(wsURL.Scheme, "http", "ws", 1)
	wsURL.Path = "/ws"
	if token != "" {
		wsURL.RawQuery = url.Values{"token": {token}}.Encode()
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %v", err)
	}
	defer conn.Close()

	go func() {
		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				log.Println("Error reading message:", err)
				return
			}
			fmt.Printf("\n📥 %s\n> ", frame)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Shutting down...")
		conn.Close()
		os.Exit(0)
	}()

	reader := bufio.NewReader(os.Stdin)
	fmt.Println("Enter messages to send to the assistant (type 'exit' to quit):")
	for {
		fmt.Print("> ")
		text, err := reader.ReadString('\n')
		if err != nil {
			return nil
		}
		text = strings.TrimSpace(text)
		if text == "exit" {
			return nil
		}
		if text == "" {
			continue
		}
		if err := conn.WriteJSON(map[string]string{"type": "chat", "message": text}); err != nil {
			return fmt.Errorf("error sending message: %v", err)
		}
	}
}
