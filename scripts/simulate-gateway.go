package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

var (
	gatewayURL = flag.String("gateway", "ws://localhost:8084/ws", "Gateway websocket URL")
	redisAddr  = flag.String("redis", "localhost:6379", "Redis address (host:port)")
	redisPass  = flag.String("password", "", "Redis password")
	jwtSecret  = flag.String("secret", "jwt-secret", "JWT secret shared with the gateway")
	numUsers   = flag.Int("users", 20, "Number of simulated users")
	sameYear   = flag.Bool("same-year", false, "Request same-year matching")
	holdTime   = flag.Duration("hold", 30*time.Second, "How long each client stays connected")
)

var years = []string{"first", "second", "third", "fourth"}
var courses = []string{"CS101", "CS305", "EE210", "ME140", "BIO220"}

func main() {
	flag.Parse()

	ctx := context.Background()

	rdb := redis.NewClient(&redis.Options{
		Addr:     *redisAddr,
		Password: *redisPass,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Redis unreachable: %v\n", err)
		os.Exit(1)
	}

	var wg sync.WaitGroup
	for i := 0; i < *numUsers; i++ {
		userID := fmt.Sprintf("sim-user-%03d", i)

		// Seed the user record the gateway looks up during IDENTIFY.
		if err := rdb.HSet(ctx, "campusmeet:user:"+userID,
			"display_name", userID,
			"year_of_study", years[rand.Intn(len(years))],
			"course", courses[rand.Intn(len(courses))],
		).Err(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to seed %s: %v\n", userID, err)
			os.Exit(1)
		}

		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			if err := runClient(userID); err != nil {
				fmt.Printf("[%s] %v\n", userID, err)
			}
		}(userID)

		time.Sleep(50 * time.Millisecond)
	}

	wg.Wait()
	fmt.Println("Simulation complete")
}

func runClient(userID string) error {
	token, err := signToken(userID)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.Dial(*gatewayURL, nil)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}
	defer conn.Close()

	identify := map[string]any{
		"type": "IDENTIFY",
		"data": map[string]string{"token": token},
	}
	if err := conn.WriteJSON(identify); err != nil {
		return fmt.Errorf("identify failed: %w", err)
	}

	join := map[string]any{
		"type": "JOIN_DISCOVERY_QUEUE",
		"data": map[string]any{
			"options": map[string]bool{
				"sameYear":       *sameYear,
				"sameDepartment": false,
			},
		},
	}
	if err := conn.WriteJSON(join); err != nil {
		return fmt.Errorf("join failed: %w", err)
	}

	deadline := time.Now().Add(*holdTime)
	conn.SetReadDeadline(deadline)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil // hold time elapsed or server closed
		}

		var frame struct {
			Type string          `json:"type"`
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(data, &frame); err != nil {
			continue
		}

		fmt.Printf("[%s] <- %s\n", userID, frame.Type)

		if frame.Type == "DISCOVERY_QUEUE_MATCH" {
			return nil
		}
	}
}

func signToken(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     now.Add(time.Hour).Unix(),
	})
	return token.SignedString([]byte(*jwtSecret))
}
