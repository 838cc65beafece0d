// scripts/concurrency_check.go
//
// Fires the same move at a running server many times at once. Exactly one
// request must win the cell; the rest must be rejected.
//
//	go run ./scripts -base http://localhost:8080/api -n 20
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

var (
	baseURL       = flag.String("base", "http://localhost:8080/api", "API base URL")
	requestsCount = flag.Int("n", 20, "number of simultaneous moves")
	mode          = flag.String("mode", "classic3", "classic3 or gomoku")
)

var client = &http.Client{Timeout: 10 * time.Second}

// sendRequest posts payload as JSON and decodes the response body.
func sendRequest(method, url string, payload map[string]any) (map[string]any, error) {
	var reqBody []byte
	if payload != nil {
		reqBody, _ = json.Marshal(payload)
	}

	req, err := http.NewRequest(method, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var result map[string]any
	json.Unmarshal(body, &result)

	if resp.StatusCode >= 400 {
		return result, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return result, nil
}

func main() {
	flag.Parse()

	fmt.Printf("[1/3] Creating a %s game...\n", *mode)
	created, err := sendRequest("POST", *baseURL+"/game/create", map[string]any{
		"player_name": "racer-1",
		"mode":        *mode,
	})
	if err != nil {
		fmt.Println("Create Game Failed:", err)
		os.Exit(1)
	}
	inviteCode, _ := created["invite_code"].(string)
	playerID, _ := created["player_id"].(string)
	if inviteCode == "" || playerID == "" {
		fmt.Println("Cannot extract invite_code/player_id from response:", created)
		os.Exit(1)
	}
	fmt.Printf("Game Created! Invite Code: %s\n\n", inviteCode)

	fmt.Printf("[2/3] Player 2 joins...\n")
	if _, err := sendRequest("POST", *baseURL+"/game/join", map[string]any{
		"invite_code": inviteCode,
		"player_name": "racer-2",
	}); err != nil {
		fmt.Println("Player 2 Join Failed:", err)
		os.Exit(1)
	}
	fmt.Println("Player 2 joined. Game is active.")

	fmt.Printf("[3/3] Firing %d concurrent moves at (0, 0)\n", *requestsCount)
	movePayload, _ := json.Marshal(map[string]any{
		"game_id":      inviteCode,
		"player_id":    playerID,
		"column_index": 0,
		"row_index":    0,
	})

	var wg sync.WaitGroup
	var successCount, failCount int32
	startSignal := make(chan struct{})

	for i := 0; i < *requestsCount; i++ {
		wg.Add(1)
		go func(reqID int) {
			defer wg.Done()
			<-startSignal

			resp, err := client.Post(*baseURL+"/game/move", "application/json", bytes.NewReader(movePayload))
			if err != nil {
				atomic.AddInt32(&failCount, 1)
				fmt.Printf("[Req %02d] Transport error: %v\n", reqID, err)
				return
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusOK {
				atomic.AddInt32(&successCount, 1)
				fmt.Printf("[Req %02d] Success! Move accepted.\n", reqID)
			} else {
				atomic.AddInt32(&failCount, 1)
				fmt.Printf("[Req %02d] Rejected (Status %d)\n", reqID, resp.StatusCode)
			}
		}(i)
	}
	time.Sleep(500 * time.Millisecond)
	close(startSignal)
	wg.Wait()

	fmt.Println("\n--- RESULTS ---")
	fmt.Printf("Success (expected 1): %d\n", successCount)
	fmt.Printf("Rejected (expected %d): %d\n", *requestsCount-1, failCount)

	if successCount != 1 {
		fmt.Println("FAIL: concurrent moves were not serialized")
		os.Exit(1)
	}
	fmt.Println("PASS")
}
