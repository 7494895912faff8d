package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
)

// Drives a scripted interview against a running server.
//
//	SIM_BASE_URL  (default http://localhost:3000/api)
//	SIM_TOKEN     bearer token when JWT_SECRET is set on the server

type envelope struct {
	Success   bool            `json:"success"`
	ErrorCode string          `json:"error_code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
}

type startResponse struct {
	SessionId string `json:"session_id"`
	MaxRounds int    `json:"max_rounds"`
	Question  string `json:"question"`
}

type answerResponse struct {
	NextQuestion *string `json:"next_question"`
	Status       string  `json:"status"`
	Round        int     `json:"round"`
	Repeated     bool    `json:"repeated"`
	Decision     string  `json:"decision"`
	Evaluation   *struct {
		CorrectnessScore float64  `json:"correctness_score"`
		DepthLevel       string   `json:"depth_level"`
		DetectedTopics   []string `json:"detected_topics"`
	} `json:"evaluation"`
	WeakTopics []string `json:"weak_topics"`
}

type scriptedAnswer struct {
	Text       string
	Confidence float64
	Emotion    string
}

var script = []scriptedAnswer{
	{"Sorry, can you repeat the question?", 0.5, "calm"},
	{"A variable is a named location in memory that holds a value which can change.", 0.8, "calm"},
	{"I think a pointer stores... an address? I'm not sure.", 0.3, "nervous"},
	{"A slice is a view over an array with a length and a capacity; append may reallocate.", 0.7, "confident"},
	{"Goroutines are multiplexed onto OS threads by the runtime scheduler.", 0.9, "calm"},
	{"Channels synchronise goroutines and can be buffered or unbuffered.", 0.9, "calm"},
}

var (
	baseURL = envOr("SIM_BASE_URL", "http://localhost:3000/api")
	token   = os.Getenv("SIM_TOKEN")
	client  = &http.Client{Timeout: 3 * time.Minute}
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func sendRequest(method, path string, body interface{}, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%s: %s", resp.Status, string(raw))
	}
	if !env.Success {
		return fmt.Errorf("%s %s: %s", resp.Status, env.ErrorCode, env.Message)
	}
	if out != nil {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

func main() {
	color.Cyan("=== Adaptive Interview Simulation ===")

	candidate := fmt.Sprintf("sim-%d", time.Now().Unix())
	var started startResponse
	if err := sendRequest("POST", "/interviews/start", map[string]interface{}{
		"candidate_id": candidate,
		"max_rounds":   len(script),
	}, &started); err != nil {
		color.Red("Failed to start interview: %v", err)
		os.Exit(1)
	}
	color.Green("Session %s for %s (max %d rounds)", started.SessionId, candidate, started.MaxRounds)
	color.Yellow("\nINTERVIEWER: %s", started.Question)

	for _, a := range script {
		fmt.Printf("CANDIDATE (%s, %.1f): %s\n", a.Emotion, a.Confidence, a.Text)

		begin := time.Now()
		var res answerResponse
		err := sendRequest("POST", "/interviews/"+started.SessionId+"/answer", map[string]interface{}{
			"text":             a.Text,
			"confidence_score": a.Confidence,
			"emotion_state":    a.Emotion,
		}, &res)
		if err != nil {
			color.Red("Turn failed: %v", err)
			os.Exit(1)
		}

		if res.Repeated {
			color.Magenta("  (repeated)")
		} else if res.Evaluation != nil {
			color.Blue("  round=%d decision=%s correctness=%.2f depth=%s topics=%v weak=%v (%v)",
				res.Round, res.Decision, res.Evaluation.CorrectnessScore, res.Evaluation.DepthLevel,
				res.Evaluation.DetectedTopics, res.WeakTopics, time.Since(begin).Round(time.Millisecond))
		}

		if res.Status == "ended" || res.NextQuestion == nil {
			color.Cyan("\nInterview ended after round %d", res.Round)
			break
		}
		color.Yellow("\nINTERVIEWER: %s", *res.NextQuestion)
	}

	var summary map[string]interface{}
	if err := sendRequest("GET", "/interviews/"+started.SessionId+"/summary", nil, &summary); err != nil {
		color.Red("Failed to fetch summary: %v", err)
		os.Exit(1)
	}
	b, _ := json.MarshalIndent(summary, "", "  ")
	color.Green("\nSummary:")
	fmt.Println(string(b))
}
