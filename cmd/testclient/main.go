// testclient streams a generated sine tone to the transcription
// service. Useful for smoke-testing the wire protocol without a WAV
// file; pair it with the mock engine provider.
package main

import (
	"flag"
	"log"
	"math"
	"time"

	"github.com/gorilla/websocket"

	"realtime-transcription-service/internal/audio"
)

const sampleRate = 16000
const chunkMs = 100

func main() {
	serverURL := flag.String("server", "ws://localhost:8080/v1/stream", "Websocket stream URL")
	sessionID := flag.String("session", "testclient-"+time.Now().Format("150405"), "Session ID")
	seconds := flag.Int("seconds", 7, "Seconds of audio to stream")
	freq := flag.Float64("freq", 440, "Tone frequency in Hz")
	flag.Parse()

	conn, _, err := websocket.DefaultDialer.Dial(*serverURL, nil)
	if err != nil {
		log.Fatalf("failed to connect: %v", err)
	}
	defer conn.Close()

	log.Println("Connected to server")

	if err := conn.WriteMessage(websocket.TextMessage, []byte(*sessionID)); err != nil {
		log.Fatalf("failed to send session id: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			log.Printf("event: %s", payload)
		}
	}()

	chunkSamples := sampleRate * chunkMs / 1000
	totalChunks := *seconds * 1000 / chunkMs
	samples := make([]float32, chunkSamples)
	var phase float64

	for i := 0; i < totalChunks; i++ {
		for j := range samples {
			samples[j] = float32(0.3 * math.Sin(phase))
			phase += 2 * math.Pi * *freq / sampleRate
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, audio.EncodePCM16(samples)); err != nil {
			log.Fatalf("failed to send frame: %v", err)
		}
		time.Sleep(chunkMs * time.Millisecond)
	}

	log.Println("Ending session")
	if err := conn.WriteMessage(websocket.TextMessage, []byte("end")); err != nil {
		log.Fatalf("failed to send end signal: %v", err)
	}

	select {
	case <-done:
	case <-time.After(15 * time.Second):
		log.Println("timed out waiting for final transcript")
	}
}
