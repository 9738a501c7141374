// audioclient streams a WAV file to the transcription service over a
// websocket and prints every event the service sends back.
package main

import (
	"encoding/binary"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

// WAV header is 44 bytes for standard PCM files
const wavHeaderSize = 44

// Stream audio in chunks to simulate real-time streaming
// At 16kHz 16-bit mono = 32000 bytes/second
// 100ms chunks = 3200 bytes
const chunkSize = 3200
const chunkIntervalMs = 100

func main() {
	audioFile := flag.String("audio", "testdata/sample-16khz.wav", "Path to WAV file (16kHz 16-bit mono)")
	serverURL := flag.String("server", "ws://localhost:8080/v1/stream", "Websocket stream URL")
	sessionID := flag.String("session", "audioclient-"+time.Now().Format("150405"), "Session ID")
	flag.Parse()

	f, err := os.Open(*audioFile)
	if err != nil {
		log.Fatalf("Failed to open audio file: %v", err)
	}
	defer f.Close()

	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		log.Fatalf("Failed to read WAV header: %v", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		log.Fatal("Not a valid WAV file")
	}

	audioFormat := binary.LittleEndian.Uint16(header[20:22])
	numChannels := binary.LittleEndian.Uint16(header[22:24])
	sampleRate := binary.LittleEndian.Uint32(header[24:28])
	bitsPerSample := binary.LittleEndian.Uint16(header[34:36])

	log.Printf("WAV file: format=%d channels=%d sampleRate=%d bitsPerSample=%d",
		audioFormat, numChannels, sampleRate, bitsPerSample)

	if audioFormat != 1 { // PCM
		log.Fatal("Only PCM format supported")
	}
	if sampleRate != 16000 {
		log.Printf("Warning: Sample rate is %d Hz, expected 16000 Hz", sampleRate)
	}

	conn, _, err := websocket.DefaultDialer.Dial(*serverURL, nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	log.Printf("Connected to %s", *serverURL)

	if err := conn.WriteMessage(websocket.TextMessage, []byte(*sessionID)); err != nil {
		log.Fatalf("Failed to send session id: %v", err)
	}

	// Print incoming events until the server closes the connection.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var event map[string]any
			if err := json.Unmarshal(payload, &event); err != nil {
				log.Printf("Unparseable event: %s", payload)
				continue
			}
			switch event["type"] {
			case "transcription_update":
				log.Printf("partial: %v", event["full_text"])
			case "transcription_final":
				log.Printf("final:   %v", event["text"])
			default:
				log.Printf("event:   %s", payload)
			}
		}
	}()

	log.Printf("Streaming audio: sessionId=%s", *sessionID)

	audioChunk := make([]byte, chunkSize)
	var totalBytes int64
	var chunkNum int
	startTime := time.Now()

	for {
		n, err := f.Read(audioChunk)
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Failed to read audio: %v", err)
		}

		chunkNum++
		totalBytes += int64(n)

		if err := conn.WriteMessage(websocket.BinaryMessage, audioChunk[:n]); err != nil {
			log.Fatalf("Failed to send frame: %v", err)
		}

		if chunkNum%10 == 0 {
			log.Printf("Sent chunk %d (%d bytes total)", chunkNum, totalBytes)
		}

		// Simulate real-time streaming
		time.Sleep(chunkIntervalMs * time.Millisecond)
	}

	elapsed := time.Since(startTime)
	log.Printf("Finished streaming: %d chunks, %d bytes in %v", chunkNum, totalBytes, elapsed)

	log.Println("Ending session, waiting for final transcript...")
	if err := conn.WriteMessage(websocket.TextMessage, []byte("end")); err != nil {
		log.Fatalf("Failed to send end signal: %v", err)
	}

	select {
	case <-done:
	case <-time.After(30 * time.Second):
		log.Println("Timed out waiting for final transcript")
	}
}
