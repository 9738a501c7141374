package session

// Event type discriminators on the peer-facing wire protocol.
const (
	TypeSessionStarted      = "session_started"
	TypeTranscriptionUpdate = "transcription_update"
	TypeTranscriptionFinal  = "transcription_final"
	TypeError               = "error"
)

// Sink delivers outgoing events to the remote peer. Send fails when
// the peer is no longer reachable; sessions swallow such failures.
// Implementations must serialize concurrent Send calls.
type Sink interface {
	Send(event any) error
}

// SessionStarted acknowledges session establishment.
type SessionStarted struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
}

// TranscriptionUpdate is a non-final incremental transcript. Text
// carries only the newly appended suffix when the transcript extended
// the previous one, otherwise the full new text.
type TranscriptionUpdate struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	FullText string `json:"full_text"`
	Language string `json:"language,omitempty"`
	IsFinal  bool   `json:"is_final"`
}

// TranscriptionFinal is the one authoritative transcript of the
// session's remaining audio, emitted at most once at session end.
type TranscriptionFinal struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
	IsFinal  bool   `json:"is_final"`
}

// ErrorEvent reports a non-fatal per-occurrence failure to the peer.
type ErrorEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func newSessionStarted(id string) SessionStarted {
	return SessionStarted{Type: TypeSessionStarted, SessionID: id}
}

func newUpdate(text, fullText, language string) TranscriptionUpdate {
	return TranscriptionUpdate{
		Type:     TypeTranscriptionUpdate,
		Text:     text,
		FullText: fullText,
		Language: language,
		IsFinal:  false,
	}
}

func newFinal(text, language string) TranscriptionFinal {
	return TranscriptionFinal{
		Type:     TypeTranscriptionFinal,
		Text:     text,
		Language: language,
		IsFinal:  true,
	}
}

func newErrorEvent(message string) ErrorEvent {
	return ErrorEvent{Type: TypeError, Message: message}
}
