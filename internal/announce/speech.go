package announce

import (
	"context"
	"log"
	"os/exec"
	"runtime"
	"sync"
	"time"
)

// speechCandidates are probed in order when no binary is configured.
// Synthesis itself stays outside the process; the speaker is a thin shell
// around whatever TTS engine the host has.
func speechCandidates() []string {
	if runtime.GOOS == "darwin" {
		return []string{"say", "espeak-ng", "espeak", "flite"}
	}
	return []string{"espeak-ng", "espeak", "flite", "say"}
}

// Speech speaks announcements through an external TTS binary. Utterances
// are serialized on one goroutine so announcements come out in order and
// the monitoring loop never waits on audio.
type Speech struct {
	binary  string
	queue   chan string
	done    chan struct{}
	closeMu sync.Mutex
	closed  bool
}

// DetectSpeech probes for a usable TTS binary. binary may name one
// explicitly; empty means probe the usual suspects. Returns nil when the
// host has none, which callers treat as headless.
func DetectSpeech(binary string) *Speech {
	candidates := speechCandidates()
	if binary != "" {
		candidates = []string{binary}
	}

	for _, c := range candidates {
		if path, err := exec.LookPath(c); err == nil {
			log.Printf("Speech engine: %s", path)
			s := &Speech{
				binary: path,
				queue:  make(chan string, 16),
				done:   make(chan struct{}),
			}
			go s.run()
			return s
		}
	}

	log.Printf("No speech engine found, announcements are log-only")
	return nil
}

// SpeakAndLog queues the message for speech; the log half of the contract
// is the Log announcer's job (compose with Multi). A full queue drops the
// utterance rather than blocking the caller; after Close the call is a
// no-op.
func (s *Speech) SpeakAndLog(message string) {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- message:
	default:
		log.Printf("Speech queue full, dropping utterance")
	}
}

// run drains the queue, one utterance at a time.
func (s *Speech) run() {
	defer close(s.done)
	for message := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := exec.CommandContext(ctx, s.binary, message).Run()
		cancel()
		if err != nil {
			log.Printf("Speech failed: %v", err)
		}
	}
}

// Close stops accepting utterances and waits for the queue to drain so a
// final announcement is not cut off mid-sentence.
func (s *Speech) Close() error {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return nil
	}
	s.closed = true
	close(s.queue)
	s.closeMu.Unlock()

	select {
	case <-s.done:
	case <-time.After(35 * time.Second):
		log.Printf("Speech engine did not drain in time")
	}
	return nil
}
