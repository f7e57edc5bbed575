// Package speech reads drill segments aloud through a system TTS command.
package speech

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"sync"
)

// ErrUnavailable is returned when no speech command is installed.
var ErrUnavailable = errors.New("no speech command available")

// Language is a selectable speech language.
type Language struct {
	Code  string
	Name  string
	Voice string
}

// Languages lists the supported speech languages.
var Languages = []Language{
	{Code: "en-US", Name: "English (US)", Voice: "en-us"},
	{Code: "de-DE", Name: "German", Voice: "de"},
	{Code: "fr-FR", Name: "French", Voice: "fr"},
	{Code: "es-ES", Name: "Spanish", Voice: "es"},
	{Code: "it-IT", Name: "Italian", Voice: "it"},
	{Code: "ja-JP", Name: "Japanese", Voice: "ja"},
	{Code: "zh-CN", Name: "Chinese (Simplified)", Voice: "cmn"},
	{Code: "ru-RU", Name: "Russian", Voice: "ru"},
	{Code: "pt-BR", Name: "Portuguese (Brazil)", Voice: "pt-br"},
	{Code: "nl-NL", Name: "Dutch", Voice: "nl"},
	{Code: "pl-PL", Name: "Polish", Voice: "pl"},
	{Code: "sv-SE", Name: "Swedish", Voice: "sv"},
}

// Lookup finds a language by code, case-insensitively.
func Lookup(code string) (Language, bool) {
	for _, lang := range Languages {
		if strings.EqualFold(lang.Code, strings.TrimSpace(code)) {
			return lang, true
		}
	}
	return Language{}, false
}

type runner func(ctx context.Context, name string, args ...string) error

// Speaker plays one utterance at a time. A new request cancels the one in
// flight.
type Speaker struct {
	command string
	run     runner
	onError func(error)

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New returns a Speaker using the first available TTS command. onError
// receives failures of utterances that were not cancelled; it may be nil.
func New(onError func(error)) *Speaker {
	return &Speaker{command: detectCommand(), run: runCommand, onError: onError}
}

// Available reports whether a TTS command was found.
func (s *Speaker) Available() bool {
	return s != nil && s.command != ""
}

// Speak cancels any utterance in flight and starts reading text.
func (s *Speaker) Speak(text, lang string) error {
	if !s.Available() {
		return ErrUnavailable
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	args := voiceArgs(s.command, text, lang)
	go func() {
		defer cancel()
		if err := s.run(ctx, s.command, args...); err != nil && ctx.Err() == nil && s.onError != nil {
			s.onError(err)
		}
	}()
	return nil
}

// Cancel stops the utterance in flight, if any.
func (s *Speaker) Cancel() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func voiceArgs(command, text, lang string) []string {
	if command == "say" {
		return []string{text}
	}
	voice := strings.ToLower(lang)
	if l, ok := Lookup(lang); ok {
		voice = l.Voice
	}
	if voice == "" {
		return []string{text}
	}
	return []string{"-v", voice, text}
}

func detectCommand() string {
	candidates := []string{"espeak-ng", "espeak"}
	if runtime.GOOS == "darwin" {
		candidates = []string{"say"}
	}
	for _, name := range candidates {
		if _, err := exec.LookPath(name); err == nil {
			return name
		}
	}
	return ""
}

func runCommand(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}
