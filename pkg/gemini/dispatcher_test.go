package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dkovalev/gemini-relay/pkg/domain"
)

type attemptResult struct {
	reply string
	err   error
}

type fakeGenerator struct {
	results []attemptResult
	calls   []string
	reqs    []domain.ChatRequest
}

func (f *fakeGenerator) GenerateReply(_ context.Context, credential string, req domain.ChatRequest) (string, error) {
	i := len(f.calls)
	f.calls = append(f.calls, credential)
	f.reqs = append(f.reqs, req)
	if i >= len(f.results) {
		return "", errors.New("unexpected extra attempt")
	}
	return f.results[i].reply, f.results[i].err
}

func TestDispatch_EmptyMessageRejectedBeforeAnyAttempt(t *testing.T) {
	gen := &fakeGenerator{}
	d := NewDispatcher(gen)

	cfg := domain.DispatchConfig{Credentials: []string{"K1", "K2"}}
	_, err := d.Dispatch(context.Background(), "   ", nil, nil, cfg)

	if !errors.Is(err, domain.ErrEmptyMessage) {
		t.Errorf("expected ErrEmptyMessage, got %v", err)
	}
	if len(gen.calls) != 0 {
		t.Errorf("expected no attempts, got %d", len(gen.calls))
	}
}

func TestDispatch_ImagesAloneAreValidContent(t *testing.T) {
	gen := &fakeGenerator{results: []attemptResult{{reply: "a cat"}}}
	d := NewDispatcher(gen)

	images := []domain.Attachment{{MimeType: "image/png", Data: "aGVsbG8="}}
	cfg := domain.DispatchConfig{Credentials: []string{"K1"}}

	reply, err := d.Dispatch(context.Background(), "", images, nil, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "a cat" {
		t.Errorf("expected %q, got %q", "a cat", reply)
	}
}

func TestDispatch_FailoverToNextCredential(t *testing.T) {
	gen := &fakeGenerator{results: []attemptResult{
		{err: errors.New("googleapi: Error 429: rate limit")},
		{reply: "Hello!"},
	}}
	d := NewDispatcher(gen)

	cfg := domain.DispatchConfig{Credentials: []string{"K1", "K2"}}
	reply, err := d.Dispatch(context.Background(), "hi", nil, nil, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Hello!" {
		t.Errorf("expected %q, got %q", "Hello!", reply)
	}
	if len(gen.calls) != 2 || gen.calls[0] != "K1" || gen.calls[1] != "K2" {
		t.Errorf("expected attempts [K1 K2], got %v", gen.calls)
	}
}

func TestDispatch_AllCredentialsExhaustedInOrder(t *testing.T) {
	gen := &fakeGenerator{results: []attemptResult{
		{err: errors.New("RESOURCE_EXHAUSTED: quota exceeded")},
		{err: errors.New("googleapi: Error 403: forbidden")},
		{err: errors.New("API_KEY_INVALID")},
	}}
	d := NewDispatcher(gen)

	cfg := domain.DispatchConfig{Credentials: []string{"K1", "K2", "K3"}}
	_, err := d.Dispatch(context.Background(), "hi", nil, nil, cfg)

	if !errors.Is(err, domain.ErrCredentialsExhausted) {
		t.Errorf("expected ErrCredentialsExhausted, got %v", err)
	}
	want := []string{"K1", "K2", "K3"}
	if len(gen.calls) != len(want) {
		t.Fatalf("expected %d attempts, got %d", len(want), len(gen.calls))
	}
	for i := range want {
		if gen.calls[i] != want[i] {
			t.Errorf("attempt %d: expected credential %q, got %q", i, want[i], gen.calls[i])
		}
	}
}

func TestDispatch_FatalErrorStopsRotation(t *testing.T) {
	gen := &fakeGenerator{results: []attemptResult{
		{err: errors.New("context deadline exceeded: timeout")},
	}}
	d := NewDispatcher(gen)

	cfg := domain.DispatchConfig{Credentials: []string{"K1", "K2"}}
	_, err := d.Dispatch(context.Background(), "hi", nil, nil, cfg)

	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, domain.ErrCredentialsExhausted) {
		t.Errorf("fatal error must not be reported as exhaustion: %v", err)
	}
	if !strings.Contains(err.Error(), "AI connection error") {
		t.Errorf("expected wrapped connection error, got %v", err)
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("expected underlying message preserved, got %v", err)
	}
	if len(gen.calls) != 1 {
		t.Errorf("expected 1 attempt, got %d", len(gen.calls))
	}
}

func TestDispatch_SingleCredentialFatalIsNotExhaustion(t *testing.T) {
	gen := &fakeGenerator{results: []attemptResult{
		{err: errors.New("timeout")},
	}}
	d := NewDispatcher(gen)

	cfg := domain.DispatchConfig{Credentials: []string{"K1"}}
	_, err := d.Dispatch(context.Background(), "hi", nil, nil, cfg)

	if errors.Is(err, domain.ErrCredentialsExhausted) {
		t.Errorf("expected fatal error class, got exhaustion: %v", err)
	}
	if len(gen.calls) != 1 {
		t.Errorf("expected 1 attempt, got %d", len(gen.calls))
	}
}

func TestDispatch_WhitespaceReplyFailsWithoutRotation(t *testing.T) {
	gen := &fakeGenerator{results: []attemptResult{
		{reply: "   "},
	}}
	d := NewDispatcher(gen)

	cfg := domain.DispatchConfig{Credentials: []string{"K1", "K2"}}
	_, err := d.Dispatch(context.Background(), "hi", nil, nil, cfg)

	if !errors.Is(err, domain.ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
	if len(gen.calls) != 1 {
		t.Errorf("expected 1 attempt, got %d", len(gen.calls))
	}
}

func TestDispatch_EmptyCredentialListIsExhaustion(t *testing.T) {
	gen := &fakeGenerator{}
	d := NewDispatcher(gen)

	_, err := d.Dispatch(context.Background(), "hi", nil, nil, domain.DispatchConfig{})

	if !errors.Is(err, domain.ErrCredentialsExhausted) {
		t.Errorf("expected ErrCredentialsExhausted, got %v", err)
	}
	if len(gen.calls) != 0 {
		t.Errorf("expected no attempts, got %d", len(gen.calls))
	}
}

func TestDispatch_RequestIsIdenticalAcrossAttempts(t *testing.T) {
	gen := &fakeGenerator{results: []attemptResult{
		{err: errors.New("429")},
		{reply: "ok"},
	}}
	d := NewDispatcher(gen)

	history := []domain.ChatTurn{{Role: "assistant", Parts: []string{"hi"}}}
	cfg := domain.DispatchConfig{
		Credentials:       []string{"K1", "K2"},
		SystemInstruction: "be terse",
	}

	if _, err := d.Dispatch(context.Background(), "hello", nil, history, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(gen.reqs) != 2 {
		t.Fatalf("expected 2 recorded requests, got %d", len(gen.reqs))
	}
	for i, req := range gen.reqs {
		if req.SystemInstruction != "be terse" {
			t.Errorf("attempt %d: system instruction lost: %q", i, req.SystemInstruction)
		}
		if req.Message != "hello" {
			t.Errorf("attempt %d: message lost: %q", i, req.Message)
		}
		if len(req.History) != 1 || req.History[0].Role != "assistant" {
			t.Errorf("attempt %d: history altered: %+v", i, req.History)
		}
	}
}

func TestDispatch_ReplyIsTrimmed(t *testing.T) {
	gen := &fakeGenerator{results: []attemptResult{{reply: "  Hello!  \n"}}}
	d := NewDispatcher(gen)

	cfg := domain.DispatchConfig{Credentials: []string{"K1"}}
	reply, err := d.Dispatch(context.Background(), "hi", nil, nil, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Hello!" {
		t.Errorf("expected trimmed reply, got %q", reply)
	}
}
