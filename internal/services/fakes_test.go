package services

import (
	"context"
	"sync"
	"time"

	"assistantpro-backend/internal/config"
	"assistantpro-backend/internal/conversation"
	"assistantpro-backend/internal/integrations/groq"
	"assistantpro-backend/internal/metrics"
	"assistantpro-backend/internal/models"
	"assistantpro-backend/internal/store"

	"github.com/prometheus/client_golang/prometheus"
)

// fakeTranscripts is an in-memory TranscriptStore.
type fakeTranscripts struct {
	mu        sync.Mutex
	turns     []models.Turn
	nextID    int64
	listErr   error
	appendErr error
	deleteErr error
	clock     time.Time
}

func (f *fakeTranscripts) AppendTurn(_ context.Context, arg store.CreateTurnParams) (*models.Turn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return nil, f.appendErr
	}
	f.nextID++
	f.clock = f.clock.Add(time.Second)
	turn := models.Turn{
		ID:          f.nextID,
		SessionID:   arg.SessionID,
		UserMessage: arg.UserMessage,
		BotReply:    arg.BotReply,
		UserName:    arg.UserName,
		Personality: arg.Personality,
		Timestamp:   f.clock,
	}
	f.turns = append(f.turns, turn)
	return &turn, nil
}

func (f *fakeTranscripts) ListTurns(_ context.Context, sessionID string, limit int) ([]models.Turn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []models.Turn
	for _, t := range f.turns {
		if t.SessionID == sessionID {
			out = append(out, t)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeTranscripts) DeleteSession(_ context.Context, sessionID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	var kept []models.Turn
	var deleted int64
	for _, t := range f.turns {
		if t.SessionID == sessionID {
			deleted++
			continue
		}
		kept = append(kept, t)
	}
	f.turns = kept
	return deleted, nil
}

func (f *fakeTranscripts) Stats(context.Context) (*models.TranscriptStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sessions := map[string]struct{}{}
	for _, t := range f.turns {
		sessions[t.SessionID] = struct{}{}
	}
	return &models.TranscriptStats{TotalMessages: int64(len(f.turns)), UniqueSessions: int64(len(sessions))}, nil
}

func (f *fakeTranscripts) Ping(context.Context) error { return f.listErr }

func (f *fakeTranscripts) seed(sessionID string, pairs ...string) {
	for i := 0; i+1 < len(pairs); i += 2 {
		f.AppendTurn(context.Background(), store.CreateTurnParams{
			SessionID:   sessionID,
			UserMessage: pairs[i],
			BotReply:    pairs[i+1],
		})
	}
}

// fakeProvider records the prompts it receives.
type fakeProvider struct {
	mu         sync.Mutex
	configured bool
	reply      string
	err        error
	calls      [][]conversation.PromptMessage
	hook       func(ctx context.Context)
}

func (p *fakeProvider) Complete(ctx context.Context, messages []conversation.PromptMessage) (*groq.Completion, error) {
	if p.hook != nil {
		p.hook(ctx)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, messages)
	if p.err != nil {
		return nil, p.err
	}
	return &groq.Completion{Content: p.reply, Model: "fake", InputTokens: 10, OutputTokens: 5}, nil
}

func (p *fakeProvider) Configured() bool { return p.configured }
func (p *fakeProvider) Model() string    { return "fake-model" }

func (p *fakeProvider) lastCall() []conversation.PromptMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.calls) == 0 {
		return nil
	}
	return p.calls[len(p.calls)-1]
}

func testConfig() *config.Config {
	return &config.Config{
		StoreBackend:       config.StoreBackendPostgres,
		CompletionTimeout:  time.Second,
		HistoryWindow:      config.DefaultHistoryWindow,
		HistoryFetchLimit:  config.DefaultHistoryFetchLimit,
		MessageCharBound:   config.DefaultMessageCharBound,
		OutboundMessageCap: config.DefaultOutboundMessageCap,
		SummaryTurns:       config.DefaultSummaryTurns,
		SerializeSessions:  true,
		JWTSecret:          "test-secret",
		TokenExpiration:    time.Hour,
	}
}

func newTestChatService(cfg *config.Config, transcripts *fakeTranscripts, provider *fakeProvider) *ChatService {
	return NewChatService(transcripts, provider, NewSessionTracker(), metrics.New(prometheus.NewRegistry()), cfg, nil)
}
