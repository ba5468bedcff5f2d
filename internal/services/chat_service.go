package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"assistantpro-backend/internal/config"
	"assistantpro-backend/internal/conversation"
	"assistantpro-backend/internal/integrations/groq"
	"assistantpro-backend/internal/metrics"
	"assistantpro-backend/internal/models"
	"assistantpro-backend/internal/prompt"
	"assistantpro-backend/internal/store"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"
)

// DefaultSessionID is used when a request carries no session id.
const DefaultSessionID = "default"

// Custom errors for chat service
var (
	ErrNotConfigured       = errors.New("completion provider is not configured")
	ErrProviderTimeout     = errors.New("completion provider timed out")
	ErrProviderUnavailable = errors.New("completion provider unavailable")
	ErrStoreWrite          = errors.New("failed to persist conversation turn")
	ErrStoreUnavailable    = errors.New("transcript store unavailable")
)

// Outcome labels for metrics.
const (
	outcomeOK              = "ok"
	outcomeValidation      = "validation"
	outcomeNotConfigured   = "not_configured"
	outcomeProviderTimeout = "provider_timeout"
	outcomeProviderError   = "provider_error"
	outcomeStoreWrite      = "store_write_error"
)

// CompletionProvider is the remote chat-completion endpoint.
type CompletionProvider interface {
	Complete(ctx context.Context, messages []conversation.PromptMessage) (*groq.Completion, error)
	Configured() bool
	Model() string
}

// Attachment is text extracted from an uploaded file.
type Attachment struct {
	Filename string
	Text     string
}

func (a Attachment) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Filename, validation.Required),
		validation.Field(&a.Text, validation.Required),
	)
}

// ChatInput is one incoming user message.
type ChatInput struct {
	SessionID   string
	Message     string
	Personality string
	Attachment  *Attachment
}

// ChatResult is what the handler returns to the client.
type ChatResult struct {
	Reply       string
	SessionID   string
	UserName    string
	Personality string
	Persisted   bool
}

// ClearResult reports a session clear.
type ClearResult struct {
	SessionID       string
	DatabaseCleared bool
	DeletedTurns    int64
}

// ChatService runs the chat pipeline: history, profile, prompt, completion, persistence.
type ChatService struct {
	store    store.TranscriptStore
	provider CompletionProvider
	tracker  *SessionTracker
	locks    *sessionLocks
	metrics  *metrics.Metrics
	cfg      *config.Config
	logger   *zap.Logger
	now      func() time.Time
}

// NewChatService creates a new ChatService.
func NewChatService(
	transcripts store.TranscriptStore,
	provider CompletionProvider,
	tracker *SessionTracker,
	m *metrics.Metrics,
	cfg *config.Config,
	logger *zap.Logger,
) *ChatService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		store:    transcripts,
		provider: provider,
		tracker:  tracker,
		locks:    newSessionLocks(cfg.SerializeSessions),
		metrics:  m,
		cfg:      cfg,
		logger:   logger.Named("ChatService"),
		now:      time.Now,
	}
}

// NormalizeSessionID trims the id, applies the default and bounds its length.
func NormalizeSessionID(sessionID string) string {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return DefaultSessionID
	}
	return conversation.Truncate(sessionID, conversation.MaxSessionIDLength)
}

func (s *ChatService) validateInput(in *ChatInput) error {
	return validation.ValidateStruct(in,
		validation.Field(&in.Message,
			validation.When(in.Attachment == nil, validation.Required.Error("message cannot be empty")),
			validation.RuneLength(0, config.MaxRequestMessageLength),
		),
		validation.Field(&in.Attachment),
	)
}

// SendMessage answers one user message and records the turn.
func (s *ChatService) SendMessage(ctx context.Context, in ChatInput) (*ChatResult, error) {
	in.Message = strings.TrimSpace(in.Message)
	if err := s.validateInput(&in); err != nil {
		s.metrics.ChatRequestsTotal.WithLabelValues(outcomeValidation).Inc()
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if !s.provider.Configured() {
		s.metrics.ChatRequestsTotal.WithLabelValues(outcomeNotConfigured).Inc()
		return nil, ErrNotConfigured
	}

	sessionID := NormalizeSessionID(in.SessionID)
	personality := prompt.Lookup(in.Personality)
	log := s.logger.With(zap.String("session_id", sessionID), zap.String("personality", personality.Key))

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	// A failed read degrades to an empty history rather than failing the request.
	start := time.Now()
	history, err := s.store.ListTurns(ctx, sessionID, s.cfg.HistoryFetchLimit)
	s.metrics.ObserveStore("list_turns", start, err)
	if err != nil {
		log.Warn("history unavailable, continuing without memory", zap.Error(err))
		history = nil
	}

	profile := conversation.ExtractProfile(history)
	if profile.HasName() {
		s.metrics.ProfileNamesDetected.Inc()
	}

	messages, err := conversation.BuildMessages(profile, history, composeMessage(in, s.cfg.MessageCharBound), conversation.BuildOptions{
		SystemTemplate: personality.Template,
		HistoryWindow:  s.cfg.HistoryWindow,
		CharBound:      s.cfg.MessageCharBound,
		SummaryTurns:   s.cfg.SummaryTurns,
		Now:            s.now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}
	messages = conversation.LimitOutbound(messages, s.cfg.OutboundMessageCap)
	s.metrics.PromptMessages.Observe(float64(len(messages)))

	completion, err := s.complete(ctx, messages)
	if err != nil {
		log.Error("completion failed", zap.Int("messages", len(messages)), zap.Error(err))
		return nil, err
	}

	result := &ChatResult{
		Reply:       completion.Content,
		SessionID:   sessionID,
		UserName:    profile.UserName,
		Personality: personality.Key,
	}

	start = time.Now()
	_, err = s.store.AppendTurn(ctx, store.CreateTurnParams{
		SessionID:   sessionID,
		UserMessage: conversation.Truncate(storedMessage(in), conversation.MaxUserMessageLength),
		BotReply:    conversation.Truncate(completion.Content, conversation.MaxBotReplyLength),
		UserName:    conversation.Truncate(profile.UserName, conversation.MaxUserNameLength),
		Personality: personality.Key,
	})
	s.metrics.ObserveStore("append_turn", start, err)
	if err != nil {
		log.Error("failed to persist turn", zap.Bool("require_durable_write", s.cfg.RequireDurableWrite), zap.Error(err))
		if s.cfg.RequireDurableWrite {
			s.metrics.ChatRequestsTotal.WithLabelValues(outcomeStoreWrite).Inc()
			return nil, fmt.Errorf("%w: %v", ErrStoreWrite, err)
		}
	} else {
		result.Persisted = true
	}

	s.tracker.Touch(sessionID, personality.Key)
	s.metrics.ActiveSessions.Set(float64(s.tracker.Count()))
	s.metrics.ChatRequestsTotal.WithLabelValues(outcomeOK).Inc()

	log.Info("chat completed",
		zap.Int("history_turns", len(history)),
		zap.Int("prompt_messages", len(messages)),
		zap.Bool("persisted", result.Persisted),
	)
	return result, nil
}

func (s *ChatService) complete(ctx context.Context, messages []conversation.PromptMessage) (*groq.Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.CompletionTimeout)
	defer cancel()

	start := time.Now()
	completion, err := s.provider.Complete(ctx, messages)
	s.metrics.CompletionDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, groq.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
			s.metrics.ChatRequestsTotal.WithLabelValues(outcomeProviderTimeout).Inc()
			return nil, fmt.Errorf("%w: %v", ErrProviderTimeout, err)
		}
		s.metrics.ChatRequestsTotal.WithLabelValues(outcomeProviderError).Inc()
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	s.metrics.CompletionTokens.WithLabelValues("input").Add(float64(completion.InputTokens))
	s.metrics.CompletionTokens.WithLabelValues("output").Add(float64(completion.OutputTokens))
	return completion, nil
}

// composeMessage is the text the model sees for the current turn, with any
// attachment prepended. The attachment body is cut to whatever charBound leaves
// after the header and the question, so the question is never truncated away.
func composeMessage(in ChatInput, charBound int) string {
	if in.Attachment == nil {
		return in.Message
	}
	header := fmt.Sprintf("[Attached file: %s]\n", in.Attachment.Filename)
	suffix := ""
	if in.Message != "" {
		suffix = "\n\n" + in.Message
	}
	budget := charBound - utf8.RuneCountInString(header) - utf8.RuneCountInString(suffix)
	return header + conversation.Truncate(in.Attachment.Text, budget) + suffix
}

// storedMessage is the text persisted for the turn. Attachment bodies are not
// stored so they are not replayed on every later request.
func storedMessage(in ChatInput) string {
	if in.Attachment == nil {
		return in.Message
	}
	if in.Message == "" {
		return fmt.Sprintf("[Attached file: %s]", in.Attachment.Filename)
	}
	return fmt.Sprintf("[Attached file: %s] %s", in.Attachment.Filename, in.Message)
}

// History returns up to limit most recent turns of a session.
func (s *ChatService) History(ctx context.Context, sessionID string, limit int) (string, []models.Turn, error) {
	sessionID = NormalizeSessionID(sessionID)

	start := time.Now()
	turns, err := s.store.ListTurns(ctx, sessionID, limit)
	s.metrics.ObserveStore("list_turns", start, err)
	if err != nil {
		s.logger.Error("history fetch failed", zap.String("session_id", sessionID), zap.Error(err))
		return sessionID, nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if turns == nil {
		turns = []models.Turn{}
	}
	return sessionID, turns, nil
}

// Clear deletes a session's transcript. A store failure is reported in the
// result rather than as an error; the in-memory session is dropped either way.
func (s *ChatService) Clear(ctx context.Context, sessionID string) *ClearResult {
	sessionID = NormalizeSessionID(sessionID)
	result := &ClearResult{SessionID: sessionID}

	unlock := s.locks.Lock(sessionID)
	defer unlock()

	start := time.Now()
	deleted, err := s.store.DeleteSession(ctx, sessionID)
	s.metrics.ObserveStore("delete_session", start, err)
	if err != nil {
		s.logger.Error("failed to clear session", zap.String("session_id", sessionID), zap.Error(err))
	} else {
		result.DatabaseCleared = true
		result.DeletedTurns = deleted
	}

	s.tracker.Forget(sessionID)
	s.metrics.ActiveSessions.Set(float64(s.tracker.Count()))
	return result
}

// Stats returns transcript totals.
func (s *ChatService) Stats(ctx context.Context) (*models.TranscriptStats, error) {
	start := time.Now()
	stats, err := s.store.Stats(ctx)
	s.metrics.ObserveStore("stats", start, err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return stats, nil
}

// CheckStore verifies the transcript store is reachable.
func (s *ChatService) CheckStore(ctx context.Context) error {
	start := time.Now()
	err := s.store.Ping(ctx)
	s.metrics.ObserveStore("ping", start, err)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Sessions lists sessions active within the tracker window.
func (s *ChatService) Sessions() []models.SessionInfo {
	return s.tracker.Sessions()
}

// Health reports process-level status without touching the store.
func (s *ChatService) Health() models.HealthResponse {
	return models.HealthResponse{
		Status:         "healthy",
		Timestamp:      s.now().UTC(),
		Model:          s.provider.Model(),
		APIConfigured:  s.provider.Configured(),
		StoreBackend:   s.cfg.StoreBackend,
		ActiveSessions: s.tracker.Count(),
	}
}
