package contextengine

import (
	"context"
	"fmt"

	"github.com/meetingmesh/meetingmesh/core"
	"github.com/meetingmesh/meetingmesh/logging"
)

// Summarizer condenses a message history into a compact text. The router
// satisfies this; tests plug in stubs.
type Summarizer interface {
	Summarize(ctx context.Context, msgs []core.Message) (string, error)
}

// Options configures the context engine.
type Options struct {
	// Store persists contexts and the audit message history. Required.
	Store core.ConversationStore
	// Summarizer backs the ai_summarization strategy. Optional; without one
	// the engine always uses window compression.
	Summarizer Summarizer
	// Classifier derives the conversational mode. Defaults to the keyword
	// classifier.
	Classifier Classifier
	// Logger defaults to NoOp if nil.
	Logger logging.Logger
	// CompressionThreshold is the live-window fill fraction that triggers
	// compression on append. Defaults to 0.7.
	CompressionThreshold float64
	// MaxContextTokens is the live-window token budget. Defaults to 4000.
	MaxContextTokens int
}

// Engine maintains a bounded, queryable view of conversation history and
// derives workflow-relevant signals from it. All mutating methods persist the
// updated context before returning; the caller (façade) guarantees one
// in-flight mutation per conversation.
type Engine struct {
	store      core.ConversationStore
	summarizer Summarizer
	classifier Classifier
	logger     logging.Logger
	threshold  float64
	maxTokens  int
}

// New creates a context engine.
func New(optFns ...func(o *Options)) (*Engine, error) {
	opts := Options{
		Classifier:           NewKeywordClassifier(),
		Logger:               logging.NoOpLogger{},
		CompressionThreshold: 0.7,
		MaxContextTokens:     4000,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("contextengine: store is required")
	}
	return &Engine{
		store:      opts.Store,
		summarizer: opts.Summarizer,
		classifier: opts.Classifier,
		logger:     opts.Logger,
		threshold:  opts.CompressionThreshold,
		maxTokens:  opts.MaxContextTokens,
	}, nil
}

// Load returns the stored context for the conversation, creating an empty one
// on first contact.
func (e *Engine) Load(ctx context.Context, conversationID string) (*core.ConversationContext, error) {
	convCtx, err := e.store.GetContext(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("contextengine: load %s: %w", conversationID, err)
	}
	if convCtx == nil {
		convCtx = core.NewConversationContext(conversationID)
		if err := e.store.PutContext(ctx, conversationID, convCtx); err != nil {
			return nil, fmt.Errorf("contextengine: create %s: %w", conversationID, err)
		}
	}
	return convCtx, nil
}

// AddMessage appends a message to the live window and the audit history,
// re-evaluates the mode and compresses the window if the token estimate
// exceeds threshold × budget. The updated context is persisted.
func (e *Engine) AddMessage(ctx context.Context, convCtx *core.ConversationContext, msg core.Message) error {
	convCtx.Messages = append(convCtx.Messages, msg)
	convCtx.Updated = msg.Timestamp

	if err := e.store.AppendMessage(ctx, convCtx.ConversationID, msg); err != nil {
		return fmt.Errorf("contextengine: append message: %w", err)
	}

	convCtx.Mode = e.classifier.Classify(convCtx)

	if float64(convCtx.TokenCount()) > e.threshold*float64(e.maxTokens) {
		e.compressWindow(convCtx)
	}

	if err := e.store.PutContext(ctx, convCtx.ConversationID, convCtx); err != nil {
		return fmt.Errorf("contextengine: persist context: %w", err)
	}
	return nil
}

// DetectModeTransition re-runs the classifier and applies the result.
func (e *Engine) DetectModeTransition(convCtx *core.ConversationContext) core.Mode {
	convCtx.Mode = e.classifier.Classify(convCtx)
	return convCtx.Mode
}

// UpdateMeetingData merges partial meeting fields into the draft (last write
// wins per field), recomputes timeCollectionComplete and clears any cached
// availability result when the time window changed. Persists the context.
func (e *Engine) UpdateMeetingData(ctx context.Context, convCtx *core.ConversationContext, patch core.DraftPatch) error {
	if convCtx.MeetingDraft == nil {
		convCtx.MeetingDraft = core.NewMeetingDraft()
	}
	convCtx.MeetingDraft = core.MergeDraft(convCtx.MeetingDraft, patch)
	convCtx.TimeCollectionComplete = convCtx.MeetingDraft.TimeCollectionComplete()
	if patch.TouchesTime() {
		convCtx.AvailabilityChecked = false
	}

	if err := e.store.PutContext(ctx, convCtx.ConversationID, convCtx); err != nil {
		return fmt.Errorf("contextengine: persist draft update: %w", err)
	}
	return nil
}

// compressWindow trims the live window in place and bumps the compression
// level. The full history stays in the store; only which messages are kept
// changes, never their order.
func (e *Engine) compressWindow(convCtx *core.ConversationContext) {
	before := len(convCtx.Messages)
	k := windowSize(convCtx.CompressionLevel, convCtx.TokenCount(), e.maxTokens)
	kept := windowMessages(convCtx.Messages, k)
	if len(kept) == before {
		return
	}
	convCtx.Messages = kept
	convCtx.CompressionLevel++
	e.logger.Debug("compressed live window",
		"conversation_id", convCtx.ConversationID,
		"kept", len(kept), "dropped", before-len(kept),
		"compression_level", convCtx.CompressionLevel)
}

// GetCompressedContext returns a compact textual context plus metrics without
// mutating the live window. The strategy actually applied is reported in the
// result; callers must never assume it equals the requested one, since the
// summarization path degrades silently to simple on backend failure.
func (e *Engine) GetCompressedContext(ctx context.Context, convCtx *core.ConversationContext, strategy Strategy) Compressed {
	originalTokens := convCtx.TokenCount()

	effective := strategy
	if strategy == StrategyHybrid {
		switch {
		case len(convCtx.Messages) <= 5 || originalTokens <= 500:
			effective = StrategySimple
		case originalTokens > 2000:
			effective = StrategyAISummarization
		default:
			effective = StrategySimple
		}
	}

	if effective == StrategyAISummarization {
		if compressed, ok := e.summarize(ctx, convCtx, originalTokens); ok {
			return compressed
		}
		// Backend failure: the context keeps the conversation moving, so fall
		// back rather than propagate.
		effective = StrategySimple
	}

	k := windowSize(convCtx.CompressionLevel, originalTokens, e.maxTokens)
	kept := windowMessages(convCtx.Messages, k)
	text := renderMessages(kept)
	return newCompressed(text, StrategySimple, originalTokens)
}

func (e *Engine) summarize(ctx context.Context, convCtx *core.ConversationContext, originalTokens int) (Compressed, bool) {
	if e.summarizer == nil {
		return Compressed{}, false
	}
	summary, err := e.summarizer.Summarize(ctx, convCtx.Messages)
	if err != nil || summary == "" {
		if err != nil {
			e.logger.Warn("summarization failed, falling back to simple",
				"conversation_id", convCtx.ConversationID, "error", err.Error())
		}
		return Compressed{}, false
	}

	// Splice the summary with the last two raw messages so the immediate
	// exchange survives verbatim.
	tail := convCtx.RecentMessages(2)
	text := "Conversation summary:\n" + summary + "\n\nRecent messages:\n" + renderMessages(tail)

	compressed := newCompressed(text, StrategyAISummarization, originalTokens)
	full := renderMessages(convCtx.Messages)
	compressed.KeyPoints = extractKeyPoints(summary)
	compressed.Participants = extractParticipants(full)
	compressed.TimeReferences = extractTimeReferences(full)
	return compressed, true
}

func newCompressed(text string, strategy Strategy, originalTokens int) Compressed {
	compressedTokens := core.EstimateTokens(text)
	ratio := 1.0
	if originalTokens > 0 {
		ratio = float64(compressedTokens) / float64(originalTokens)
	}
	return Compressed{
		Text:             text,
		Strategy:         strategy,
		OriginalTokens:   originalTokens,
		CompressedTokens: compressedTokens,
		Ratio:            ratio,
	}
}
