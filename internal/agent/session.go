package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"swapsignal/internal/decision"
	"swapsignal/internal/gateway/thegraph"
	"swapsignal/internal/logger"
	"swapsignal/internal/market"
	"swapsignal/internal/pkg/jsonutil"
)

// Gateway error policies.
const (
	OnGatewayErrorReply   = "error"
	OnGatewayErrorNoTrade = "no_trade"
)

// Session outcomes reported to Observer.
const (
	OutcomeRecommended = "recommended"
	OutcomeNoop        = "noop"
	OutcomeNoTrade     = "no_trade"
	OutcomeParseError  = "parse_error"
	OutcomeGatewayErr  = "gateway_error"
	OutcomeInvalid     = "invalid_request"
)

// SessionConfig holds the market query defaults and the gateway error policy.
type SessionConfig struct {
	Network       string
	DefaultPool   string
	WindowHours   int
	BucketMinutes int
	Limit         int
	// OnGatewayError is OnGatewayErrorReply or OnGatewayErrorNoTrade.
	OnGatewayError string
}

// Session answers each chat message with exactly one reply after acknowledging it.
// It holds no per-request state, so one Session serves concurrent requests.
type Session struct {
	Extractor   IntentExtractor
	Swaps       SwapSource
	Recommender OrderRecommender
	Config      SessionConfig
	Observer    Observer
	Now         func() time.Time
}

func (s *Session) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// HandleMessage runs acknowledgement, intent, market data and recommendation in order, then
// sends the reply. A failed acknowledgement does not stop the reply. The returned error only
// reports delivery failures of the outbox.
func (s *Session) HandleMessage(ctx context.Context, sender string, msg ChatMessage, out Outbox) error {
	start := s.now()
	var ackErr error
	if err := out.SendAcknowledgement(ctx, sender, ChatAcknowledgement{Timestamp: start.UTC(), AcknowledgedMsgID: msg.MsgID}); err != nil {
		ackErr = fmt.Errorf("send acknowledgement: %w", err)
		logger.Warnf("session %s: %v, still replying", sender, ackErr)
	}
	text, outcome := s.process(ctx, sender, msg)
	if s.Observer != nil {
		s.Observer.ObserveSession(outcome, s.now().Sub(start))
	}
	var replyErr error
	if err := out.SendMessage(ctx, sender, NewReply(s.now(), text)); err != nil {
		replyErr = fmt.Errorf("send reply: %w", err)
	}
	return errors.Join(ackErr, replyErr)
}

func (s *Session) process(ctx context.Context, sender string, msg ChatMessage) (string, string) {
	intent, ok := msg.StructuredIntent()
	if ok {
		if err := intent.Validate(); err != nil {
			logger.Warnf("session %s: structured intent rejected: %v", sender, err)
			return errorText(err), OutcomeInvalid
		}
	} else {
		text := strings.TrimSpace(msg.Text())
		if text == "" {
			logger.Warnf("session %s: message %s has no text", sender, msg.MsgID)
			return errorText(errors.New("message has no text")), OutcomeInvalid
		}
		var err error
		if intent, err = s.Extractor.Extract(ctx, text); err != nil {
			return s.failure(sender, nil, err)
		}
	}

	if intent.IsNoop() {
		logger.Infof("session %s: nothing offered, skipping market data", sender)
		return recommendationText(decision.NoTrade(intent)), OutcomeNoop
	}

	events, err := s.Swaps.FetchSwaps(ctx, s.query(intent))
	if err != nil {
		return s.failure(sender, &intent, err)
	}
	logger.Infof("session %s: %d swap buckets fetched", sender, len(events))

	rec, err := s.Recommender.Recommend(ctx, intent, events)
	if err != nil {
		return s.failure(sender, &intent, err)
	}
	if rec.IsNoTrade() {
		return recommendationText(rec), OutcomeNoTrade
	}
	return recommendationText(rec), OutcomeRecommended
}

func (s *Session) query(intent decision.TradeIntent) thegraph.SwapQuery {
	pool := strings.TrimSpace(intent.PoolAddress)
	if pool == "" {
		pool = s.Config.DefaultPool
	}
	end := s.now().Unix()
	var start int64
	if s.Config.WindowHours > 0 {
		start = end - int64(s.Config.WindowHours)*3600
	}
	return thegraph.SwapQuery{
		Pool:          pool,
		Network:       s.Config.Network,
		StartTime:     start,
		EndTime:       end,
		BucketMinutes: s.Config.BucketMinutes,
		Limit:         s.Config.Limit,
	}
}

// failure maps a pipeline error to reply text. Parse and request errors always produce an
// explicit error; gateway errors follow the configured policy when the intent is known.
func (s *Session) failure(sender string, intent *decision.TradeIntent, err error) (string, string) {
	var (
		intentErr *decision.IntentParseError
		recErr    *decision.RecommendationParseError
		cfgErr    *market.InvalidConfigurationError
	)
	switch {
	case errors.As(err, &intentErr), errors.As(err, &recErr):
		logger.Warnf("session %s: %v", sender, err)
		return errorText(err), OutcomeParseError
	case errors.As(err, &cfgErr):
		logger.Errorf("session %s: %v", sender, err)
		return errorText(err), OutcomeInvalid
	}
	logger.Errorf("session %s: gateway failure: %v", sender, err)
	if intent != nil && s.Config.OnGatewayError == OnGatewayErrorNoTrade {
		return recommendationText(decision.NoTrade(*intent)), OutcomeGatewayErr
	}
	return errorText(err), OutcomeGatewayErr
}

func errorText(err error) string {
	return "Error: " + err.Error()
}

func recommendationText(rec decision.OrderRecommendation) string {
	out, err := jsonutil.Compact(rec)
	if err != nil {
		return errorText(err)
	}
	return out
}
