package agent

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"swapsignal/internal/decision"
	"swapsignal/internal/gateway/thegraph"
	"swapsignal/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) Extract(ctx context.Context, text string) (decision.TradeIntent, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(decision.TradeIntent), args.Error(1)
}

type MockSwaps struct {
	mock.Mock
}

func (m *MockSwaps) FetchSwaps(ctx context.Context, q thegraph.SwapQuery) ([]market.NormalizedSwapEvent, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]market.NormalizedSwapEvent), args.Error(1)
}

type MockRecommender struct {
	mock.Mock
}

func (m *MockRecommender) Recommend(ctx context.Context, intent decision.TradeIntent, data []market.NormalizedSwapEvent) (decision.OrderRecommendation, error) {
	args := m.Called(ctx, intent, data)
	return args.Get(0).(decision.OrderRecommendation), args.Error(1)
}

type recordingOutbox struct {
	mu    sync.Mutex
	order []string
	acks  []ChatAcknowledgement
	msgs  []ChatMessage
}

func (o *recordingOutbox) SendAcknowledgement(_ context.Context, _ string, ack ChatAcknowledgement) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.order = append(o.order, "ack")
	o.acks = append(o.acks, ack)
	return nil
}

func (o *recordingOutbox) SendMessage(_ context.Context, _ string, msg ChatMessage) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.order = append(o.order, "msg")
	o.msgs = append(o.msgs, msg)
	return nil
}

type sessionObserver struct{ outcomes []string }

func (o *sessionObserver) ObserveSession(outcome string, _ time.Duration) {
	o.outcomes = append(o.outcomes, outcome)
}

var fixedNow = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newSession(ex *MockExtractor, sw *MockSwaps, rc *MockRecommender) (*Session, *sessionObserver) {
	obs := &sessionObserver{}
	return &Session{
		Extractor:   ex,
		Swaps:       sw,
		Recommender: rc,
		Config: SessionConfig{
			Network:        "matic",
			DefaultPool:    "0xdefault",
			WindowHours:    24,
			BucketMinutes:  5,
			Limit:          100,
			OnGatewayError: OnGatewayErrorReply,
		},
		Observer: obs,
		Now:      func() time.Time { return fixedNow },
	}, obs
}

func textMessage(id string, parts ...string) ChatMessage {
	msg := ChatMessage{Timestamp: fixedNow, MsgID: id}
	for _, p := range parts {
		msg.Content = append(msg.Content, Content{Type: ContentText, Text: p})
	}
	return msg
}

func replyText(t *testing.T, out *recordingOutbox) string {
	t.Helper()
	require.Len(t, out.msgs, 1)
	msg := out.msgs[0]
	require.Len(t, msg.Content, 2)
	assert.Equal(t, ContentEndSession, msg.Content[1].Type)
	assert.NotEmpty(t, msg.MsgID)
	return msg.Content[0].Text
}

var usdtWeth = decision.TradeIntent{MakerToken: "USDT", TakerToken: "WETH", MakerMaxAmount: 10, MaxExpiry: 45}

func TestSession_FullPipeline(t *testing.T) {
	ex, sw, rc := new(MockExtractor), new(MockSwaps), new(MockRecommender)
	events := []market.NormalizedSwapEvent{{Timestamp: 1}}
	ex.On("Extract", mock.Anything, "swap 10 USDT for WETH").Return(usdtWeth, nil).Once()
	sw.On("FetchSwaps", mock.Anything, thegraph.SwapQuery{
		Pool: "0xdefault", Network: "matic",
		StartTime: fixedNow.Unix() - 24*3600, EndTime: fixedNow.Unix(),
		BucketMinutes: 5, Limit: 100,
	}).Return(events, nil).Once()
	rc.On("Recommend", mock.Anything, usdtWeth, events).
		Return(decision.OrderRecommendation{Maker: "USDT", Taker: "WETH", MakerAmount: 9.5, Expiry: 12}, nil).Once()

	s, obs := newSession(ex, sw, rc)
	out := &recordingOutbox{}
	require.NoError(t, s.HandleMessage(context.Background(), "agent1q", textMessage("m-1", "swap 10 USDT ", "for WETH"), out))

	assert.Equal(t, []string{"ack", "msg"}, out.order)
	assert.Equal(t, "m-1", out.acks[0].AcknowledgedMsgID)
	reply := gjson.Parse(replyText(t, out))
	assert.Equal(t, "USDT", reply.Get("maker").String())
	assert.Equal(t, 9.5, reply.Get("maker_amount").Float())
	assert.Equal(t, int64(12), reply.Get("expiry").Int())
	assert.Equal(t, []string{OutcomeRecommended}, obs.outcomes)
	mock.AssertExpectationsForObjects(t, ex, sw, rc)
}

func TestSession_StructuredIntentSkipsExtraction(t *testing.T) {
	ex, sw, rc := new(MockExtractor), new(MockSwaps), new(MockRecommender)
	intent := usdtWeth
	intent.PoolAddress = "0xother"
	sw.On("FetchSwaps", mock.Anything, mock.MatchedBy(func(q thegraph.SwapQuery) bool { return q.Pool == "0xother" })).
		Return([]market.NormalizedSwapEvent{}, nil).Once()
	rc.On("Recommend", mock.Anything, intent, []market.NormalizedSwapEvent{}).
		Return(decision.OrderRecommendation{Maker: "USDT", Taker: "WETH"}, nil).Once()

	s, obs := newSession(ex, sw, rc)
	out := &recordingOutbox{}
	msg := ChatMessage{MsgID: "m-2", Content: []Content{{Type: ContentIntent, Intent: &intent}}}
	require.NoError(t, s.HandleMessage(context.Background(), "agent1q", msg, out))

	ex.AssertNotCalled(t, "Extract", mock.Anything, mock.Anything)
	assert.Equal(t, `{"maker":"USDT","taker":"WETH","maker_amount":0,"expiry":0}`, replyText(t, out))
	assert.Equal(t, []string{OutcomeNoTrade}, obs.outcomes)
}

func TestSession_NoopSkipsMarketAndModel(t *testing.T) {
	ex, sw, rc := new(MockExtractor), new(MockSwaps), new(MockRecommender)
	intent := usdtWeth
	intent.MakerMaxAmount = 0
	ex.On("Extract", mock.Anything, mock.Anything).Return(intent, nil).Once()

	s, obs := newSession(ex, sw, rc)
	out := &recordingOutbox{}
	require.NoError(t, s.HandleMessage(context.Background(), "agent1q", textMessage("m-3", "swap nothing"), out))

	assert.Equal(t, `{"maker":"USDT","taker":"WETH","maker_amount":0,"expiry":0}`, replyText(t, out))
	sw.AssertNotCalled(t, "FetchSwaps", mock.Anything, mock.Anything)
	rc.AssertNotCalled(t, "Recommend", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, []string{OutcomeNoop}, obs.outcomes)
}

func TestSession_IntentParseErrorRepliesWithError(t *testing.T) {
	ex, sw, rc := new(MockExtractor), new(MockSwaps), new(MockRecommender)
	ex.On("Extract", mock.Anything, mock.Anything).
		Return(decision.TradeIntent{}, &decision.IntentParseError{Raw: "??", Reason: errors.New("no JSON object in reply")}).Once()

	s, obs := newSession(ex, sw, rc)
	s.Config.OnGatewayError = OnGatewayErrorNoTrade
	out := &recordingOutbox{}
	require.NoError(t, s.HandleMessage(context.Background(), "agent1q", textMessage("m-4", "hello"), out))

	assert.Contains(t, replyText(t, out), "Error: intent reply rejected")
	sw.AssertNotCalled(t, "FetchSwaps", mock.Anything, mock.Anything)
	assert.Equal(t, []string{OutcomeParseError}, obs.outcomes)
}

func TestSession_GatewayErrorPolicies(t *testing.T) {
	for _, tc := range []struct {
		policy string
		want   string
	}{
		{OnGatewayErrorReply, "Error: "},
		{OnGatewayErrorNoTrade, `{"maker":"USDT","taker":"WETH","maker_amount":0,"expiry":0}`},
	} {
		ex, sw, rc := new(MockExtractor), new(MockSwaps), new(MockRecommender)
		ex.On("Extract", mock.Anything, mock.Anything).Return(usdtWeth, nil).Once()
		sw.On("FetchSwaps", mock.Anything, mock.Anything).
			Return(nil, &thegraph.MarketDataError{StatusCode: 500, Detail: "boom"}).Once()

		s, obs := newSession(ex, sw, rc)
		s.Config.OnGatewayError = tc.policy
		out := &recordingOutbox{}
		require.NoError(t, s.HandleMessage(context.Background(), "agent1q", textMessage("m-5", "swap"), out))

		assert.Contains(t, replyText(t, out), tc.want, tc.policy)
		rc.AssertNotCalled(t, "Recommend", mock.Anything, mock.Anything, mock.Anything)
		assert.Equal(t, []string{OutcomeGatewayErr}, obs.outcomes)
	}
}

func TestSession_ExtractionCallErrorAlwaysExplicit(t *testing.T) {
	ex, sw, rc := new(MockExtractor), new(MockSwaps), new(MockRecommender)
	ex.On("Extract", mock.Anything, mock.Anything).Return(decision.TradeIntent{}, errors.New("dial tcp: refused")).Once()

	s, _ := newSession(ex, sw, rc)
	s.Config.OnGatewayError = OnGatewayErrorNoTrade
	out := &recordingOutbox{}
	require.NoError(t, s.HandleMessage(context.Background(), "agent1q", textMessage("m-6", "swap"), out))
	assert.Equal(t, "Error: dial tcp: refused", replyText(t, out))
}

func TestSession_EmptyMessageStillReplies(t *testing.T) {
	ex, sw, rc := new(MockExtractor), new(MockSwaps), new(MockRecommender)
	s, obs := newSession(ex, sw, rc)
	out := &recordingOutbox{}
	msg := ChatMessage{MsgID: "m-7", Content: []Content{{Type: ContentStartSession}}}
	require.NoError(t, s.HandleMessage(context.Background(), "agent1q", msg, out))

	assert.Equal(t, []string{"ack", "msg"}, out.order)
	assert.Contains(t, replyText(t, out), "Error: message has no text")
	assert.Equal(t, []string{OutcomeInvalid}, obs.outcomes)
}

func TestSession_InvalidStructuredIntent(t *testing.T) {
	ex, sw, rc := new(MockExtractor), new(MockSwaps), new(MockRecommender)
	s, _ := newSession(ex, sw, rc)
	out := &recordingOutbox{}
	bad := decision.TradeIntent{MakerToken: "USDT", TakerToken: "WETH", MakerMaxAmount: 1, MaxExpiry: 0}
	msg := ChatMessage{MsgID: "m-8", Content: []Content{{Type: ContentIntent, Intent: &bad}}}
	require.NoError(t, s.HandleMessage(context.Background(), "agent1q", msg, out))
	assert.Contains(t, replyText(t, out), "maxExpiry must be > 0")
}

type failingOutbox struct{ recordingOutbox }

func (o *failingOutbox) SendMessage(context.Context, string, ChatMessage) error {
	return errors.New("peer gone")
}

func TestSession_DeliveryFailureReturned(t *testing.T) {
	ex, sw, rc := new(MockExtractor), new(MockSwaps), new(MockRecommender)
	s, _ := newSession(ex, sw, rc)
	err := s.HandleMessage(context.Background(), "agent1q", ChatMessage{MsgID: "m-9"}, &failingOutbox{})
	assert.ErrorContains(t, err, "peer gone")
}

type ackFailingOutbox struct{ recordingOutbox }

func (o *ackFailingOutbox) SendAcknowledgement(context.Context, string, ChatAcknowledgement) error {
	return errors.New("ack refused")
}

func TestSession_AckFailureStillReplies(t *testing.T) {
	ex, sw, rc := new(MockExtractor), new(MockSwaps), new(MockRecommender)
	ex.On("Extract", mock.Anything, "swap 10 USDT for WETH").Return(usdtWeth, nil).Once()
	sw.On("FetchSwaps", mock.Anything, mock.Anything).Return([]market.NormalizedSwapEvent{{Timestamp: 1}}, nil).Once()
	rc.On("Recommend", mock.Anything, usdtWeth, mock.Anything).
		Return(decision.OrderRecommendation{Maker: "USDT", Taker: "WETH", MakerAmount: 2, Expiry: 5}, nil).Once()
	s, _ := newSession(ex, sw, rc)
	out := &ackFailingOutbox{}
	msg := ChatMessage{MsgID: "m-10", Content: []Content{{Type: ContentText, Text: "swap 10 USDT for WETH"}}}

	err := s.HandleMessage(context.Background(), "agent1q", msg, out)
	assert.ErrorContains(t, err, "ack refused")
	assert.Equal(t, []string{"msg"}, out.order)
	assert.Equal(t, "USDT", gjson.Get(replyText(t, &out.recordingOutbox), "maker").String())
}

type deadOutbox struct{ ackFailingOutbox }

func (o *deadOutbox) SendMessage(context.Context, string, ChatMessage) error {
	return errors.New("peer gone")
}

func TestSession_AckAndReplyFailuresJoined(t *testing.T) {
	ex, sw, rc := new(MockExtractor), new(MockSwaps), new(MockRecommender)
	s, _ := newSession(ex, sw, rc)
	err := s.HandleMessage(context.Background(), "agent1q", ChatMessage{MsgID: "m-11"}, &deadOutbox{})
	assert.ErrorContains(t, err, "ack refused")
	assert.ErrorContains(t, err, "peer gone")
}
