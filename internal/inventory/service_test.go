package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/communityshop/go-inventory-service/internal/redisx"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore hands out fakeTx handles sharing one stock map and one
// processed-key set, so commits from an earlier message are visible to the
// next one.
type fakeStore struct {
	stock     map[string]int
	processed map[string]bool
	beginErr  error
	commitErr error
	txs       []*fakeTx
}

func newFakeStore(stock map[string]int) *fakeStore {
	if stock == nil {
		stock = map[string]int{}
	}
	return &fakeStore{stock: stock, processed: map[string]bool{}}
}

func (s *fakeStore) Begin(context.Context) (Tx, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	tx := &fakeTx{stock: s.stock, processed: s.processed, commitErr: s.commitErr}
	s.txs = append(s.txs, tx)
	return tx, nil
}

type fakePublisher struct {
	outcomes []Outcome
}

func (p *fakePublisher) Publish(out Outcome) { p.outcomes = append(p.outcomes, out) }

func newTestService(store Store) (*Service, *fakePublisher) {
	pub := &fakePublisher{}
	return &Service{
		Store: store,
		// unreachable address: the fast-path degrades to the processed table
		Redis:       redisx.New("127.0.0.1:1"),
		Publisher:   pub,
		ServiceName: "inventory-service-test",
	}, pub
}

func msg(topic string, offset int64, body string) kafkago.Message {
	return kafkago.Message{Topic: topic, Partition: 0, Offset: offset, Value: []byte(body)}
}

func TestHandleMessage_ProductCreated(t *testing.T) {
	store := newFakeStore(nil)
	svc, pub := newTestService(store)

	err := svc.HandleMessage(context.Background(), msg(TopicProductEvents, 1,
		`{"type":"ProductCreatedEvent","productId":"p3","sku":"S","name":"N","price":1.5,"initialQuantity":20}`))

	require.NoError(t, err)
	assert.Equal(t, 20, store.stock["p3"])
	require.Len(t, store.txs, 1)
	assert.True(t, store.txs[0].committed)
	assert.Empty(t, pub.outcomes, "ingestion publishes no outcome")
}

func TestHandleMessage_ProductCreated_AdditiveUpsert(t *testing.T) {
	store := newFakeStore(nil)
	svc, _ := newTestService(store)

	body := `{"type":"ProductCreatedEvent","productId":"p3","sku":"S","name":"N","price":1.5,"initialQuantity":20}`
	require.NoError(t, svc.HandleMessage(context.Background(), msg(TopicProductEvents, 1, body)))
	// same payload again at a new offset: a second creation, counted twice
	require.NoError(t, svc.HandleMessage(context.Background(), msg(TopicProductEvents, 2, body)))

	assert.Equal(t, 40, store.stock["p3"])
}

func TestHandleMessage_ProductCreated_ReplaySameOffset(t *testing.T) {
	store := newFakeStore(nil)
	svc, _ := newTestService(store)

	body := `{"type":"ProductCreatedEvent","productId":"p3","sku":"S","name":"N","price":1.5,"initialQuantity":20}`
	require.NoError(t, svc.HandleMessage(context.Background(), msg(TopicProductEvents, 7, body)))
	// redelivery of the exact same offset must not double-count
	require.NoError(t, svc.HandleMessage(context.Background(), msg(TopicProductEvents, 7, body)))

	assert.Equal(t, 20, store.stock["p3"])
	require.Len(t, store.txs, 2)
	assert.False(t, store.txs[1].committed)
}

func TestHandleMessage_Checkout_Reserved(t *testing.T) {
	store := newFakeStore(map[string]int{"p1": 10})
	svc, pub := newTestService(store)

	err := svc.HandleMessage(context.Background(), msg(TopicCheckoutEvents, 1,
		`{"type":"CheckoutInitiatedEvent","orderId":"o1","userId":"u1","items":[{"productId":"p1","quantity":5}]}`))

	require.NoError(t, err)
	assert.Equal(t, 5, store.stock["p1"])
	require.Len(t, store.txs, 1)
	assert.True(t, store.txs[0].committed)

	require.Len(t, pub.outcomes, 1)
	out := pub.outcomes[0]
	assert.True(t, out.Reserved)
	assert.Equal(t, "o1", out.OrderID)
	assert.Equal(t, "u1", out.UserID)
}

func TestHandleMessage_Checkout_Insufficient(t *testing.T) {
	store := newFakeStore(map[string]int{"p2": 2})
	svc, pub := newTestService(store)

	err := svc.HandleMessage(context.Background(), msg(TopicCheckoutEvents, 1,
		`{"type":"CheckoutInitiatedEvent","orderId":"o2","userId":"u2","items":[{"productId":"p2","quantity":5}]}`))

	require.NoError(t, err)
	assert.Equal(t, 2, store.stock["p2"])
	require.Len(t, store.txs, 1)
	assert.False(t, store.txs[0].committed)
	assert.True(t, store.txs[0].rolledBack)

	require.Len(t, pub.outcomes, 1)
	out := pub.outcomes[0]
	assert.False(t, out.Reserved)
	assert.Equal(t, ReasonInsufficient, out.Reason)
	assert.Equal(t, "o2", out.OrderID)
	assert.Equal(t, "u2", out.UserID)
}

func TestHandleMessage_Checkout_CommitFailure(t *testing.T) {
	store := newFakeStore(map[string]int{"p1": 10})
	store.commitErr = errors.New("deadline exceeded")
	svc, pub := newTestService(store)

	err := svc.HandleMessage(context.Background(), msg(TopicCheckoutEvents, 1,
		`{"type":"CheckoutInitiatedEvent","orderId":"o3","userId":"u3","items":[{"productId":"p1","quantity":5}]}`))

	require.NoError(t, err)
	require.Len(t, pub.outcomes, 1)
	out := pub.outcomes[0]
	assert.False(t, out.Reserved)
	assert.Contains(t, out.Reason, "failed to commit transaction")
	assert.Contains(t, out.Reason, "deadline exceeded")
}

func TestHandleMessage_Checkout_BeginFailure(t *testing.T) {
	store := newFakeStore(map[string]int{"p1": 10})
	store.beginErr = errors.New("pool exhausted")
	svc, pub := newTestService(store)

	err := svc.HandleMessage(context.Background(), msg(TopicCheckoutEvents, 1,
		`{"type":"CheckoutInitiatedEvent","orderId":"o4","userId":"u4","items":[{"productId":"p1","quantity":1}]}`))

	require.NoError(t, err)
	assert.Empty(t, pub.outcomes, "no transaction means no outcome")
	assert.Equal(t, 10, store.stock["p1"])
}

func TestHandleMessage_MalformedPayload(t *testing.T) {
	store := newFakeStore(map[string]int{"p1": 10})
	svc, pub := newTestService(store)

	err := svc.HandleMessage(context.Background(), msg(TopicCheckoutEvents, 1, `not json at all`))

	require.NoError(t, err)
	assert.Empty(t, store.txs)
	assert.Empty(t, pub.outcomes)
	assert.Equal(t, 10, store.stock["p1"])
}

func TestHandleMessage_UnrecognizedType(t *testing.T) {
	store := newFakeStore(map[string]int{"p1": 10})
	svc, pub := newTestService(store)

	err := svc.HandleMessage(context.Background(), msg(TopicCheckoutEvents, 1,
		`{"type":"OrderShippedEvent","orderId":"o5"}`))

	require.NoError(t, err)
	assert.Empty(t, store.txs)
	assert.Empty(t, pub.outcomes)
	assert.Equal(t, 10, store.stock["p1"])
}
