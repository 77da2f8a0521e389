package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/peng-yewang/YGMall/shared/events"
	"github.com/peng-yewang/YGMall/shared/logs"
	"github.com/peng-yewang/YGMall/shared/rabbitmq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockOutboxEventRepository struct {
	mock.Mock
}

func (m *MockOutboxEventRepository) GetUnpublishedOutboxEvents(ctx context.Context, limit int32) ([]events.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]events.OutboxEvent), args.Error(1)
}

func (m *MockOutboxEventRepository) UpdateOutboxEventStatus(ctx context.Context, eventID, status string) error {
	args := m.Called(ctx, eventID, status)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, opts rabbitmq.PublishOptions) (rabbitmq.Confirmation, error) {
	args := m.Called(ctx, opts)
	return args.Get(0).(rabbitmq.Confirmation), args.Error(1)
}

func TestProcessEvents(t *testing.T) {
	testEvent := events.OutboxEvent{
		ID:        "test-event-id",
		EventName: events.OrderCreatedEventName,
		Payload:   []byte(`{"orderId":42}`),
	}
	expectedOpts := rabbitmq.PublishOptions{
		Exchange:     events.OrderExchangeName,
		ExchangeType: rabbitmq.ExchangeTopic,
		RoutingKey:   events.OrderCreatedRoutingKey,
		MessageID:    testEvent.ID,
		Body:         testEvent.Payload,
	}

	setup := func() (*MockOutboxEventRepository, *MockPublisher, *OutboxEventMessageRelayer) {
		mockRepo := new(MockOutboxEventRepository)
		mockPublisher := new(MockPublisher)
		relayer := NewOutboxEventMessageRelayer(logs.NewSlogLogger(), mockPublisher, mockRepo, 0, 10)
		mockRepo.On("GetUnpublishedOutboxEvents", mock.Anything, int32(10)).Return([]events.OutboxEvent{testEvent}, nil).Once()
		return mockRepo, mockPublisher, relayer
	}

	t.Run("AckMarksPublished", func(t *testing.T) {
		mockRepo, mockPublisher, relayer := setup()
		mockPublisher.On("Publish", mock.Anything, expectedOpts).Return(rabbitmq.Confirmation{Outcome: rabbitmq.OutcomeAck}, nil).Once()
		mockRepo.On("UpdateOutboxEventStatus", mock.Anything, testEvent.ID, events.OutboxStatusPublished).Return(nil).Once()

		err := relayer.processEvents(context.Background())

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
		mockPublisher.AssertExpectations(t)
	})

	t.Run("NackLeavesEventPending", func(t *testing.T) {
		mockRepo, mockPublisher, relayer := setup()
		mockPublisher.On("Publish", mock.Anything, expectedOpts).Return(rabbitmq.Confirmation{Outcome: rabbitmq.OutcomeNack}, nil).Once()

		err := relayer.processEvents(context.Background())

		assert.NoError(t, err)
		mockRepo.AssertNotCalled(t, "UpdateOutboxEventStatus", mock.Anything, mock.Anything, mock.Anything)
		mockPublisher.AssertExpectations(t)
	})

	t.Run("ReturnMarksUnroutable", func(t *testing.T) {
		mockRepo, mockPublisher, relayer := setup()
		returned := rabbitmq.Confirmation{Outcome: rabbitmq.OutcomeReturned, ReplyCode: 312, ReplyText: "NO_ROUTE"}
		mockPublisher.On("Publish", mock.Anything, expectedOpts).Return(returned, nil).Once()
		mockRepo.On("UpdateOutboxEventStatus", mock.Anything, testEvent.ID, events.OutboxStatusUnroutable).Return(nil).Once()

		err := relayer.processEvents(context.Background())

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("PublisherError", func(t *testing.T) {
		mockRepo, mockPublisher, relayer := setup()
		mockPublisher.On("Publish", mock.Anything, expectedOpts).Return(rabbitmq.Confirmation{}, errors.New("publish error")).Once()

		err := relayer.processEvents(context.Background())

		assert.NoError(t, err)
		mockRepo.AssertNotCalled(t, "UpdateOutboxEventStatus", mock.Anything, mock.Anything, mock.Anything)
		mockPublisher.AssertExpectations(t)
	})

	t.Run("UpdateStatusError", func(t *testing.T) {
		mockRepo, mockPublisher, relayer := setup()
		mockPublisher.On("Publish", mock.Anything, expectedOpts).Return(rabbitmq.Confirmation{Outcome: rabbitmq.OutcomeAck}, nil).Once()
		mockRepo.On("UpdateOutboxEventStatus", mock.Anything, testEvent.ID, events.OutboxStatusPublished).Return(errors.New("update status error")).Once()

		err := relayer.processEvents(context.Background())

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("RepositoryError", func(t *testing.T) {
		mockRepo := new(MockOutboxEventRepository)
		relayer := NewOutboxEventMessageRelayer(logs.NewSlogLogger(), new(MockPublisher), mockRepo, 0, 10)
		mockRepo.On("GetUnpublishedOutboxEvents", mock.Anything, int32(10)).Return([]events.OutboxEvent(nil), errors.New("db down")).Once()

		err := relayer.processEvents(context.Background())

		assert.Error(t, err)
	})

	t.Run("NoEvents", func(t *testing.T) {
		mockRepo := new(MockOutboxEventRepository)
		mockPublisher := new(MockPublisher)
		relayer := NewOutboxEventMessageRelayer(logs.NewSlogLogger(), mockPublisher, mockRepo, 0, 10)
		mockRepo.On("GetUnpublishedOutboxEvents", mock.Anything, int32(10)).Return([]events.OutboxEvent{}, nil).Once()

		err := relayer.processEvents(context.Background())

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
		mockPublisher.AssertExpectations(t)
	})
}

func TestSplitEventName(t *testing.T) {
	exchange, key := events.SplitEventName(events.PaySuccessEventName)
	assert.Equal(t, events.PayExchangeName, exchange)
	assert.Equal(t, events.PaySuccessRoutingKey, key)
}
