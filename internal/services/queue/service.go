package queue

import (
	"context"
	"fmt"

	"github.com/phambaophuc/visionprep/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const defaultQueueName = "image_generation"

type QueueService struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	logger    *zap.Logger
	queueName string
	runner    BatchRunner
	jobs      JobStore
	counters  jobCounters
}

func NewQueueService(
	rabbitmqURL string,
	runner BatchRunner,
	jobs JobStore,
	logger *zap.Logger,
) (*QueueService, error) {
	conn, err := amqp.Dial(rabbitmqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = channel.QueueDeclare(
		defaultQueueName, // name
		true,             // durable
		false,            // delete when unused
		false,            // exclusive
		false,            // no-wait
		nil,              // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &QueueService{
		conn:      conn,
		channel:   channel,
		logger:    logger,
		queueName: defaultQueueName,
		runner:    runner,
		jobs:      jobs,
	}, nil
}

// GetJob returns the stored status of a job.
func (q *QueueService) GetJob(ctx context.Context, id string) (*models.GenerationJob, error) {
	return q.jobs.GetJob(ctx, id)
}

// Close closes the queue connection
func (q *QueueService) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		q.conn.Close()
	}
	return nil
}
