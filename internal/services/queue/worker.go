package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/phambaophuc/visionprep/internal/models"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

func (q *QueueService) StartWorker(ctx context.Context, workerID int) error {
	if err := q.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set prefetch: %w", err)
	}

	msgs, err := q.channel.Consume(
		q.queueName,                        // queue
		fmt.Sprintf("worker-%d", workerID), // consumer
		false,                              // auto-ack
		false,                              // exclusive
		false,                              // no-local
		false,                              // no-wait
		nil,                                // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	q.logger.Info("Worker started", zap.Int("worker_id", workerID))

	go func() {
		for {
			select {
			case <-ctx.Done():
				q.logger.Info("Worker stopping", zap.Int("worker_id", workerID))
				return
			case msg, ok := <-msgs:
				if !ok {
					q.logger.Warn("Message channel closed", zap.Int("worker_id", workerID))
					return
				}

				q.processMessage(ctx, msg, workerID)
			}
		}
	}()

	return nil
}

func (q *QueueService) processMessage(ctx context.Context, msg amqp.Delivery, workerID int) {
	var job models.GenerationJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		q.logger.Error("Failed to unmarshal job",
			zap.Error(err),
			zap.Int("worker_id", workerID))
		msg.Nack(false, false) // Don't requeue malformed messages
		return
	}

	q.logger.Info("Processing job",
		zap.String("job_id", job.ID),
		zap.Int("worker_id", workerID))

	job.Status = models.StatusProcessing
	q.storeJob(ctx, &job)

	result := q.processJob(ctx, &job)
	job.Result = result
	if len(result.Items) == 0 && len(result.Failures) > 0 {
		job.Status = models.StatusFailed
		job.Error = fmt.Sprintf("all %d images failed", len(result.Failures))
		q.logger.Error("Job processing failed",
			zap.String("job_id", job.ID),
			zap.String("error", job.Error))
	} else {
		job.Status = models.StatusCompleted
		q.logger.Info("Job completed successfully",
			zap.String("job_id", job.ID),
			zap.Int("items", len(result.Items)),
			zap.Int("failures", len(result.Failures)))
	}

	if err := msg.Ack(false); err != nil {
		q.logger.Error("Failed to ack message",
			zap.String("job_id", job.ID),
			zap.Error(err))
	}

	q.counters.record(&job)
	q.storeJob(ctx, &job)
}

func (q *QueueService) storeJob(ctx context.Context, job *models.GenerationJob) {
	job.UpdatedAt = time.Now()
	if err := q.jobs.SaveJob(ctx, job); err != nil {
		q.logger.Error("Failed to store job",
			zap.String("job_id", job.ID),
			zap.String("status", job.Status),
			zap.Error(err))
	}
}
