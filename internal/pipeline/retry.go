package pipeline

import (
	"context"

	"safetube-pipeline/internal/logger"
	"safetube-pipeline/internal/types"
)

// Controller is the single place a stage failure becomes ledger state plus a
// queue action. The consumed message is acknowledged separately by the caller;
// a requeue here is always a brand-new message.
type Controller struct {
	ledger     Ledger
	queue      Requeuer
	maxRetries int
	log        *logger.Logger
}

func NewController(l Ledger, q Requeuer, maxRetries int) *Controller {
	return &Controller{ledger: l, queue: q, maxRetries: maxRetries, log: logger.New()}
}

// HandleFailure routes one failed attempt: requeue with an incremented count
// while budget remains, otherwise dead-letter and mark permanently failed.
// Every write in here is secondary to the already-failed job; failures are
// logged and swallowed so the process can still exit with code 1.
func (c *Controller) HandleFailure(ctx context.Context, msg types.QueueMessage, cause error) {
	log := c.log.WithJob(msg.VideoID, msg.RetryCount)

	if err := c.ledger.UpsertStatus(ctx, msg.VideoID, types.StatusFailed, cause.Error(), msg.RetryCount); err != nil {
		log.WithError(err).Warn("failed to record failure in ledger")
	}

	if msg.RetryCount < c.maxRetries {
		next := msg
		next.RetryCount++
		log.WithField("next_retry_count", next.RetryCount).Info("requeueing job for retry")

		if err := c.queue.SendAttempt(ctx, next); err != nil {
			log.WithError(err).Error("failed to requeue job")
			return
		}
		if err := c.ledger.UpsertStatus(ctx, msg.VideoID, types.StatusRetrying, "", next.RetryCount); err != nil {
			log.WithError(err).Warn("failed to mark job retrying")
		}
		return
	}

	log.Info("retry budget exhausted, routing to dead-letter")
	if err := c.queue.SendDeadLetter(ctx, types.DeadLetterMessage{
		VideoID:           msg.VideoID,
		YouTubeLink:       msg.YouTubeLink,
		DynamoVideosTable: msg.DynamoVideosTable,
		FinalStatus:       types.StatusFailedPermanent,
	}); err != nil {
		log.WithError(err).Error("failed to send dead-letter message")
	}
	if err := c.ledger.UpsertStatus(ctx, msg.VideoID, types.StatusFailedPermanent, "", msg.RetryCount); err != nil {
		log.WithError(err).Warn("failed to mark job permanently failed")
	}
}
