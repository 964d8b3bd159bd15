package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"mindmosaic-backend/internal/chat"
	"mindmosaic-backend/internal/clients"
	"mindmosaic-backend/internal/models"
	"mindmosaic-backend/internal/services"
)

var ErrClientGone = errors.New("client state no longer exists")

// Notifier pushes an update to every connection of one visitor.
type Notifier interface {
	Publish(ctx context.Context, clientID string, msg models.WSMessage) error
}

type Pool struct {
	queue       Queue
	generator   services.Generator
	clients     *clients.Registry
	notifier    Notifier
	workerCount int
	jobTimeout  time.Duration
	popTimeout  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPool(
	queue Queue,
	generator services.Generator,
	registry *clients.Registry,
	notifier Notifier,
	workerCount int,
) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		queue:       queue,
		generator:   generator,
		clients:     registry,
		notifier:    notifier,
		workerCount: workerCount,
		jobTimeout:  2 * time.Minute,
		popTimeout:  5 * time.Second,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	log.Printf("[worker] started %d goroutines", p.workerCount)
}

// Stop waits for in-flight jobs to finish. A queue that can be closed is
// closed first and the workers process what it still buffers before exiting.
func (p *Pool) Stop() {
	if q, ok := p.queue.(interface{ Close() }); ok {
		q.Close()
		p.wg.Wait()
		p.cancel()
		return
	}
	p.cancel()
	p.wg.Wait()
}

// Submit enqueues a generative job for a visitor.
func (p *Pool) Submit(ctx context.Context, jobType, clientID, referenceID, input string) (*models.Job, error) {
	job := models.Job{
		ID:          uuid.New(),
		Type:        jobType,
		ClientID:    clientID,
		ReferenceID: referenceID,
		Input:       input,
		CreatedAt:   time.Now().UTC(),
	}
	if err := p.queue.Push(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to enqueue %s job: %w", jobType, err)
	}
	return &job, nil
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			log.Printf("[worker] %d shutting down", id)
			return
		default:
		}

		job, err := p.queue.Pop(p.ctx, p.popTimeout)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) {
				return
			}
			if p.ctx.Err() == nil {
				log.Printf("[worker] %d: pop failed: %v", id, err)
				time.Sleep(time.Second)
			}
			continue
		}
		if job == nil {
			continue
		}

		p.run(id, job)
	}
}

func (p *Pool) run(id int, job *models.Job) {
	ctx, cancel := context.WithTimeout(context.Background(), p.jobTimeout)
	defer cancel()

	jobID := job.ID.String()
	locked, err := p.queue.Lock(ctx, jobID)
	if err != nil || !locked {
		return
	}
	defer p.queue.Unlock(ctx, jobID)

	log.Printf("[worker] %d: processing job %s (type: %s)", id, job.ID, job.Type)

	if err := p.Process(ctx, job); err != nil {
		log.Printf("[worker] job %s failed: %v", job.ID, err)
		return
	}
	log.Printf("[worker] job %s completed", job.ID)
}

// Process executes one job and pushes its result to the visitor. Generation
// failures are already folded into the flow state, so the only errors here are
// a missing visitor or an unknown job type.
func (p *Pool) Process(ctx context.Context, job *models.Job) error {
	state, ok := p.clients.Lookup(job.ClientID)
	if !ok {
		return ErrClientGone
	}

	switch job.Type {
	case models.JobTypeChatReply:
		return p.processChatReply(ctx, job, state)
	case models.JobTypeAssessment:
		return p.processAssessment(ctx, job, state)
	default:
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
}

func (p *Pool) processChatReply(ctx context.Context, job *models.Job, state *clients.State) error {
	msg, err := state.Chat.Reply(ctx, p.generator, chat.Pending{
		PlaceholderID: job.ReferenceID,
		UserText:      job.Input,
	})
	if err != nil {
		return err
	}

	autoScroll, showJump := state.Viewport.OnLogChange()
	p.publish(ctx, job.ClientID, models.WSMessage{
		Type: models.WSChatMessageUpdated,
		Payload: models.ChatMessageUpdated{
			Message:    msg,
			AutoScroll: autoScroll,
			ShowJump:   showJump,
		},
	})
	return nil
}

func (p *Pool) processAssessment(ctx context.Context, job *models.Job, state *clients.State) error {
	if err := state.Assessment.Run(ctx, p.generator); err != nil {
		return err
	}

	snap := state.Assessment.Snapshot()
	p.publish(ctx, job.ClientID, models.WSMessage{
		Type: models.WSAssessmentCompleted,
		Payload: models.AssessmentCompleted{
			Suggestions: snap.Suggestions,
			Error:       snap.Error,
		},
	})
	return nil
}

func (p *Pool) publish(ctx context.Context, clientID string, msg models.WSMessage) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.Publish(ctx, clientID, msg); err != nil {
		log.Printf("[worker] failed to publish %s to %s: %v", msg.Type, clientID, err)
	}
}
