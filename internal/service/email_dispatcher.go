package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/exdb-api/internal/models"
	"github.com/noah-isme/exdb-api/internal/observability"
	"github.com/noah-isme/exdb-api/internal/repository"
)

// CreateResult reports the outcome of registering email tasks.
type CreateResult struct {
	Created int
	Total   int
}

// SendResult reports the outcome of running the registered email tasks.
type SendResult struct {
	Tasks  int
	Emails int
}

// EmailDispatcher registers and runs the periodic email tasks.
type EmailDispatcher interface {
	Create(ctx context.Context) (CreateResult, error)
	Send(ctx context.Context) (SendResult, error)
	Sync(ctx context.Context) (int, error)
}

type emailDispatcher struct {
	tasks     repository.EmailTaskRepository
	users     repository.UserRepository
	addresses AddressBook
	registry  []EmailTaskRunner
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewEmailDispatcher constructs the dispatcher over a task registry.
func NewEmailDispatcher(tasks repository.EmailTaskRepository, users repository.UserRepository, addresses AddressBook, registry []EmailTaskRunner, logger zerolog.Logger) EmailDispatcher {
	return &emailDispatcher{
		tasks:     tasks,
		users:     users,
		addresses: addresses,
		registry:  registry,
		logger:    logger.With().Str("component", "email_dispatcher").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/exdb-api/internal/service/email"),
	}
}

// Create stores one EmailTask row per registry entry not yet registered.
func (d *emailDispatcher) Create(ctx context.Context) (CreateResult, error) {
	existing, err := d.tasks.List(ctx)
	if err != nil {
		return CreateResult{}, err
	}

	registered := make(map[string]bool, len(existing))
	for _, task := range existing {
		registered[task.Package] = true
	}

	missing := make([]models.EmailTask, 0)
	for _, runner := range d.registry {
		if registered[runner.Package()] {
			continue
		}
		missing = append(missing, models.EmailTask{Name: runner.Name(), Package: runner.Package()})
	}

	if len(missing) > 0 {
		if err := d.tasks.CreateBatch(ctx, missing); err != nil {
			return CreateResult{}, err
		}
	}

	d.logger.Info().Int("created", len(missing)).Int("total", len(d.registry)).Msg("email tasks registered")
	return CreateResult{Created: len(missing), Total: len(d.registry)}, nil
}

// Send runs every registered task in registration order. A failing task aborts
// the run; state already written by earlier items stays in place.
func (d *emailDispatcher) Send(ctx context.Context) (SendResult, error) {
	rows, err := d.tasks.List(ctx)
	if err != nil {
		return SendResult{}, err
	}

	runners := make(map[string]EmailTaskRunner, len(d.registry))
	for _, runner := range d.registry {
		runners[runner.Package()] = runner
	}

	result := SendResult{Tasks: len(rows)}
	for _, row := range rows {
		runner, ok := runners[row.Package]
		if !ok {
			d.logger.Warn().Str("package", row.Package).Msg("registered email task has no implementation")
			continue
		}

		sent, err := d.run(ctx, runner)
		result.Emails += sent
		if err != nil {
			return result, err
		}
	}

	return result, nil
}

func (d *emailDispatcher) run(ctx context.Context, runner EmailTaskRunner) (int, error) {
	ctx, span := d.tracer.Start(ctx, "email.task")
	span.SetAttributes(attribute.String("email.task", runner.Package()))
	defer span.End()

	sent, err := runner.Send(ctx)
	if sent > 0 {
		observability.EmailsSent().WithLabelValues(runner.Package()).Add(float64(sent))
	}
	span.SetAttributes(attribute.Int("email.sent", sent))
	if err != nil {
		observability.EmailTaskFailures().WithLabelValues(runner.Package()).Inc()
		failSpan(span, err, "task_failed")
		d.logger.Error().Err(err).Str("task", runner.Package()).Int("sent", sent).Msg("email task failed")
		return sent, fmt.Errorf("%s: %w", runner.Name(), err)
	}
	return sent, nil
}

// Sync refreshes the cached recipient addresses from the active users.
func (d *emailDispatcher) Sync(ctx context.Context) (int, error) {
	users, err := d.users.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	return d.addresses.Sync(ctx, users)
}
