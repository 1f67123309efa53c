// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package parallel provides the worker pool used for batch certificate
// validation. Duplicate detection runs after the pool drains, so callers
// must collect every result before the batch is complete.
package parallel

import (
	"context"
	"sync"
	"time"

	"cert-scan/internal/cert"
	"cert-scan/internal/observability"
)

// jobTimeout bounds one certificate's processing, including any external
// provider calls.
const jobTimeout = 2 * time.Minute

// Job is one certificate file to validate.
type Job struct {
	JobID    string
	FilePath string
}

// Result carries one certificate's validation outcome. Error is set only
// for boundary failures the processor could not convert into a result.
type Result struct {
	JobID    string
	FilePath string
	Outcome  *cert.ValidationResult
	Error    error
	Duration time.Duration
}

// Processor validates a single certificate file.
type Processor func(ctx context.Context, filePath string) (*cert.ValidationResult, error)

// WorkerPool fans certificate jobs out to N workers.
type WorkerPool struct {
	workers   int
	jobs      chan *Job
	results   chan *Result
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	observer  *observability.Observer
	processor Processor
}

// NewWorkerPool creates a pool of the given size over a processor.
func NewWorkerPool(workers int, processor Processor, observer *observability.Observer) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		workers:   workers,
		jobs:      make(chan *Job, workers*2),
		results:   make(chan *Result, workers*2),
		ctx:       ctx,
		cancel:    cancel,
		observer:  observer,
		processor: processor,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

// CloseJobs signals that no further jobs will be submitted.
func (wp *WorkerPool) CloseJobs() {
	close(wp.jobs)
}

// Stop waits for in-flight jobs and closes the results channel.
func (wp *WorkerPool) Stop() {
	wp.wg.Wait()
	close(wp.results)
	wp.cancel()
}

// Submit adds a job to the queue, blocking when the queue is full.
func (wp *WorkerPool) Submit(job *Job) {
	select {
	case wp.jobs <- job:
	case <-wp.ctx.Done():
	}
}

// Results returns the results channel.
func (wp *WorkerPool) Results() <-chan *Result {
	return wp.results
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()
	for job := range wp.jobs {
		result := wp.processJob(job, id)
		select {
		case wp.results <- result:
		case <-wp.ctx.Done():
			return
		}
	}
}

func (wp *WorkerPool) processJob(job *Job, workerID int) *Result {
	start := time.Now()

	var finishTiming func(bool, map[string]interface{})
	if wp.observer != nil {
		finishTiming = wp.observer.StartTiming("worker_pool", "process_job", job.FilePath)
	}

	jobCtx, cancel := context.WithTimeout(wp.ctx, jobTimeout)
	defer cancel()

	outcome, err := wp.processor(jobCtx, job.FilePath)
	duration := time.Since(start)

	if finishTiming != nil {
		finishTiming(err == nil, map[string]interface{}{
			"worker_id":   workerID,
			"duration_ms": duration.Milliseconds(),
		})
	}

	return &Result{
		JobID:    job.JobID,
		FilePath: job.FilePath,
		Outcome:  outcome,
		Error:    err,
		Duration: duration,
	}
}
