package executor

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/mdn/stumptown-deployer/pkg/planner"
	"github.com/mdn/stumptown-deployer/pkg/s3client"
)

// UploadError is a per-key failure. It never aborts the run; failed keys
// are collected and reported so the operator can rerun the (idempotent)
// sync.
type UploadError struct {
	Key string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Key, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// Result pairs a planned item with its outcome.
type Result struct {
	Item planner.Item
	Err  error
}

// Executor applies a plan against the store on a bounded worker pool.
type Executor struct {
	client      s3client.Client
	bucket      string
	concurrency int
	dryRun      bool
	cachePolicy CachePolicy
}

func NewExecutor(client s3client.Client, bucket string, concurrency int, dryRun bool, cachePolicy CachePolicy) *Executor {
	if concurrency <= 0 {
		concurrency = 50
	}
	return &Executor{
		client:      client,
		bucket:      bucket,
		concurrency: concurrency,
		dryRun:      dryRun,
		cachePolicy: cachePolicy,
	}
}

// Execute runs every item. Per-key failures are isolated; cancellation
// stops scheduling new items while letting in-flight puts finish or
// abort through their context.
func (e *Executor) Execute(ctx context.Context, items []planner.Item) []Result {
	results := make([]Result, len(items))

	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup

	for i, item := range items {
		if item.Action == planner.ActionSkip {
			log.WithFields(log.Fields{"key": item.Key, "reason": item.Reason}).Debug("skip")
			results[i] = Result{Item: item}
			continue
		}

		select {
		case <-ctx.Done():
			results[i] = Result{Item: item, Err: &UploadError{Key: item.Key, Err: ctx.Err()}}
			continue
		default:
		}

		wg.Add(1)
		go func(idx int, itm planner.Item) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			err := e.executeItem(ctx, itm)
			if err != nil {
				err = &UploadError{Key: itm.Key, Err: err}
				log.WithFields(log.Fields{"key": itm.Key}).Error(err)
			}

			results[idx] = Result{Item: itm, Err: err}
		}(i, item)
	}

	wg.Wait()
	return results
}

func (e *Executor) executeItem(ctx context.Context, item planner.Item) error {
	switch item.Action {
	case planner.ActionUploadNew, planner.ActionUploadChanged:
		return e.upload(ctx, item)
	case planner.ActionCreateRedirect:
		return e.applyRedirect(ctx, item)
	default:
		return nil
	}
}

func (e *Executor) upload(ctx context.Context, item planner.Item) error {
	log.WithFields(log.Fields{
		"key":    item.Key,
		"size":   item.Size,
		"reason": item.Reason,
	}).Info("upload")

	if e.dryRun {
		return nil
	}

	file, err := os.Open(item.LocalPath)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	return e.client.Put(ctx, &s3client.PutRequest{
		Bucket:       e.bucket,
		Key:          item.Key,
		Body:         file,
		Size:         item.Size,
		ContentType:  guessContentType(item.LocalPath),
		CacheControl: e.cachePolicy.CacheControl(item.LocalPath),
		ContentHash:  item.Hash,
	})
}

func (e *Executor) applyRedirect(ctx context.Context, item planner.Item) error {
	log.WithFields(log.Fields{
		"key":    item.Key,
		"target": item.RedirectTarget,
	}).Info("redirect")

	if e.dryRun {
		return nil
	}

	return e.client.Put(ctx, &s3client.PutRequest{
		Bucket:           e.bucket,
		Key:              item.Key,
		Body:             strings.NewReader(""),
		Size:             0,
		RedirectLocation: redirectLocation(item.RedirectTarget),
	})
}

// redirectLocation adapts a redirect target to the store's website
// redirect convention: absolute URLs pass through, keys become
// bucket-rooted paths.
func redirectLocation(target string) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}
	if strings.HasPrefix(target, "/") {
		return target
	}
	return "/" + target
}
