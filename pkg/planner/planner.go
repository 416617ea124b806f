package planner

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mdn/stumptown-deployer/internal/checksum"
	"github.com/mdn/stumptown-deployer/internal/redirects"
	"github.com/mdn/stumptown-deployer/pkg/s3client"
)

// Planner turns local candidates, the remote listing and redirect rules
// into an ordered list of actions. Per-key decisions are independent, so
// the hash checks run on a bounded worker pool.
type Planner struct {
	client      s3client.Client
	bucket      string
	concurrency int

	// hashFile is the hash oracle; swapped out in tests.
	hashFile func(path string) (string, error)
}

func NewPlanner(client s3client.Client, bucket string, concurrency int) *Planner {
	if concurrency <= 0 {
		concurrency = 50
	}
	return &Planner{
		client:      client,
		bucket:      bucket,
		concurrency: concurrency,
		hashFile:    checksum.FileMD5,
	}
}

// Plan computes the full action list. The remote listing must already be
// complete; this is the one ordering barrier of the whole run.
func (p *Planner) Plan(ctx context.Context, local []LocalFile, remote map[string]s3client.ObjectInfo, rules []redirects.Rule) ([]Item, error) {
	compared := Compare(local, remote)

	items := make([]Item, 0, len(local)+len(rules))

	newItems, err := p.hashAll(ctx, compared.New, ActionUploadNew, "new file")
	if err != nil {
		return nil, err
	}
	items = append(items, newItems...)

	changedItems, err := p.hashAll(ctx, compared.SizeMismatch, ActionUploadChanged, "size differs")
	if err != nil {
		return nil, err
	}
	items = append(items, changedItems...)

	checkedItems, err := p.resolveByHash(ctx, compared.NeedHashCheck)
	if err != nil {
		return nil, err
	}
	items = append(items, checkedItems...)

	// Redirects bypass the diff entirely: cheap to re-apply, idempotent.
	for _, rule := range rules {
		items = append(items, Item{
			Action:         ActionCreateRedirect,
			Key:            rule.FromKey,
			RedirectTarget: rule.Target,
			Reason:         "redirect declaration",
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Action != items[j].Action {
			return items[i].Action < items[j].Action
		}
		return items[i].Key < items[j].Key
	})

	return items, nil
}

// hashAll computes local hashes for files already known to need an
// upload, so every put carries its hash as metadata.
func (p *Planner) hashAll(ctx context.Context, files []LocalFile, action Action, reason string) ([]Item, error) {
	items := make([]Item, len(files))

	err := p.forEach(ctx, len(files), func(i int) error {
		hash, err := p.hashFile(files[i].Path)
		if err != nil {
			return fmt.Errorf("hash %s: %w", files[i].Path, err)
		}
		items[i] = Item{
			Action:    action,
			Key:       files[i].Key,
			LocalPath: files[i].Path,
			Size:      files[i].Size,
			Hash:      hash,
			Reason:    reason,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

// resolveByHash settles the size-equal candidates: fetch the stored
// remote hash, compute the local one, and only skip on an exact match.
// A remote object without hash metadata is treated as changed.
func (p *Planner) resolveByHash(ctx context.Context, files []LocalFile) ([]Item, error) {
	items := make([]Item, len(files))

	err := p.forEach(ctx, len(files), func(i int) error {
		localHash, err := p.hashFile(files[i].Path)
		if err != nil {
			return fmt.Errorf("hash %s: %w", files[i].Path, err)
		}

		remoteHash, err := p.client.ObjectHash(ctx, p.bucket, files[i].Key)
		if err != nil {
			return err
		}

		item := Item{
			Key:       files[i].Key,
			LocalPath: files[i].Path,
			Size:      files[i].Size,
			Hash:      localHash,
		}
		if remoteHash == localHash {
			item.Action = ActionSkip
			item.Reason = "size and hash match"
		} else {
			item.Action = ActionUploadChanged
			item.Reason = "hash differs"
		}
		items[i] = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}

// forEach runs fn for every index on a bounded pool, stopping at the
// first error.
func (p *Planner) forEach(ctx context.Context, n int, fn func(i int) error) error {
	sem := make(chan struct{}, p.concurrency)
	var wg sync.WaitGroup

	var mu sync.Mutex
	var firstErr error

	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			mu.Lock()
			if firstErr == nil {
				firstErr = ctx.Err()
			}
			mu.Unlock()
		default:
		}

		mu.Lock()
		stop := firstErr != nil
		mu.Unlock()
		if stop {
			break
		}

		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if err := fn(idx); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(i)
	}

	wg.Wait()
	return firstErr
}
