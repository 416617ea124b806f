package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mdn/stumptown-deployer/internal/config"
	"github.com/mdn/stumptown-deployer/internal/gitname"
	"github.com/mdn/stumptown-deployer/internal/keymap"
	"github.com/mdn/stumptown-deployer/internal/logging"
	"github.com/mdn/stumptown-deployer/internal/notify"
	"github.com/mdn/stumptown-deployer/internal/redirects"
	"github.com/mdn/stumptown-deployer/internal/walker"
	"github.com/mdn/stumptown-deployer/pkg/executor"
	"github.com/mdn/stumptown-deployer/pkg/planner"
	"github.com/mdn/stumptown-deployer/pkg/s3client"
)

func runUpload(cmd *cobra.Command, args []string) error {
	directory := args[0]
	startTime := time.Now()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Setup(quiet, debug)

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	deploymentName := cfg.Name
	if deploymentName == "" {
		deploymentName, err = gitname.Derive(directory)
		if err != nil {
			return &config.ConfigurationError{
				Msg: fmt.Sprintf("no --name given and no git branch to derive one from: %v", err),
			}
		}
	}

	log.WithFields(log.Fields{
		"directory": directory,
		"bucket":    cfg.Bucket,
		"name":      deploymentName,
	}).Info("starting deploy")

	// Everything below up to the listing happens before any write, so
	// fatal errors leave the remote untouched.
	w, err := walker.New(directory, cfg.Excludes)
	if err != nil {
		return &config.ConfigurationError{Msg: err.Error()}
	}

	files, redirectSources, err := w.Walk()
	if err != nil {
		return err
	}
	log.WithFields(log.Fields{"files": len(files), "redirectFiles": len(redirectSources)}).Info("walked build directory")

	mapper := keymap.NewMapper(deploymentName, cfg.Substitutions)

	relPaths := make([]string, len(files))
	for i, f := range files {
		relPaths[i] = f.RelPath
	}
	keyTable, err := mapper.BuildTable(relPaths)
	if err != nil {
		return err
	}

	rules, err := collectRedirects(mapper, redirectSources, keyTable)
	if err != nil {
		return err
	}

	var awsOpts []func(*awsconfig.LoadOptions) error
	if cfg.Profile != "" {
		awsOpts = append(awsOpts, awsconfig.WithSharedConfigProfile(cfg.Profile))
	}
	if cfg.Region != "" {
		awsOpts = append(awsOpts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsOpts...)
	if err != nil {
		return &config.ConfigurationError{Msg: fmt.Sprintf("load AWS config: %v", err)}
	}
	client := s3client.NewAWSClient(awsCfg)

	remote := map[string]s3client.ObjectInfo{}
	if refresh {
		log.Info("refresh: ignoring what was previously uploaded")
	} else {
		remote, err = client.List(ctx, cfg.Bucket, mapper.Prefix())
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{"objects": len(remote)}).Info("fetched remote listing")
	}

	locals := make([]planner.LocalFile, len(files))
	for i, f := range files {
		locals[i] = planner.LocalFile{
			Key:  keyTable[f.RelPath],
			Path: f.Path,
			Size: f.Size,
		}
	}

	plnr := planner.NewPlanner(client, cfg.Bucket, cfg.Concurrency)
	items, err := plnr.Plan(ctx, locals, remote, rules)
	if err != nil {
		return err
	}

	policy := executor.CachePolicy{
		DefaultSeconds: cfg.DefaultCacheControl,
		HashedSeconds:  cfg.HashedCacheControl,
	}
	exec := executor.NewExecutor(client, cfg.Bucket, cfg.Concurrency, dryRun, policy)
	results := exec.Execute(ctx, items)

	summary := summarize(results, time.Since(startTime))
	summary.Print(quiet)

	if cfg.Notify.Topic != "" && !dryRun {
		notifier := notify.NewSNSNotifier(awsCfg, cfg.Notify.Topic)
		if err := notifier.NotifyDeployResults(ctx, deploymentName, summary); err != nil {
			log.WithFields(log.Fields{"topic": cfg.Notify.Topic}).Warnf("notification failed: %v", err)
		}
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d operations failed", summary.Failed)
	}
	return nil
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("bucket") {
		cfg.Bucket = bucket
	}
	if cmd.Flags().Changed("name") {
		cfg.Name = name
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = concurrency
	}
	if cmd.Flags().Changed("profile") {
		cfg.Profile = profile
	}
	if cmd.Flags().Changed("region") {
		cfg.Region = region
	}
	if cmd.Flags().Changed("sns-topic") {
		cfg.Notify.Topic = snsTopic
	}
	cfg.Excludes = append(cfg.Excludes, excludes...)
}

// collectRedirects parses every redirect declaration file and checks its
// source keys against the regular upload keys: a redirect shadowing a
// real file is a key collision, not a deployable state.
func collectRedirects(mapper *keymap.Mapper, sources []walker.RedirectSource, keyTable map[string]string) ([]redirects.Rule, error) {
	uploadKeys := make(map[string]string, len(keyTable))
	for relPath, key := range keyTable {
		uploadKeys[key] = relPath
	}

	type declaration struct {
		path   string
		target string
	}

	var rules []redirects.Rule
	seen := make(map[string]declaration)

	for _, src := range sources {
		var parsed []redirects.Rule

		switch src.Kind {
		case walker.BulkFile:
			mapKey := func(rel string) string {
				return mapper.Map(path.Join(src.RelDir, rel))
			}
			fileRules, err := redirects.ParseFile(src.Path, mapKey)
			if err != nil {
				return nil, err
			}
			parsed = fileRules
		case walker.SingleFile:
			fromKey := mapper.Map(path.Join(src.RelDir, "index.html"))
			rule, err := redirects.ParseIndexRedirect(src.Path, fromKey)
			if err != nil {
				return nil, err
			}
			parsed = []redirects.Rule{rule}
		}

		for _, rule := range parsed {
			if relPath, exists := uploadKeys[rule.FromKey]; exists {
				return nil, &keymap.CollisionError{Key: rule.FromKey, PathA: relPath, PathB: src.Path}
			}
			if previous, exists := seen[rule.FromKey]; exists {
				if previous.target == rule.Target {
					// Identical duplicate declaration, apply once.
					continue
				}
				return nil, &keymap.CollisionError{Key: rule.FromKey, PathA: previous.path, PathB: src.Path}
			}
			seen[rule.FromKey] = declaration{path: src.Path, target: rule.Target}
			rules = append(rules, rule)
		}
	}

	return rules, nil
}

func summarize(results []executor.Result, duration time.Duration) logging.Summary {
	summary := logging.Summary{Duration: duration}

	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
			summary.FailedKeys = append(summary.FailedKeys, r.Item.Key)
			continue
		}
		switch r.Item.Action {
		case planner.ActionUploadNew:
			summary.Uploaded++
			summary.BytesUploaded += r.Item.Size
		case planner.ActionUploadChanged:
			summary.Updated++
			summary.BytesUploaded += r.Item.Size
		case planner.ActionCreateRedirect:
			summary.Redirects++
		case planner.ActionSkip:
			summary.Skipped++
		}
	}

	return summary
}
