package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configFile  string
	bucket      string
	name        string
	refresh     bool
	dryRun      bool
	quiet       bool
	debug       bool
	excludes    []string
	concurrency int
	profile     string
	region      string
	snsTopic    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "stumptown-deployer",
		Short:   "Deploy built static-site artifacts to a prefix in a shared S3 bucket",
		Version: fmt.Sprintf("%s (commit: %s, built at: %s)", version, commit, date),
	}

	uploadCmd := &cobra.Command{
		Use:   "upload <Directory>",
		Short: "Upload new and changed files from a build directory",
		Long: `upload synchronizes a directory of built static-site artifacts with a
deployment prefix inside the shared bucket. Only new or changed files are
uploaded; changes are detected by size and by a content hash stored as
object metadata. Redirect declaration files become S3 website redirects.`,
		Args: cobra.ExactArgs(1),
		RunE: runUpload,
	}

	uploadCmd.Flags().StringVar(&configFile, "config", "", "Path to deployer.yml (default: ./deployer.yml if present)")
	uploadCmd.Flags().StringVar(&bucket, "bucket", "", "Name of the shared bucket")
	uploadCmd.Flags().StringVar(&name, "name", "", "Deployment name (prefix); derived from the git branch if not set")
	uploadCmd.Flags().BoolVar(&refresh, "refresh", false, "Ignore what is already uploaded and upload everything")
	uploadCmd.Flags().BoolVar(&dryRun, "dryrun", false, "Show operations without executing them")
	uploadCmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress non-error output")
	uploadCmd.Flags().BoolVar(&debug, "debug", false, "Verbose logging, including skipped files")
	uploadCmd.Flags().StringSliceVar(&excludes, "exclude", nil, "Exclude patterns (multiple allowed)")
	uploadCmd.Flags().IntVar(&concurrency, "concurrency", 0, "Number of concurrent hash checks and uploads")
	uploadCmd.Flags().StringVar(&profile, "profile", "", "AWS profile to use")
	uploadCmd.Flags().StringVar(&region, "region", "", "AWS region (uses default if not specified)")
	uploadCmd.Flags().StringVar(&snsTopic, "sns-topic", "", "SNS topic ARN for failed-deploy notifications")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}

	rootCmd.AddCommand(uploadCmd, versionCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
