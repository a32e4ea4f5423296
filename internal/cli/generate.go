package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sitesmith/sitesmith/internal/agent"
	"github.com/sitesmith/sitesmith/internal/config"
	"github.com/sitesmith/sitesmith/internal/logging"
	"github.com/sitesmith/sitesmith/internal/observability"
	"github.com/sitesmith/sitesmith/internal/site"
	"github.com/sitesmith/sitesmith/internal/structured"
)

const requirementsPrompt = "Enter the website requirements (e.g., 'Create a responsive landing page with a navbar, hero section, and contact form using Bootstrap 5'): "

// now is replaced in tests for stable file names.
var now = time.Now

type generateFlags struct {
	requirements string
	output       string
	maxAttempts  int
	timeout      time.Duration
	testsModel   string
	websiteModel string
}

// NewGenerateCmd runs the tests agent, then the website agent, and writes both outputs.
func NewGenerateCmd(opts *Options) *cobra.Command {
	f := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate pytest functions and a Bootstrap 5 site that should pass them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			f.apply(cfg)

			logger, err := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			requirements := f.requirements
			if strings.TrimSpace(requirements) == "" {
				requirements, err = promptLine(cmd.InOrStdin(), cmd.OutOrStdout(), requirementsPrompt)
				if err != nil {
					return err
				}
			}
			if strings.TrimSpace(requirements) == "" {
				return errors.New("requirements cannot be empty")
			}

			metrics := observability.NewMetrics()
			defer func() {
				if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
					logger.Warn("metrics textfile not written", zap.Error(err))
				}
			}()

			return runGenerate(cmd, cfg, f, requirements, logger, metrics)
		},
	}

	cmd.Flags().StringVarP(&f.requirements, "requirements", "r", "", "Website requirements (prompted on stdin when empty)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output directory (overrides output.dir)")
	cmd.Flags().IntVar(&f.maxAttempts, "max-attempts", 0, "Attempts per agent (overrides retry.max_attempts)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Per-attempt timeout (overrides retry.timeout)")
	cmd.Flags().StringVar(&f.testsModel, "tests-model", "", "Model for the tests agent")
	cmd.Flags().StringVar(&f.websiteModel, "website-model", "", "Model for the website agent")
	return cmd
}

func (f *generateFlags) apply(cfg *config.Config) {
	if f.output != "" {
		cfg.Output.Dir = f.output
	}
	if f.maxAttempts > 0 {
		cfg.Retry.MaxAttempts = f.maxAttempts
	}
	if f.timeout > 0 {
		cfg.Retry.Timeout = f.timeout
	}
}

func runGenerate(cmd *cobra.Command, cfg *config.Config, f *generateFlags, requirements string, logger *zap.Logger, metrics *observability.Metrics) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	reg, err := buildRegistry(ctx, cfg)
	if err != nil {
		return err
	}
	pipeline, err := agent.NewPipeline(agent.NewStrategyEngine(reg, cfg.Strategy), agent.Options{
		Policy:       structured.Policy{MaxAttempts: cfg.Retry.MaxAttempts, Timeout: cfg.Retry.Timeout},
		TestsModel:   f.testsModel,
		WebsiteModel: f.websiteModel,
		Logger:       logger,
		Metrics:      metrics,
	})
	if err != nil {
		return err
	}

	writer, err := site.NewWriter(cfg.Output.Dir)
	if err != nil {
		return err
	}
	stamp := site.Stamp(now())

	pipeline.OnTests = func(runID string, res agent.TestsResult) error {
		fmt.Fprintln(out, "Generated test functions:")
		for i, t := range res.Tests {
			fmt.Fprintf(out, "Test %d:\n%s\n\n", i+1, t)
		}
		if idx := agent.Unnamed(res.Tests); len(idx) > 0 {
			logger.Warn("snippets without a test_ function", zap.Ints("indexes", idx))
		}
		path, err := writer.WriteTests(stamp, res.Tests)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Test functions saved to: %s\n", path)
		fmt.Fprintln(out, "Generating website code...")
		return nil
	}

	fmt.Fprintln(out, "Generating test functions...")
	res, err := pipeline.Run(ctx, requirements)
	if err != nil {
		var be *agent.BusinessError
		if errors.As(err, &be) {
			return businessFailure(be)
		}
		return err
	}

	paths, err := writer.WriteWebsite(stamp, res.Website.HTML, res.Website.CSS, res.Website.JS)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Website files saved to: %s, %s, %s\n", paths.HTML, paths.CSS, paths.JS)

	report, err := site.Inspect(res.Website.HTML, agent.RequiredIDs)
	if err != nil {
		logger.Warn("generated html could not be inspected", zap.Error(err))
		return nil
	}
	if len(report.Missing) > 0 {
		fmt.Fprintf(out, "Warning: index.html is missing element ids: %s\n", strings.Join(report.Missing, ", "))
	}
	if report.Title != agent.PageTitle {
		logger.Warn("unexpected page title", zap.String("title", report.Title))
	}
	if !report.Bootstrap {
		logger.Warn("no Bootstrap reference found in index.html")
	}
	return nil
}

func businessFailure(be *agent.BusinessError) error {
	switch be.Agent {
	case agent.RoleTests:
		return fmt.Errorf("Error generating tests: %s", be.Message)
	default:
		return fmt.Errorf("Error generating website code: %s", be.Message)
	}
}

func promptLine(in io.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read requirements: %w", err)
	}
	return strings.TrimSpace(line), nil
}
