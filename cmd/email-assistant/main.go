package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/llm-email-assistant/internal/adapters/ical"
	"github.com/mikey/llm-email-assistant/internal/adapters/intake"
	"github.com/mikey/llm-email-assistant/internal/core"
	"github.com/mikey/llm-email-assistant/internal/di"
	"github.com/mikey/llm-email-assistant/internal/factory"
)

var opts = &di.CLIOptions{}

var rootCmd = &cobra.Command{
	Use:   "email-assistant",
	Short: "Analyze emails with an LLM and turn follow-ups into calendar events",
	Long: `email-assistant runs summary, bias, sentiment, classification and spam analysis
on an email, decides whether it needs a follow-up, and writes an .ics file for it.
Follow-ups can also be published to Google Calendar once 'calendar connect' has run.`,
	SilenceUsage: true,
}

func main() {
	addPersistentFlags()
	registerCommands()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		var notAuth *core.NotAuthenticatedError
		if errors.As(err, &notAuth) {
			fmt.Fprintln(os.Stderr, "hint: run 'email-assistant calendar connect' first")
		}
		os.Exit(1)
	}
}

func addPersistentFlags() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.ConfigFile, "config", "c", "", "path to config file")
	flags.StringVar(&opts.Provider, "provider", "", "LLM provider (openai, gemini, bedrock)")
	flags.StringVar(&opts.Model, "model", "", "model name for the selected provider")
	flags.StringVar(&opts.ArtifactDir, "artifact-dir", "", "directory for follow-up .ics files")
	flags.StringVarP(&opts.Format, "format", "f", "", "output format (table, json, yaml)")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose logging")
	flags.BoolVar(&opts.JSONLog, "json-log", false, "output logs in JSON format")
}

func registerCommands() {
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(followUpCmd())
	rootCmd.AddCommand(calendarCmd())
}

// readInput reads the email from the named file or stdin
func readInput(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(args[0])
}

// invoke builds the CLI container and runs fn with its dependencies
func invoke(fn interface{}) error {
	container, err := di.BuildCLIContainer(opts)
	if err != nil {
		return fmt.Errorf("failed to build dependency container: %w", err)
	}
	return container.Invoke(fn)
}

func newRenderer(svc *core.AnalyzerService, logger *zap.Logger) (*intake.CLIIntake, error) {
	return intake.NewCLIIntake(svc, os.Stdout, opts.Format, logger, opts.Verbose)
}

func analyzeCmd() *cobra.Command {
	var publish bool
	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Run every analysis on an email read from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(args)
			if err != nil {
				return fmt.Errorf("failed to read email: %w", err)
			}
			email, err := intake.ParseEmail(raw)
			if err != nil {
				return err
			}

			return invoke(func(svc *core.AnalyzerService, generator core.TextGenerator, logger *zap.Logger) error {
				defer logger.Sync()
				defer closeGenerator(generator, logger)

				cli, err := newRenderer(svc, logger)
				if err != nil {
					return err
				}
				report, err := cli.ProcessEmail(cmd.Context(), email)
				if err != nil {
					return err
				}
				if publish {
					return publishOutcome(cmd.Context(), svc.FollowUps(), report.FollowUp, cmd.OutOrStdout())
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&publish, "publish", false, "also create the follow-up on the remote calendar")
	return cmd
}

func followUpCmd() *cobra.Command {
	var publish bool
	cmd := &cobra.Command{
		Use:   "followup [file]",
		Short: "Decide whether an email needs a follow-up and write a calendar file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readInput(args)
			if err != nil {
				return fmt.Errorf("failed to read email: %w", err)
			}
			email, err := intake.ParseEmail(raw)
			if err != nil {
				return err
			}

			return invoke(func(svc *core.AnalyzerService, generator core.TextGenerator, logger *zap.Logger) error {
				defer logger.Sync()
				defer closeGenerator(generator, logger)

				outcome, err := svc.FollowUp(cmd.Context(), email.Body)
				if err != nil {
					return err
				}
				cli, err := newRenderer(svc, logger)
				if err != nil {
					return err
				}
				if err := cli.RenderFollowUp(outcome); err != nil {
					return err
				}
				if publish {
					return publishOutcome(cmd.Context(), svc.FollowUps(), outcome, cmd.OutOrStdout())
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&publish, "publish", false, "also create the follow-up on the remote calendar")
	return cmd
}

// publishOutcome publishes a follow-up that needs action; anything else is a no-op
func publishOutcome(ctx context.Context, followUps *core.FollowUpOrchestrator, outcome *core.FollowUpOutcome, out io.Writer) error {
	if outcome == nil || outcome.Decision == nil || !outcome.Decision.NeedsFollowUp {
		fmt.Fprintln(out, "No follow-up to publish")
		return nil
	}
	published, err := followUps.PublishDecision(ctx, outcome.Decision)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Published follow-up: %s\n", published.ViewURL)
	return nil
}

func closeGenerator(generator core.TextGenerator, logger *zap.Logger) {
	if closer, ok := generator.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}
}

func calendarCmd() *cobra.Command {
	cal := &cobra.Command{Use: "calendar", Short: "Manage the remote calendar connection"}
	cal.AddCommand(calendarConnectCmd())
	cal.AddCommand(calendarStatusCmd())
	cal.AddCommand(calendarDisconnectCmd())
	cal.AddCommand(calendarPublishCmd())
	return cal
}

func calendarConnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Authorize access to Google Calendar in a browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			return invoke(func(c *factory.CalendarComponents, logger *zap.Logger) error {
				defer logger.Sync()
				if c.Authorizer == nil {
					return errors.New("calendar client secrets are not configured (calendar.client_secrets_file)")
				}
				out := cmd.OutOrStdout()
				c.Authorizer.SetPrompt(func(authURL string) error {
					fmt.Fprintf(out, "Open this URL in your browser to authorize calendar access:\n\n  %s\n\n", authURL)
					return nil
				})

				status, err := c.Orchestrator.Authenticate(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Calendar %s; grant stored in %s\n", status.State, c.Store.Path())
				return nil
			})
		},
	}
}

func calendarStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether remote publishing is possible",
		RunE: func(cmd *cobra.Command, args []string) error {
			return invoke(func(c *factory.CalendarComponents, logger *zap.Logger) error {
				defer logger.Sync()
				status, err := c.Orchestrator.CredentialState(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				state := core.CredentialUnauthenticated
				if status.Authenticated() {
					state = core.CredentialAuthenticated
				}
				fmt.Fprintf(out, "State: %s\n", state)
				fmt.Fprintf(out, "Token file: %s\n", c.Store.Path())
				if status.Credential != nil && !status.Credential.Expiry.IsZero() {
					fmt.Fprintf(out, "Expires: %s\n", status.Credential.Expiry.Local().Format("2006-01-02 15:04"))
				}
				if status.Problem != nil {
					fmt.Fprintf(out, "Problem: %v\n", status.Problem)
				}
				return nil
			})
		},
	}
}

func calendarDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Forget the stored calendar grant",
		RunE: func(cmd *cobra.Command, args []string) error {
			return invoke(func(c *factory.CalendarComponents, logger *zap.Logger) error {
				defer logger.Sync()
				if err := c.Store.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Calendar grant removed")
				return nil
			})
		},
	}
}

func calendarPublishCmd() *cobra.Command {
	var reason, timeframe, fromFile string
	var items []string
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Create a follow-up event on the remote calendar",
		RunE: func(cmd *cobra.Command, args []string) error {
			if fromFile == "" && reason == "" {
				return errors.New("--reason or --from-file required")
			}
			return invoke(func(c *factory.CalendarComponents, logger *zap.Logger) error {
				defer logger.Sync()

				var spec core.CalendarEventSpec
				if fromFile != "" {
					var err error
					spec, err = ical.ReadEvent(fromFile)
					if err != nil {
						return err
					}
				} else {
					spec = c.Orchestrator.EventSpecFor(&core.FollowUpDecision{
						NeedsFollowUp: true,
						Reason:        reason,
						TimeframeHint: timeframe,
						ActionItems:   items,
					})
				}

				published, err := c.Orchestrator.PublishRemote(cmd.Context(), spec)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Published %q at %s\n%s\n",
					spec.Title, spec.Start.Local().Format("Mon Jan 2 15:04"), published.ViewURL)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "event title")
	cmd.Flags().StringVar(&timeframe, "timeframe", "", "when to follow up, e.g. 'in 3 days' or 'by Friday'")
	cmd.Flags().StringArrayVar(&items, "item", nil, "action item (repeatable)")
	cmd.Flags().StringVar(&fromFile, "from-file", "", "publish the event stored in a follow-up .ics file")
	return cmd
}
