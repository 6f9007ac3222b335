package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/poiesic/searchrag"
	"github.com/poiesic/searchrag/cloud"
	"github.com/poiesic/searchrag/config"
	"github.com/poiesic/searchrag/provision"
	"github.com/urfave/cli/v2"
)

var errCancelled = errors.New("cancelled")

func provisionCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "init",
			Usage:  "Write a default configuration file",
			Action: initCommand,
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "force",
					Usage: "Overwrite an existing configuration file",
				},
			},
		},
		{
			Name:   "plan",
			Usage:  "Show the changes apply would make",
			Action: planCommand,
		},
		{
			Name:   "apply",
			Usage:  "Create or update the search domain and its master credential",
			Action: applyCommand,
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "auto-approve",
					Usage: "Skip the interactive confirmation",
				},
				&cli.BoolFlag{
					Name:  "no-wait",
					Usage: "Return without waiting for the domain to finish processing",
				},
			},
		},
		{
			Name:   "destroy",
			Usage:  "Delete the search domain and its master credential",
			Action: destroyCommand,
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "auto-approve",
					Usage: "Skip the interactive confirmation",
				},
				&cli.BoolFlag{
					Name:  "force-delete-secret",
					Usage: "Delete the secret without a recovery window",
				},
				&cli.Int64Flag{
					Name:  "recovery-days",
					Usage: "Secret recovery window in days (7-30)",
					Value: 30,
				},
			},
		},
		{
			Name:   "output",
			Usage:  "Print the domain outputs",
			Action: outputCommand,
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "json",
					Usage: "Print the outputs as JSON",
				},
				&cli.BoolFlag{
					Name:  "all",
					Usage: "List every domain recorded in local state",
				},
			},
		},
		{
			Name:   "endpoint",
			Usage:  "Print the domain endpoint",
			Action: endpointCommand,
		},
		{
			Name:   "secret",
			Usage:  "Print the master credential secret name and masked value",
			Action: secretCommand,
		},
	}
}

func initCommand(c *cli.Context) error {
	path := c.String("config")
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("config %s already exists (use --force to overwrite)", path)
	}

	cfg := config.Default()
	if region := c.String("region"); region != "" {
		cfg.SetRegion(region)
	}
	if err := config.Save(path, cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)
	return nil
}

func printDomainParams(c *cli.Context, cfg *config.Config) {
	fmt.Fprintf(c.App.ErrWriter, "Region: %s\n", cfg.Region)
	fmt.Fprintf(c.App.ErrWriter, "Domain: %s\n", cfg.Domain.DomainName)
	fmt.Fprintln(c.App.ErrWriter)
}

func planCommand(c *cli.Context) error {
	return withStack(c, func(ctx context.Context, cfg *config.Config, stack *searchrag.Stack) error {
		printDomainParams(c, cfg)
		p, err := stack.Provisioner()
		if err != nil {
			return err
		}
		plan, err := p.Plan(ctx)
		if err != nil {
			return fmt.Errorf("plan failed: %w", err)
		}
		return plan.Render(c.App.Writer)
	})
}

func applyCommand(c *cli.Context) error {
	return withStack(c, func(ctx context.Context, cfg *config.Config, stack *searchrag.Stack) error {
		printDomainParams(c, cfg)

		var opts []provision.Option
		if c.Bool("no-wait") {
			opts = append(opts, provision.WithoutWait())
		}
		p, err := stack.Provisioner(opts...)
		if err != nil {
			return err
		}

		plan, err := p.Plan(ctx)
		if err != nil {
			return fmt.Errorf("plan failed: %w", err)
		}
		if err := plan.Render(c.App.Writer); err != nil {
			return err
		}

		if plan.HasChanges() && !c.Bool("auto-approve") {
			ok, err := confirm(c, "Do you want to perform these actions?")
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("apply %w", errCancelled)
			}
		}

		out, err := p.Apply(ctx, plan)
		if err != nil {
			return fmt.Errorf("apply failed: %w", err)
		}

		fmt.Fprintln(c.App.Writer, "\nApply complete.\n\nOutputs:")
		return out.Render(c.App.Writer)
	})
}

func destroyCommand(c *cli.Context) error {
	return withStack(c, func(ctx context.Context, cfg *config.Config, stack *searchrag.Stack) error {
		printDomainParams(c, cfg)

		p, err := stack.Provisioner()
		if err != nil {
			return err
		}

		if !c.Bool("auto-approve") {
			secretName, err := p.SecretName(ctx)
			if err != nil {
				return err
			}
			question := fmt.Sprintf("Do you really want to destroy domain %q and secret %q?",
				cfg.Domain.DomainName, secretName)
			ok, err := confirm(c, question)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("destroy %w", errCancelled)
			}
		}

		report, err := p.Destroy(ctx, provision.DestroyOptions{
			ForceDeleteSecret: c.Bool("force-delete-secret"),
			RecoveryDays:      c.Int64("recovery-days"),
		})
		if err != nil {
			return fmt.Errorf("destroy failed: %w", err)
		}

		if !report.DomainDeleted && !report.SecretDeleted {
			fmt.Fprintln(c.App.Writer, "Nothing to destroy.")
			return nil
		}
		if report.DomainDeleted {
			fmt.Fprintf(c.App.Writer, "Deleted domain %s\n", cfg.Domain.DomainName)
		}
		if report.SecretDeleted {
			fmt.Fprintf(c.App.Writer, "Deleted secret %s\n", report.SecretName)
		}
		return nil
	})
}

func outputCommand(c *cli.Context) error {
	return withStack(c, func(ctx context.Context, cfg *config.Config, stack *searchrag.Stack) error {
		if c.Bool("all") {
			return listStates(ctx, c, stack)
		}
		p, err := stack.Provisioner()
		if err != nil {
			return err
		}
		out, err := p.Outputs(ctx)
		if err != nil {
			return err
		}
		if c.Bool("json") {
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, string(data))
			return nil
		}
		return out.Render(c.App.Writer)
	})
}

func listStates(ctx context.Context, c *cli.Context, stack *searchrag.Stack) error {
	states, err := stack.StateRepository().ListStates(ctx)
	if err != nil {
		return err
	}
	if c.Bool("json") {
		data, err := json.MarshalIndent(states, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, string(data))
		return nil
	}
	if len(states) == 0 {
		fmt.Fprintln(c.App.Writer, "No domains recorded.")
		return nil
	}
	for _, st := range states {
		fmt.Fprintf(c.App.Writer, "%s\t%s\t%s\t%s\t%s\n",
			st.DomainName, st.Region, st.Endpoint, st.SecretName, st.AppliedAt.Format(time.RFC3339))
	}
	return nil
}

func endpointCommand(c *cli.Context) error {
	return withStack(c, func(ctx context.Context, cfg *config.Config, stack *searchrag.Stack) error {
		endpoint, err := stack.Endpoint(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Endpoint: %s\n", endpoint)
		return nil
	})
}

func secretCommand(c *cli.Context) error {
	return withStack(c, func(ctx context.Context, cfg *config.Config, stack *searchrag.Stack) error {
		name, value, err := stack.Secret(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Secret name: %s\n", name)
		fmt.Fprintf(c.App.Writer, "Secret value: %s\n", cloud.MaskSecret(value))
		return nil
	})
}
