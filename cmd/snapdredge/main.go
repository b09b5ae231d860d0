// Command snapdredge sorts an account's EBS snapshots into AMI-attached
// and unattached, writing the results to timestamped CSV files.
//
// It has two modes. "attached" runs non-interactively against a
// built-in profile and region and writes only the attached table.
// "survey" prompts for profile and region and writes both tables.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/GESkunkworks/snapdredge"
)

// Defaults for the non-interactive attached mode.
const (
	fixedProfile = "glassfish"
	fixedRegion  = "ap-south-1"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "snapdredge",
		Usage: "find EBS snapshots that are (or are not) backing AMIs",
		Commands: []*cli.Command{
			attachedCommand(),
			surveyCommand(),
		},
	}
}

// attachedCommand is the fixed-config mode: no prompts, built-in
// profile and region, and only the attached table is written.
// Snapshots with zero referencing AMIs are discarded without being
// reported; run the survey command to get the unattached list.
func attachedCommand() *cli.Command {
	return &cli.Command{
		Name:  "attached",
		Usage: "write only the AMI-attached snapshot table using built-in defaults",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "profile",
				Usage:   "AWS credential profile",
				EnvVars: []string{"SNAPDREDGE_PROFILE"},
				Value:   fixedProfile,
			},
			&cli.StringFlag{
				Name:    "region",
				Usage:   "AWS region",
				EnvVars: []string{"SNAPDREDGE_REGION"},
				Value:   fixedRegion,
			},
			&cli.IntFlag{
				Name:    "workers",
				Usage:   "concurrent association lookups",
				EnvVars: []string{"SNAPDREDGE_WORKERS"},
				Value:   10,
			},
		},
		Action: func(c *cli.Context) error {
			cfg := snapdredge.Config{
				Profile: c.String("profile"),
				Region:  c.String("region"),
				Workers: c.Int("workers"),
			}
			return finish(run(cfg, false, false))
		},
	}
}

// surveyCommand is the interactive mode: prompts for profile and
// region (env-resolved defaults shown), writes both tables, and by
// default also warns about unattached snapshots referenced directly by
// launch templates or launch configurations.
func surveyCommand() *cli.Command {
	return &cli.Command{
		Name:  "survey",
		Usage: "prompt for profile and region, write attached and unattached tables",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "check-launch-refs",
				Usage: "warn about unattached snapshots referenced by launch templates/configs",
				Value: true,
			},
		},
		Action: func(c *cli.Context) error {
			fmt.Println("Welcome to the Snapshot Checker!")
			cfg, err := snapdredge.ResolveConfig()
			if err != nil {
				return finish(err)
			}
			cfg, err = cfg.Prompt(os.Stdin, os.Stdout)
			if err != nil {
				return finish(err)
			}
			return finish(run(cfg, true, c.Bool("check-launch-refs")))
		},
	}
}

func run(cfg snapdredge.Config, writeUnattached, checkLaunchRefs bool) error {
	input := snapdredge.SurveyInput{
		Profile:         &cfg.Profile,
		Region:          &cfg.Region,
		Workers:         &cfg.Workers,
		CheckLaunchRefs: &checkLaunchRefs,
	}
	srv, err := snapdredge.New(&input)
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return err
	}
	// a write failure aborts that file only; any table already written
	// stays on disk
	var errs []error
	if err := srv.ExportAttached(); err != nil {
		errs = append(errs, fmt.Errorf("writing %s: %w", srv.AttachedFile(), err))
	}
	if writeUnattached {
		if err := srv.ExportUnattached(); err != nil {
			errs = append(errs, fmt.Errorf("writing %s: %w", srv.UnattachedFile(), err))
		}
	}
	return errors.Join(errs...)
}

// finish maps errors to the process exit policy: credential or session
// setup failures exit non-zero, anything else is printed and the
// process exits normally.
func finish(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, snapdredge.ErrNoCredentials) {
		return cli.Exit(fmt.Sprintf("%v\nEnsure you have configured your profile correctly.", err), 1)
	}
	if errors.Is(err, snapdredge.ErrSessionInit) {
		return cli.Exit(err.Error(), 1)
	}
	fmt.Printf("An error occurred: %v\n", err)
	return nil
}
