package snapdredge

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config carries the resolved run parameters. Resolution happens
// before any network activity and the result is injected into the
// pipeline; nothing below this layer reads the environment or prompts.
type Config struct {
	Profile string `env:"SNAPDREDGE_PROFILE" envDefault:"default"`
	Region  string `env:"SNAPDREDGE_REGION" envDefault:"us-east-1"`
	Workers int    `env:"SNAPDREDGE_WORKERS" envDefault:"10"`
}

// ResolveConfig builds a Config from the environment, falling back to
// the built-in defaults for anything unset.
func ResolveConfig() (cfg Config, err error) {
	err = env.Parse(&cfg)
	return cfg, err
}

// Prompt asks for profile and region on r, writing prompts to w. Empty
// answers keep the values already in the Config, so the env-resolved
// defaults show through.
func (c Config) Prompt(r io.Reader, w io.Writer) (Config, error) {
	scanner := bufio.NewScanner(r)

	fmt.Fprintf(w, "Enter the AWS profile to use (default is '%s'): ", c.Profile)
	if scanner.Scan() {
		if answer := strings.TrimSpace(scanner.Text()); answer != "" {
			c.Profile = answer
		}
	}
	fmt.Fprintf(w, "Enter the AWS region to use (default is '%s'): ", c.Region)
	if scanner.Scan() {
		if answer := strings.TrimSpace(scanner.Text()); answer != "" {
			c.Region = answer
		}
	}
	return c, scanner.Err()
}
