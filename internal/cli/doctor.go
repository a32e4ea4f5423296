package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// NewDoctorCmd returns a health-check command validating config and environment.
func NewDoctorCmd(opts *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration and environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config OK. Providers: %d, models: %d\n", len(cfg.Providers), len(cfg.Models))

			for _, name := range sortedKeys(cfg.Providers) {
				p := cfg.Providers[name]
				key := "set"
				switch {
				case !p.RequiresKey():
					key = "not required"
				case strings.TrimSpace(p.APIKey) == "":
					key = "MISSING (" + p.APIKeyEnv + ")"
				}
				fmt.Fprintf(out, "  provider %s: type=%s api_key=%s\n", name, p.Type, key)
			}
			for _, name := range sortedKeys(cfg.Models) {
				m := cfg.Models[name]
				def := ""
				if m.Default {
					def = " (default)"
				}
				fmt.Fprintf(out, "  model %s: %s via %s%s\n", name, m.Model, m.Provider, def)
			}
			fmt.Fprintf(out, "Retry: %d attempts, %s per attempt\n", cfg.Retry.MaxAttempts, cfg.Retry.Timeout)
			fmt.Fprintf(out, "Output dir: %s\n", cfg.Output.Dir)

			if missing := cfg.MissingKeys(); len(missing) > 0 {
				return fmt.Errorf("api key missing for provider(s): %s", strings.Join(missing, ", "))
			}
			return nil
		},
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
