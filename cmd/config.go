package cmd

import (
	"fmt"
	"os"

	"github.com/foomo/keel/log"
	"github.com/foomo/sitemaps/pkg/sitemap"
	"github.com/foomo/sitemaps/pkg/store"
	"github.com/foomo/sitemaps/requests"
	"github.com/foomo/sitemaps/responses"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func NewConfigCommand() *cobra.Command {
	v := newViper()

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage sitemap configurations",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Print all sitemap configurations as json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := openStore(v)
			if err != nil {
				return err
			}
			defer func() {
				err = multierr.Append(err, s.Close())
			}()

			configs, err := s.GetAll(cmd.Context())
			if err != nil {
				return err
			}
			reply := &responses.Configs{Configs: make([]*responses.Config, 0, len(configs))}
			for _, cfg := range configs {
				reply.Configs = append(reply.Configs, &responses.Config{Config: cfg, URL: cfg.URL(cfg.PinnedLanguage())})
			}
			out, err := json.MarshalIndent(reply, "", "  ")
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	imp := &cobra.Command{
		Use:   "import <file>",
		Short: "Create or replace sitemap configurations from a yaml list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			configs, err := readConfigs(args[0])
			if err != nil {
				return err
			}

			s, err := openStore(v)
			if err != nil {
				return err
			}
			defer func() {
				err = multierr.Append(err, s.Close())
			}()

			for _, cfg := range configs {
				if cfg.ID == "" {
					// replace the config already serving the url
					if existing, err := s.GetByURL(cmd.Context(), cfg.URL(cfg.PinnedLanguage())); err == nil {
						cfg.ID = existing.ID
					}
				}
				if err := s.Save(cmd.Context(), cfg); err != nil {
					return errors.Wrapf(err, "failed to import %s", cfg.URL(cfg.PinnedLanguage()))
				}
				log.Logger().Info("imported sitemap config",
					zap.String("id", cfg.ID),
					zap.String("url", cfg.URL(cfg.PinnedLanguage())),
				)
			}
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a sitemap configuration with its data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			s, err := openStore(v)
			if err != nil {
				return err
			}
			defer func() {
				err = multierr.Append(err, s.Close())
			}()
			return s.Delete(cmd.Context(), args[0])
		},
	}

	addDBFlag(cmd.PersistentFlags(), v)
	addDBTimeoutFlag(cmd.PersistentFlags(), v)

	cmd.AddCommand(list, imp, del)

	return cmd
}

func openStore(v *viper.Viper) (*store.Store, error) {
	return store.Open(log.Logger().Named("inst.store"), dbFlag(v), store.WithTimeout(dbTimeoutFlag(v)))
}

// readConfigs decodes a yaml list of sitemap configurations, missing fields
// keep their defaults
func readConfigs(path string) ([]*sitemap.Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open config file")
	}
	defer f.Close()

	var nodes []yaml.Node
	if err := yaml.NewDecoder(f).Decode(&nodes); err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", path)
	}
	ret := make([]*sitemap.Config, 0, len(nodes))
	for i := range nodes {
		req := requests.NewConfig()
		if err := nodes[i].Decode(req); err != nil {
			return nil, errors.Wrapf(err, "invalid sitemap config at line %d", nodes[i].Line)
		}
		ret = append(ret, req.ToConfig())
	}
	return ret, nil
}
