package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/cexll/modelbridge-go/pkg/config"
	modelpkg "github.com/cexll/modelbridge-go/pkg/model"
	"github.com/cexll/modelbridge-go/pkg/model/anthropic"
)

type rootOptions struct {
	configPath string
	model      string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "modelbridge",
		Short:         "Talk to Anthropic models through transcript semantics",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to a YAML settings file")
	cmd.PersistentFlags().StringVarP(&opts.model, "model", "m", "", "model id override")

	cmd.AddCommand(newAskCmd(opts))
	cmd.AddCommand(newChatCmd(opts))
	return cmd
}

// buildModel resolves settings and constructs the provider model.
func (o *rootOptions) buildModel(ctx context.Context) (modelpkg.Model, error) {
	var settings config.Settings
	if o.configPath != "" {
		loaded, err := config.Load(o.configPath)
		if err != nil {
			return nil, err
		}
		settings = loaded
	} else {
		settings = config.Default()
	}
	if o.model != "" {
		settings.Model = o.model
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	factory := modelpkg.NewFactory(anthropic.NewProvider(nil))
	return factory.NewModel(ctx, settings.ModelConfig())
}
