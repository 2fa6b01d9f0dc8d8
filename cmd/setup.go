package main

import (
	"context"
	"fmt"

	"github.com/liverslices/spotify-automation/internal/shared"
	"github.com/liverslices/spotify-automation/internal/ui"
	"github.com/urfave/cli/v3"
)

// Init writes the example configuration to the --config path, refusing to overwrite.
func (r *Runner) Init(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("%s\n", ui.Styles.OK(fmt.Sprintf("✓ Example configuration written to %s", path)))
	r.writePlain("%s\n", ui.Styles.Help("Fill in the client id and secret, then run: junkmover token"))
	return nil
}
