package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/nowplaying/internal/formatter"
	"github.com/desertthunder/nowplaying/internal/tasks"
	"github.com/desertthunder/nowplaying/internal/ui"
	"github.com/urfave/cli/v3"
)

// Render renders one badge.
//
// Without --output the SVG document is written to stdout so it can be piped; progress goes to the log.
func (r *Runner) Render(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.String("id")
	output := cmd.String("output")

	config, err := r.loadConfig()
	if err != nil {
		return err
	}

	st, err := r.open(ctx, config)
	if err != nil {
		return err
	}
	defer st.Close()

	progress := make(chan tasks.ProgressUpdate, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for update := range progress {
			if output == "" {
				r.logger.Debug("render progress", "phase", update.Phase, "step", update.Step, "message", update.Message)
				continue
			}
			r.writePlain("[%d/%d] %s\n", update.Step, update.Total, update.Message)
		}
	}()

	badge, err := st.engine.Render(ctx, userID, optionsFromFlags(cmd), progress)
	close(progress)
	wg.Wait()

	if err != nil {
		if isAuthError(err) {
			return fmt.Errorf("%w: %s", err, loginHint(userID))
		}
		return err
	}

	if output == "" {
		_, err := r.output.Write(badge.SVG)
		return err
	}

	result, err := formatter.WriteBadgeExport(userID, badge, output, r.now())
	if err != nil {
		return err
	}

	r.writePlainHeader("Badge rendered")
	if badge.Track.Offline {
		r.writePlain("%s\n", ui.Warning(badge.Track.TrackName))
	} else {
		r.writePlain("%s\n%s\n", ui.Success(badge.Track.TrackName), badge.Track.Artists())
	}
	r.writePlain("\n%s\n", ui.Swatches(badge.Palette))
	if badge.Degraded {
		r.writePlain("%s\n", ui.Warning("Artwork unavailable, using the rainbow palette"))
	}
	r.writePlainln("Badge: %s", result.BadgeFile)
	r.writePlain("Metadata: %s\n", result.MetadataFile)
	return nil
}
