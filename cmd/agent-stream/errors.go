package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/minhyannv/agent-stream-go/pkg/config"
	"github.com/minhyannv/agent-stream-go/pkg/console"
)

// handleError reports err on w. Run errors were already rendered by the
// printer and are skipped.
func handleError(w io.Writer, err error) {
	var runErr *console.RunError
	if errors.As(err, &runErr) {
		return
	}

	styles := console.MakeStyles(console.NewRenderer(w))
	format := "\n%s\n\n%s\n\n"

	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		hint := "Set the variables in the environment or in a .env file."
		fmt.Fprintf(w, format+"%s\n\n",
			styles.ErrPadding.Render(styles.ErrorHeader.String()),
			styles.ErrPadding.Render(styles.ErrorDetails.Render(err.Error())),
			styles.ErrPadding.Render(styles.Dim.Render(hint)),
		)
		return
	}

	fmt.Fprintf(w, format,
		styles.ErrPadding.Render(styles.ErrorHeader.String()),
		styles.ErrPadding.Render(styles.ErrorDetails.Render(err.Error())),
	)
}
