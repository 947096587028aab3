package actions

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"stackport/domain"
	"stackport/engine"
)

// StatusActionHandler prints one row per known service with its container
// state, running or not.
func StatusActionHandler() error {
	eng, err := engine.NewClient()
	if err != nil {
		return err
	}
	defer eng.Close()

	states, err := eng.ListContainers(context.Background(), domain.KnownServiceNames())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "SERVICE\tIMAGE\tSTATUS")
	for _, svc := range domain.KnownServices() {
		if state, ok := states[svc.ContainerName()]; ok {
			fmt.Fprintf(w, "%s\t%s\t%s\n", svc.Name, state.Image, state.Status)
		} else {
			fmt.Fprintf(w, "%s\t-\tnot created\n", svc.Name)
		}
	}
	return w.Flush()
}
