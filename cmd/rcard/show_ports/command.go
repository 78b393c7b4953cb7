package showports

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"
)

func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "show-ports",
		Short: "Show the serial ports usable as command link",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			ports, err := enumerator.GetDetailedPortsList()
			if err != nil {
				return err
			}

			slices.SortStableFunc(ports, func(a, b *enumerator.PortDetails) int {
				return strings.Compare(a.Name, b.Name)
			})

			for _, p := range ports {
				if !p.IsUSB {
					fmt.Printf("%-16s\n", p.Name)
					continue
				}

				fmt.Printf("%-16s VID: %s - PID: %s - SN: %s - %s\n", p.Name, p.VID, p.PID, p.SerialNumber, p.Product)
			}

			return nil
		},
	}
}
