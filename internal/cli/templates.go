package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func (c *CLI) templatesCommand() *cobra.Command {
	var (
		catalog string
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:     "templates",
		Aliases: []string{"palette"},
		Short:   "List the node templates",
		Long: `List the node kinds that can be placed on the canvas, in palette order, with
their input and output ports. --catalog adds templates from a TOML file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := c.registry(catalog)
			if err != nil {
				return err
			}
			if asJSON {
				data, err := json.MarshalIndent(reg.Palette(), "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}
			fmt.Println(StyleTitle.Render(fmt.Sprintf("%d node templates", reg.Len())))
			fmt.Println(paletteTable(reg))
			return nil
		},
	}

	cmd.Flags().StringVar(&catalog, "catalog", "", "extra template catalog (TOML)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the palette as JSON")
	return cmd
}
