package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codebender/eratosthenes/pkg/library"
)

// errNotResolved is returned after a failure response has been printed.
var errNotResolved = errors.New("library not resolved")

// listCommand creates the list command that resolves one library locally.
func (c *CLI) listCommand() *cobra.Command {
	var (
		version string
		view    bool
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "list <library>",
		Short: "List the files of a library",
		Long: fmt.Sprintf(`List the files of a built-in or external library, as the editor would see them.

The reference may be path qualified (vendor/Name) and may use one of the
reserved aliases (%s).`, strings.Join(aliasNames(), ", ")),
		Example: `  eratosthenes list Servo
  eratosthenes list Adafruit_GFX --version 1.1.0 --view
  eratosthenes list arduino-libraries/ArduinoRobot --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}

			b, err := c.openBackends(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer c.closeBackends(b)

			prog := newProgress(c.Logger)
			req := library.Request{Library: args[0], Version: version, RenderView: view}
			resp := c.newService(cfg, b).List(cmd.Context(), req)

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(resp); err != nil {
					return err
				}
				if !resp.Success {
					return errNotResolved
				}
				return nil
			}

			if !resp.Success {
				printError("%s", resp.Message)
				return errNotResolved
			}
			prog.done(fmt.Sprintf("Resolved %s (%d files)", args[0], len(resp.Files)))
			printResponse(args[0], resp)
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "version", "", "external library version")
	cmd.Flags().BoolVar(&view, "view", false, "include examples and metadata")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the response as JSON")

	return cmd
}

// printResponse prints a successful response as a readable summary.
func printResponse(name string, resp library.Response) {
	if resp.View {
		name = resp.Library
	}
	printSuccess("%s", StyleTitle.Render(name))

	printKeyValue("files", strconv.Itoa(len(resp.Files)))
	for _, f := range resp.Files {
		printFile(f.Filename, len(f.Text()))
	}
	if !resp.View {
		return
	}

	printKeyValue("examples", strconv.Itoa(len(resp.Examples)))
	for _, e := range resp.Examples {
		printFile(e.Filename, len(e.Text()))
	}

	keys := make([]string, 0, len(resp.Meta))
	for k := range resp.Meta {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		printKeyValue(k, fmt.Sprint(resp.Meta[k]))
	}
}

// aliasNames returns the reserved library aliases in sorted order.
func aliasNames() []string {
	aliases := library.Aliases()
	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
