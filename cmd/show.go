package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang-switchport/internal/adapter/switchport"
	"golang-switchport/internal/pkg/logging"
	"golang-switchport/internal/types"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var showFlags struct {
	iface  string
	output string
}

// showEntry is the current state of one interface
type showEntry struct {
	Interface  string                   `json:"interface"`
	Configured bool                     `json:"configured"`
	Config     *types.InterfaceResource `json:"config"`
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current switchport configuration without changing anything",
	RunE: func(cmd *cobra.Command, args []string) error {
		if showFlags.output != "table" && showFlags.output != "json" {
			return fmt.Errorf("unsupported output format %q (table or json)", showFlags.output)
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := resolveCredentials(cfg); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		transport, err := createTransport(ctx, cfg)
		if err != nil {
			return err
		}
		defer transport.Close()

		entries, err := readEntries(ctx, switchport.NewReader(transport, logging.WithComponent("show")), showFlags.iface)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if showFlags.output == "json" {
			return writeJSON(out, entries)
		}
		return renderTable(out, entries)
	},
}

// readEntries reads one interface, or every configured interface when iface is empty.
func readEntries(ctx context.Context, reader *switchport.Reader, iface string) ([]showEntry, error) {
	ids := []string{iface}
	if iface == "" {
		var err error
		ids, err = reader.List(ctx)
		if err != nil {
			return nil, err
		}
	}

	entries := make([]showEntry, 0, len(ids))
	for _, id := range ids {
		res, found, err := reader.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		entries = append(entries, showEntry{Interface: id, Configured: found, Config: res})
	}
	return entries, nil
}

func renderTable(out io.Writer, entries []showEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(out, "no switchport configuration")
		return err
	}

	data := pterm.TableData{{"Interface", "VLAN tagging", "Tagged VLANs", "Untagged VLAN"}}
	for _, e := range entries {
		if !e.Configured {
			data = append(data, []string{e.Interface, "no switchport configuration", "", ""})
			continue
		}
		data = append(data, []string{
			e.Interface,
			orDash(string(e.Config.VlanTagging)),
			orDash(strings.Join(e.Config.TaggedVlans, ",")),
			orDash(e.Config.UntaggedVlan),
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithWriter(out).WithData(data).Render()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	showCmd.Flags().StringVarP(&showFlags.iface, "interface", "i", "", "Interface to show (default: all configured interfaces)")
	showCmd.Flags().StringVarP(&showFlags.output, "output", "o", "table", "Output format (table or json)")
	rootCmd.AddCommand(showCmd)
}
