package cmd

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang-switchport/internal/adapter/switchport"
	"golang-switchport/internal/pkg/config"
	"golang-switchport/internal/pkg/logging"
	"golang-switchport/internal/types"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var applyFlags struct {
	iface        string
	state        string
	vlanTagging  string
	taggedVlans  string
	untaggedVlan string
	check        bool
	diff         bool
}

// failureOutput is printed instead of the report when a pass fails
type failureOutput struct {
	Failed    bool                     `json:"failed"`
	Msg       string                   `json:"msg"`
	Code      int                      `json:"code"`
	Interface string                   `json:"interface,omitempty"`
	Changed   bool                     `json:"changed"`
	Action    types.Action             `json:"action,omitempty"`
	Result    *types.InterfaceResource `json:"result"`
}

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Reconcile the switchport configuration of one interface",
	Long: `Reconcile the switchport configuration of one interface in a single pass.
Attributes given in the config file for the interface are used as defaults; flags override them.
Omitted attributes are left untouched on the device.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		cfg, err := loadConfig()
		if err != nil {
			return writeFailure(out, nil, err)
		}

		desired := desiredState(cmd.Flags(), cfg)
		if err := switchport.ValidateDesiredState(desired); err != nil {
			return writeFailure(out, nil, err)
		}
		if err := resolveCredentials(cfg); err != nil {
			return writeFailure(out, nil, err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		transport, err := createTransport(ctx, cfg)
		if err != nil {
			return writeFailure(out, nil, err)
		}
		defer transport.Close()

		manager, err := switchport.NewManager(desired, transport, switchport.Options{
			DryRun: applyFlags.check,
			Logger: logging.WithComponentAndInterface("switchport", desired.InterfaceID),
		})
		if err != nil {
			return writeFailure(out, nil, err)
		}

		outcome, err := manager.Reconcile(ctx)
		if err != nil {
			return writeFailure(out, outcome, err)
		}

		report := switchport.NewReport(outcome, nil)
		if applyFlags.diff {
			report = report.WithDiff(outcome)
		}
		return writeJSON(out, report)
	},
}

// desiredState merges the config file entry for the interface with the flags that were set.
func desiredState(flags *pflag.FlagSet, cfg *config.Config) types.DesiredState {
	desired, ok := cfg.DesiredState(applyFlags.iface)
	if !ok {
		desired = types.DesiredState{InterfaceID: applyFlags.iface}
	}

	if flags.Changed("state") {
		desired.Lifecycle = types.Lifecycle(applyFlags.state)
	}
	if flags.Changed("vlan-tagging") {
		tagging := types.VlanTagging(applyFlags.vlanTagging)
		desired.VlanTagging = &tagging
	}
	if flags.Changed("tagged-vlans") {
		desired.TaggedVlans = types.ParseVlanList(applyFlags.taggedVlans)
	}
	if flags.Changed("untagged-vlan") {
		untagged := applyFlags.untaggedVlan
		desired.UntaggedVlan = &untagged
	}
	return desired
}

func writeFailure(out io.Writer, outcome *types.Outcome, err error) error {
	report := switchport.NewReport(outcome, err)
	failure := failureOutput{
		Failed:    true,
		Msg:       report.Error.Message,
		Code:      report.Error.Code,
		Interface: report.Interface,
		Action:    report.Action,
		Result:    report.Result,
	}
	logging.WithError(err).WithField("component", "apply").Debug("Pass failed")
	if werr := writeJSON(out, failure); werr != nil {
		return werr
	}
	return errReported
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	flags := applyCmd.Flags()
	flags.StringVarP(&applyFlags.iface, "interface", "i", "", "Interface whose switchport configuration is managed")
	flags.StringVar(&applyFlags.state, "state", string(types.LifecyclePresent), "Desired lifecycle (present or absent)")
	flags.StringVar(&applyFlags.vlanTagging, "vlan-tagging", "", "VLAN tagging mode (enable or disable)")
	flags.StringVar(&applyFlags.taggedVlans, "tagged-vlans", "", "Comma-separated tagged VLAN list; empty clears it")
	flags.StringVar(&applyFlags.untaggedVlan, "untagged-vlan", "", "Untagged (native) VLAN")
	flags.BoolVar(&applyFlags.check, "check", false, "Dry run: report what would change without changing it")
	flags.BoolVar(&applyFlags.diff, "diff", false, "Include a before/after diff in the report")
	if err := applyCmd.MarkFlagRequired("interface"); err != nil {
		panic(err) // This should never happen during initialization
	}
	rootCmd.AddCommand(applyCmd)
}
