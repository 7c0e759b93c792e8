package cmd

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang-switchport/internal/adapter/switchport"
	"golang-switchport/internal/pkg/config"
	"golang-switchport/internal/pkg/logging"
	"golang-switchport/internal/port"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCheckFlag bool

// createSwitchportManagers creates one reconciler per configured interface on a shared transport
func createSwitchportManagers(cfg *config.Config, transport port.Transport, dryRun bool) []port.SwitchportManager {
	var managers []port.SwitchportManager
	for _, desired := range cfg.DesiredStates() {
		manager, err := switchport.NewManager(desired, transport, switchport.Options{
			DryRun: dryRun,
			Logger: logging.WithComponentAndInterface("switchport", desired.InterfaceID),
		})
		if err != nil {
			logging.WithInterface(desired.InterfaceID).WithError(err).Error("Failed to create switchport reconciler")
			continue
		}
		managers = append(managers, manager)
	}
	return managers
}

// reconcileAll connects, runs one pass per interface concurrently, and disconnects.
// Each tick is an independent pass, so a dropped connection is re-established on the next one.
func reconcileAll(ctx context.Context, cfg *config.Config, dryRun bool) {
	logger := logging.WithComponent("serve")

	transport, err := createTransport(ctx, cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to device, retrying on next tick")
		return
	}
	defer transport.Close()

	var wg sync.WaitGroup
	for _, manager := range createSwitchportManagers(cfg, transport, dryRun) {
		wg.Add(1)
		go func(mgr port.SwitchportManager) {
			defer wg.Done()
			logOutcome(mgr.GetInterfaceName(), switchport.NewReport(mgr.Reconcile(ctx)))
		}(manager)
	}
	wg.Wait()
}

func logOutcome(iface string, report switchport.Report) {
	logger := logging.WithComponentAndInterface("serve", iface).WithFields(logrus.Fields{
		"action":  report.Action,
		"dry_run": report.DryRun,
	})

	switch {
	case report.Failed():
		logger.WithFields(logrus.Fields{
			"msg":  report.Error.Message,
			"code": report.Error.Code,
		}).Error("Reconciliation failed")
	case report.Changed:
		logger.WithField("attributes", report.ChangeSet.String()).Info("Corrected switchport drift")
	default:
		logger.Debug("No drift")
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Continuously reconcile every interface in the config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.ValidateInterfaces(); err != nil {
			return err
		}
		interval, err := cfg.ServeInterval()
		if err != nil {
			return err
		}
		if err := resolveCredentials(cfg); err != nil {
			return err
		}

		logger := logging.GetLogger()
		logger.WithFields(logrus.Fields{
			"config_file":     configFlag,
			"interface_count": len(cfg.Interfaces),
			"interval":        interval.String(),
			"dry_run":         serveCheckFlag,
		}).Info("Starting drift correction loop")

		// Create context for graceful shutdown
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Handle shutdown signals
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigChan)
		go func() {
			select {
			case sig := <-sigChan:
				logger.WithField("signal", sig.String()).Info("Received shutdown signal")
				cancel()
			case <-ctx.Done():
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			reconcileAll(ctx, cfg, serveCheckFlag)

			select {
			case <-ctx.Done():
				logger.Info("Drift correction loop stopped")
				return nil
			case <-ticker.C:
			}
		}
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveCheckFlag, "check", false, "Only report drift, never change the device")
	rootCmd.AddCommand(serveCmd)
}
