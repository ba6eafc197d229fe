package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"clinic-management/clinic"
	"clinic-management/config"
	"clinic-management/consumer"
	"clinic-management/handlers"
	"clinic-management/models"
	"clinic-management/monitoring"
	"clinic-management/session"
	"clinic-management/store"
	"clinic-management/utils"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "clinic",
		Short:        "Clinic administration server",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(remindCmd())
	rootCmd.AddCommand(resetCmd())
	rootCmd.AddCommand(initCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the reminder scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func remindCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remind",
		Short: "Flag the appointments due for a reminder once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			scheduler := clinic.NewReminderScheduler(a.secretary(), a.cfg.ReminderInterval, a.logger)
			fmt.Fprintf(cmd.OutOrStdout(), "%d appointment(s) flagged\n", scheduler.Sweep(cmd.Context()))
			return nil
		},
	}
}

func resetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Erase all clinic data and restore factory credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			if yes, _ := cmd.Flags().GetBool("yes"); !yes {
				return fmt.Errorf("refusing to reset without --yes")
			}

			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.doctor().ResetToFactory(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Clinic data reset to factory defaults")
			return nil
		},
	}
	cmd.Flags().Bool("yes", false, "Confirm that every record should be deleted")
	return cmd
}

func initCmd() *cobra.Command {
	defaults := models.DefaultClinicSettings()
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Store the clinic settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := settingsFromFlags(cmd)
			if settings.Name == "" {
				return fmt.Errorf("--name is required")
			}

			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.doctor().InitializeSystem(cmd.Context(), settings); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Clinic initialised: %s\n", settings.Name)
			return nil
		},
	}
	cmd.Flags().String("name", defaults.Name, "Clinic name")
	cmd.Flags().String("doctor", defaults.DoctorName, "Doctor name")
	cmd.Flags().String("address", defaults.Address, "Clinic address")
	cmd.Flags().String("phone", defaults.Phone, "Clinic phone number")
	return cmd
}

func settingsFromFlags(cmd *cobra.Command) models.ClinicSettings {
	name, _ := cmd.Flags().GetString("name")
	doctor, _ := cmd.Flags().GetString("doctor")
	address, _ := cmd.Flags().GetString("address")
	phone, _ := cmd.Flags().GetString("phone")
	return models.ClinicSettings{Name: name, DoctorName: doctor, Address: address, Phone: phone}
}

func runServer() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if !a.cfg.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}

	secretary := a.secretary()
	search := handlers.NewPatientSearch(nil, a.cfg.PatientIndex, a.store, a.logger)

	// The index is only trusted while the consumer keeps it current.
	switch {
	case a.cfg.ElasticsearchURL != "" && a.cfg.KafkaBroker == "":
		a.logger.Warn("elasticsearch configured without kafka, searching the store directly")
	case a.cfg.ElasticsearchURL != "":
		es, err := utils.NewElasticsearchClient(a.cfg.ElasticsearchURL)
		if err != nil {
			a.logger.Warn("elasticsearch unavailable, searching the store directly", zap.Error(err))
			break
		}
		a.closers = append(a.closers, es.Close)

		reader := utils.NewKafkaReader(a.cfg.KafkaBroker, a.cfg.KafkaTopic, a.cfg.KafkaGroupID)
		indexer := consumer.NewPatientConsumer(reader, es, a.cfg.PatientIndex, a.logger)
		if err := indexer.Backfill(ctx, a.store.Patients()); err != nil {
			a.logger.Warn("patient index backfill failed, searching the store directly", zap.Error(err))
			_ = reader.Close()
			break
		}
		indexer.Start(ctx)
		defer indexer.Stop()
		search = handlers.NewPatientSearch(es, a.cfg.PatientIndex, a.store, a.logger)
	}

	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		clinic.NewReminderScheduler(secretary, a.cfg.ReminderInterval, a.logger).Run(ctx)
	}()
	defer func() {
		stop()
		<-schedulerDone
	}()

	router := handlers.NewRouter(handlers.RouterConfig{
		Store:        a.store,
		Guard:        session.NewGuard(a.store),
		Secretary:    secretary,
		Doctor:       a.doctor(),
		Search:       search,
		Logger:       a.logger,
		CORSOrigins:  a.cfg.CORSOrigins,
		HealthChecks: a.healthChecks,
	})

	srv := &http.Server{
		Addr:    ":" + a.cfg.Port,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("server is running", zap.String("port", a.cfg.Port), zap.String("storage", a.store.Backend()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	a.logger.Info("server exited")
	return nil
}

// app holds what every command needs: configuration, logging and an opened
// record store.
type app struct {
	cfg          *config.Config
	logger       *zap.Logger
	loc          *time.Location
	store        *store.Store
	healthChecks map[string]handlers.HealthCheck
	closers      []func() error
}

func bootstrap(ctx context.Context) (*app, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger, err := utils.NewLogger(cfg.LogLevel, cfg.LogFormat, "clinic-management")
	if err != nil {
		return nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:          cfg,
		logger:       logger,
		loc:          loc,
		healthChecks: map[string]handlers.HealthCheck{},
	}

	if cfg.SentryDSN != "" {
		if err := utils.InitSentry(cfg.SentryDSN, cfg.Env, cfg.AppVersion); err != nil {
			logger.Warn("sentry disabled", zap.Error(err))
		} else {
			a.closers = append(a.closers, func() error { utils.FlushSentry(); return nil })
		}
	}

	monitoring.Init()

	backend, err := a.openBackend()
	if err != nil {
		a.close()
		return nil, err
	}

	opts := []store.Option{store.WithLogger(logger)}
	if cfg.KafkaBroker != "" {
		producer, err := utils.NewKafkaProducer(cfg.KafkaBroker)
		if err != nil {
			logger.Warn("kafka unavailable, change events disabled", zap.Error(err))
		} else {
			publisher := store.NewKafkaPublisher(producer, cfg.KafkaTopic, logger)
			a.closers = append(a.closers, publisher.Close)
			opts = append(opts, store.WithEvents(publisher))
		}
	}

	s, err := store.Open(ctx, backend, opts...)
	if err != nil {
		_ = backend.Close()
		a.close()
		return nil, err
	}
	a.store = s
	a.closers = append(a.closers, s.Close)

	return a, nil
}

func (a *app) openBackend() (models.Backend, error) {
	switch a.cfg.StorageBackend {
	case config.BackendPostgres:
		repo, err := models.NewPostgresRepository(a.cfg.DSN())
		if err != nil {
			return nil, err
		}
		a.healthChecks["postgres"] = repo.Ping
		return repo, nil

	case config.BackendRedis:
		client, err := utils.ConnectRedis(a.cfg.RedisHost, a.cfg.RedisPassword, a.cfg.RedisDB, 5, 3*time.Second,
			func(attempt int, err error) {
				a.logger.Warn("failed to connect to redis", zap.Int("attempt", attempt), zap.Error(err))
			})
		if err != nil {
			return nil, err
		}
		a.healthChecks["redis"] = client.Ping
		return models.NewDocumentStore(client, a.cfg.SnapshotKey), nil

	case config.BackendFile:
		return models.NewFileStore(a.cfg.DataFile), nil

	default:
		return models.NewMemoryStore(), nil
	}
}

func (a *app) secretary() *clinic.Secretary {
	return clinic.NewSecretary(a.store, clinic.DisabledNotifier{Logger: a.logger}, a.loc, a.logger)
}

func (a *app) doctor() *clinic.Doctor {
	return clinic.NewDoctor(a.store, a.loc, a.logger)
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("error during shutdown", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
