package daemon

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/charlie0129/batteryinfo/pkg/batteryinfo"
	"github.com/charlie0129/batteryinfo/pkg/config"
	"github.com/charlie0129/batteryinfo/pkg/events"
	"github.com/charlie0129/batteryinfo/pkg/powerinfo"
)

var (
	conf      config.Config
	sseHub    *events.EventHub
	scheduler *Scheduler

	// reading is not safe for concurrent use. Every access goes through readingMu.
	reading   *batteryinfo.Reading
	readingMu sync.Mutex
)

func setupRoutes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(ginLogger(logrus.StandardLogger()))
	router.GET("/config", getConfig)
	router.GET("/battery", getBattery)
	router.GET("/battery/:field", getBatteryField)
	router.POST("/refresh", postRefresh)
	router.GET("/refresh-interval", getRefreshInterval)
	router.PUT("/refresh-interval", setRefreshInterval)
	router.GET("/poll-schedule", getPollSchedule)
	router.PUT("/poll-schedule", setPollSchedule)
	router.POST("/poll-schedule/skip", skipPollSchedule)
	router.GET("/events", streamEvents)
	router.GET("/version", getVersion)

	return router
}

func readingOptions(c config.Config) []batteryinfo.Option {
	return []batteryinfo.Option{
		batteryinfo.WithIndex(c.BatteryIndex()),
		batteryinfo.WithTimeFormat(c.TimeFormat()),
		batteryinfo.WithTempUnit(c.TempUnit()),
		batteryinfo.WithRefreshInterval(c.RefreshInterval()),
	}
}

// applyConfig pushes the current config into the live reading and scheduler.
// Format and unit changes show up on the next refresh.
func applyConfig() {
	readingMu.Lock()
	reading.SetTimeFormat(conf.TimeFormat())
	reading.SetTempUnit(conf.TempUnit())
	reading.SetRefreshInterval(conf.RefreshInterval())
	if idx := conf.BatteryIndex(); idx != reading.Index() {
		if err := refreshLocked(&idx, true); err != nil {
			logrus.WithError(err).WithField("index", idx).Error("failed to switch battery, keeping the current one")
			conf.SetBatteryIndex(reading.Index())
		}
	}
	readingMu.Unlock()

	if scheduler == nil {
		return
	}
	if err := scheduler.Schedule(conf.PollCron()); err != nil {
		logrus.WithError(err).WithField("pollCron", conf.PollCron()).Error("failed to schedule polling")
	}
}

func Run(configPath string, unixSocketPath string, allowNonRoot bool) error {
	router := setupRoutes()

	var err error
	conf, err = config.NewFile(configPath)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to parse config during startup")
	}
	logrus.WithFields(conf.LogrusFields()).Infof("config loaded")

	provider, err := powerinfo.New(conf.Provider())
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to create %s provider", conf.Provider())
	}
	defer func() {
		if err := powerinfo.Close(provider); err != nil {
			logrus.Errorf("failed to close provider: %v", err)
		}
	}()

	reading, err = batteryinfo.Acquire(provider, readingOptions(conf)...)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to acquire battery")
	}
	logrus.WithFields(logrus.Fields{
		"index":      reading.Index(),
		"technology": reading.Technology(),
	}).Info("battery acquired")

	sseHub = events.NewEventHub()

	scheduler = NewScheduler(pollTask, func(data any) {
		logrus.Errorf("scheduled refresh failed: %v", data)
	})
	if err := scheduler.Schedule(conf.PollCron()); err != nil {
		return pkgerrors.Wrapf(err, "failed to schedule polling with %q", conf.PollCron())
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Receive SIGHUP to reload config
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGHUP)
		for range sigc {
			err := conf.Load()
			if err != nil {
				logrus.Errorf("failed to reload config: %v", err)
				continue
			}
			applyConfig()
			logrus.WithFields(conf.LogrusFields()).Infof("config reloaded")
		}
	}()

	srv := &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// A socket left behind by a crashed daemon would make Listen fail.
	if err := os.Remove(unixSocketPath); err != nil && !os.IsNotExist(err) {
		return pkgerrors.Wrapf(err, "failed to remove stale socket %s", unixSocketPath)
	}

	// Create the socket to listen on:
	l, err := net.Listen("unix", unixSocketPath)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to listen on %s", unixSocketPath)
	}

	if conf.AllowNonRootAccess() || allowNonRoot {
		logrus.Infof("non-root access is allowed, changing permissions of %s to 0777", unixSocketPath)
		err = os.Chmod(unixSocketPath, 0777)
		if err != nil {
			return pkgerrors.Wrapf(err, "failed to chmod %s", unixSocketPath)
		}
	}

	// Serve HTTP on unix socket
	go func() {
		logrus.Infof("http server listening on %s", l.Addr().String())
		if err := srv.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatal(err)
		}
	}()

	// Handle common process-killing signals, so we can gracefully shut down:
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	// Wait for a SIGINT or SIGTERM:
	sig := <-sigc
	logrus.Infof("caught signal \"%s\": shutting down.", sig)

	logrus.Info("shutting down http server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = srv.Shutdown(ctx)
	if err != nil {
		logrus.Errorf("failed to shutdown http server: %v", err)
	}
	cancel()

	logrus.Info("exiting")
	return nil
}
